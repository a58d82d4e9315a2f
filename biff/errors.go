package biff

import "fmt"

// biffError is the common base for the errors below, mirroring the shape
// of XLRDError and the XLDateError family: a struct embedding a message,
// with discriminated subtypes for callers that want to switch on kind.
type biffError struct {
	Message string
}

func (e *biffError) Error() string {
	return e.Message
}

// UnknownCodePageError indicates a CODEPAGE record named a code page this
// reader has no encoder for. Fatal: every subsequent string decode would
// be meaningless, so the globals pass aborts immediately.
type UnknownCodePageError struct {
	biffError
	Codepage int
}

func newUnknownCodePageError(codepage int) *UnknownCodePageError {
	return &UnknownCodePageError{
		biffError: biffError{Message: fmt.Sprintf("unknown code page %d", codepage)},
		Codepage:  codepage,
	}
}

// UnsupportedBiffVersionError indicates a BOF record named a BIFF version
// this reader does not specifically recognize. Non-fatal: the globals pass
// continues using the default (most general) record table.
type UnsupportedBiffVersionError struct {
	biffError
	Version int
}

func newUnsupportedBiffVersionError(version int) *UnsupportedBiffVersionError {
	return &UnsupportedBiffVersionError{
		biffError: biffError{Message: fmt.Sprintf("unsupported BIFF version %d", version)},
		Version:   version,
	}
}

// MalformedRecordError indicates a record's declared length did not match
// what could actually be read at its offset. A corrupt length means there
// is no reliable next record boundary to resume at, so globals parsing
// stops where it stands: whatever sheets/formats/names were already
// collected are kept, and no further records are read.
type MalformedRecordError struct {
	biffError
	Opcode int
	Offset int
}

func newMalformedRecordError(opcode, offset int) *MalformedRecordError {
	return &MalformedRecordError{
		biffError: biffError{Message: fmt.Sprintf("malformed record 0x%04x at offset %d", opcode, offset)},
		Opcode:    opcode,
		Offset:    offset,
	}
}

// MissingFollowUpStringError indicates a FORMULA record's result slot
// claimed a string result, but the next record was not a STRING record.
// The caller substitutes an Error(0x2A) cell value and restores the
// cursor so the unexpected record is processed normally.
type MissingFollowUpStringError struct {
	biffError
}

func newMissingFollowUpStringError() *MissingFollowUpStringError {
	return &MissingFollowUpStringError{
		biffError: biffError{Message: "formula result expected a following STRING record"},
	}
}

// TruncatedStreamError indicates the cursor could not read a full 4-byte
// record header. Treated as a normal end of stream once a sheet/workbook
// EOF marker has already been observed; fatal otherwise.
type TruncatedStreamError struct {
	biffError
	Offset int
}

func newTruncatedStreamError(offset int) *TruncatedStreamError {
	return &TruncatedStreamError{
		biffError: biffError{Message: fmt.Sprintf("truncated record stream at offset %d", offset)},
		Offset:    offset,
	}
}
