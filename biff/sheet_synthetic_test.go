package biff

import "encoding/binary"

// record assembles a single BIFF record: a 2-byte opcode, a 2-byte
// little-endian length, and the body.
func record(code int, body []byte) []byte {
	out := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint16(out[0:2], uint16(code))
	binary.LittleEndian.PutUint16(out[2:4], uint16(len(body)))
	copy(out[4:], body)
	return out
}

// rowRecord builds a minimal 16-byte BIFF8 ROW record body.
func rowRecord(rowx int) []byte {
	body := make([]byte, 16)
	binary.LittleEndian.PutUint16(body[0:2], uint16(rowx))
	return record(XL_ROW, body)
}

func newSyntheticBook() *Book {
	return &Book{
		BiffVersion:        80,
		Encoding:           "cp1252",
		xfIndexToXLTypeMap: map[int]int{},
	}
}

func concatRecords(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
