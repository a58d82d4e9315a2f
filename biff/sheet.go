package biff

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// Sheet contains the data for one worksheet.
//
// In the cell access functions, rowx is a row index, counting from zero,
// and colx is a column index, counting from zero.
//
// You don't instantiate this type yourself. You access Sheet objects via
// the Book object that was returned when you called OpenWorkbook. Cell
// data is decoded lazily: reading the sheet's BOF only indexes where each
// row's bytes live, one row block per contiguous run of row-block
// records; CellValue/Cell/Row decode on demand and keep a single decoded
// row cached.
type Sheet struct {
	BaseObject

	// Name is the name of the sheet.
	Name string

	// Book is a reference to the Book object to which this sheet belongs.
	Book *Book

	// NRows is the number of rows in sheet. A row index is in range(thesheet.NRows).
	NRows int

	// NCols is the nominal number of columns in sheet.
	// It is one more than the maximum column index found, ignoring trailing empty cells.
	NCols int

	// ColInfoMap is the map from a column index to a Colinfo object.
	ColInfoMap map[int]*ColInfo

	// RowInfoMap is the map from a row index to a Rowinfo object.
	RowInfoMap map[int]*RowInfo

	// ColLabelRanges is a list of address ranges of cells containing column labels.
	ColLabelRanges [][4]int

	// RowLabelRanges is a list of address ranges of cells containing row labels.
	RowLabelRanges [][4]int

	// MergedCells is a list of address ranges of cells which have been merged.
	MergedCells [][4]int

	// HyperlinkList is every HLINK record found on this sheet, in stream order.
	HyperlinkList []*Hyperlink

	// HyperlinkMap maps [row, col] to the hyperlink anchored there.
	HyperlinkMap map[[2]int]*Hyperlink

	// CellNoteMap maps [row, col] to the cell note (NOTE record) there.
	CellNoteMap map[[2]int]*Note

	// RichTextRunlistMap maps [row, col] to the rich-text run list of an
	// inline (non-shared) string cell. Runs are captured positionally
	// ([char offset, font index] pairs); run contents are never reinterpreted.
	RichTextRunlistMap map[[2]int][][]int

	// CachedPageBreakPreviewMagFactor is the zoom percentage recorded in
	// this sheet's WINDOW2 record for page-break-preview view.
	CachedPageBreakPreviewMagFactor int

	// CachedNormalViewMagFactor is the zoom percentage recorded in this
	// sheet's WINDOW2 record for normal view.
	CachedNormalViewMagFactor int

	dimLastRow int
	dimLastCol int

	rowAddrs map[int]*rowAddress

	cachedRowIndex int
	cachedRow      map[int]*Cell
}

// rowAddress records where a single row's cell records live in the
// underlying byte stream: rowBlockStart is where scanning for this row
// must begin, the start of the contiguous row-block run it belongs to.
type rowAddress struct {
	rowBlockStart int
}

// Hyperlink describes an HLINK record anchored to a cell range.
type Hyperlink struct {
	BaseObject

	FirstRow int
	LastRow  int
	FirstCol int
	LastCol  int

	// Type is a human label for the link kind ("url", "local file", or
	// "unknown") rather than the raw moniker bytes. UNC and in-workbook
	// links get no label of their own.
	Type string

	// URLOrPath is the target of the link (a URL, filesystem path, or
	// in-workbook reference), when it could be recovered.
	URLOrPath string

	// Description is the display text the link's author supplied, if any.
	Description string

	// TextMark is the target's location fragment (a named range, cell
	// reference, or similar), if any.
	TextMark string
}

// Note describes a NOTE (cell comment) record anchored to a cell. The
// comment text itself lives in a following TXO/CONTINUE run that this
// reader does not decode (see RichTextRunlistMap's non-goal).
type Note struct {
	BaseObject

	Row           int
	Col           int
	Author        string
	ShowByDefault bool
}

// ColInfo contains information about a column.
type ColInfo struct {
	BaseObject

	// Width is the column width.
	Width int

	// Hidden indicates if the column is hidden.
	Hidden bool

	// XFIndex is the index of the XF record for this column.
	XFIndex int
}

// RowInfo contains information about a row.
type RowInfo struct {
	BaseObject

	// Height is the row height.
	Height int

	// Hidden indicates if the row is hidden.
	Hidden bool

	// XFIndex is the index of the XF record for this row.
	XFIndex int
}

// Cell holds a single decoded cell.
type Cell struct {
	BaseObject

	// CType is the type of the cell.
	// One of: XL_CELL_EMPTY, XL_CELL_TEXT, XL_CELL_NUMBER, XL_CELL_DATE, XL_CELL_BOOLEAN, XL_CELL_ERROR, XL_CELL_BLANK
	CType int

	// Value is the value of the cell.
	Value interface{}

	// XFIndex is the index of the XF record for this cell.
	XFIndex int
}

// EmptyCell returns an empty cell.
func EmptyCell() *Cell {
	return &Cell{CType: XL_CELL_EMPTY}
}

// read walks this sheet's own record sub-stream, starting right after the
// per-sheet BOF that getSheet already consumed. It indexes row-block
// extents and a handful of sheet-level records (DIMENSION, MERGEDCELLS,
// WINDOW2, HLINK, NOTE); it never decodes cell values. That happens
// lazily, the first time a caller asks for a row.
func (s *Sheet) read(book *Book, streamEnd int) error {
	s.rowAddrs = make(map[int]*rowAddress)
	s.cachedRowIndex = -1

	var blockOpen bool
	var blockStart int

	closeBlock := func() {
		blockOpen = false
	}

	for {
		// A sheet whose declared (offset, length) range from the
		// sheet-directory pass has been exhausted without an XL_EOF ever
		// being seen has run into the next sheet's stream (or end of
		// file) instead of its own terminator.
		if streamEnd > 0 && book.position >= streamEnd {
			return newTruncatedStreamError(book.position)
		}

		code, length, data := book.getRecordParts()
		if data == nil {
			// getRecordParts returns a nil data slice on truncation,
			// whether the 4-byte header itself didn't fit (code == 0)
			// or the header was read but the declared payload didn't
			// (code is the real opcode). A genuine zero-length record
			// slices to a non-nil empty slice, so this never misfires
			// on one.
			return newTruncatedStreamError(book.position)
		}

		switch code {
		case XL_EOF:
			closeBlock()
			return nil

		case XL_DIMENSION, XL_DIMENSION2:
			s.handleDimension(data, book.BiffVersion)

		case XL_MERGEDCELLS:
			s.handleMergedCells(data)

		case XL_WINDOW2, XL_WINDOW2_B2:
			s.handleWindow2(data)

		case XL_HLINK:
			s.handleHyperlink(data)

		case XL_NOTE:
			s.handleNote(data, book)

		default:
			if IsRowBlockOpcode(code) || code == XL_STRING {
				if !blockOpen {
					blockOpen = true
					blockStart = book.position - 4 - length
				}
				if code == XL_ROW {
					s.handleRow(data, book.BiffVersion, blockStart)
				}
				if code == XL_DBCELL {
					// DBCELL terminates this row block; the next ROW
					// record belongs to a new block and needs its own
					// blockStart.
					closeBlock()
				}
			} else {
				closeBlock()
			}
		}
	}
}

// handleDimension records the sheet's nominal row/column extent and seeds
// NRows/NCols from it; row-block scanning refines NRows further as actual
// ROW records are seen (DIMENSION's upper bound can lag reality).
func (s *Sheet) handleDimension(data []byte, biffVersion int) {
	if biffVersion >= 80 {
		if len(data) < 14 {
			return
		}
		s.dimLastRow = int(binary.LittleEndian.Uint32(data[4:8]))
		s.dimLastCol = int(binary.LittleEndian.Uint16(data[10:12]))
	} else {
		if len(data) < 10 {
			return
		}
		s.dimLastRow = int(binary.LittleEndian.Uint16(data[2:4]))
		s.dimLastCol = int(binary.LittleEndian.Uint16(data[6:8]))
	}
	// BIFF8's own row/column limits (65536 rows, 256 columns) bound these
	// regardless of what a corrupt DIMENSION record claims; consumers
	// (e.g. cmd/xls2csv) trust NRows/NCols directly as loop bounds.
	const maxBiffRows = 1 << 16
	const maxBiffCols = 1 << 8
	if s.dimLastRow > s.NRows {
		s.NRows = s.dimLastRow
	}
	if s.NRows > maxBiffRows {
		s.NRows = maxBiffRows
	}
	if s.dimLastCol > s.NCols {
		s.NCols = s.dimLastCol
	}
	if s.NCols > maxBiffCols {
		s.NCols = maxBiffCols
	}
}

// handleRow records a RowInfo and indexes this row's row-block start for
// later lazy decoding.
func (s *Sheet) handleRow(data []byte, biffVersion int, blockStart int) {
	if len(data) < 2 {
		return
	}
	rowx := int(binary.LittleEndian.Uint16(data[0:2]))

	info := &RowInfo{}
	if len(data) >= 16 && biffVersion >= 50 {
		grbit := int(binary.LittleEndian.Uint16(data[12:14]))
		info.Hidden = grbit&0x20 != 0
		heightRaw := int(binary.LittleEndian.Uint16(data[6:8]))
		info.Height = heightRaw &^ 0x8000
		ixfeRaw := int(binary.LittleEndian.Uint16(data[14:16]))
		info.XFIndex = ixfeRaw & 0x0FFF
	} else if len(data) >= 8 {
		heightRaw := int(binary.LittleEndian.Uint16(data[6:8]))
		info.Height = heightRaw &^ 0x8000
	}
	s.RowInfoMap[rowx] = info

	if rowx+1 > s.NRows {
		s.NRows = rowx + 1
	}

	if addr, ok := s.rowAddrs[rowx]; ok {
		addr.rowBlockStart = blockStart
	} else {
		s.rowAddrs[rowx] = &rowAddress{rowBlockStart: blockStart}
	}
}

// handleMergedCells records each merged range as [firstRow, lastRow,
// firstCol, lastCol], matching the address-range shape used elsewhere on
// Sheet (ColLabelRanges, RowLabelRanges).
func (s *Sheet) handleMergedCells(data []byte) {
	if len(data) < 2 {
		return
	}
	count := int(binary.LittleEndian.Uint16(data[0:2]))
	pos := 2
	for i := 0; i < count; i++ {
		if pos+8 > len(data) {
			break
		}
		firstRow := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		lastRow := int(binary.LittleEndian.Uint16(data[pos+2 : pos+4]))
		firstCol := int(binary.LittleEndian.Uint16(data[pos+4 : pos+6]))
		lastCol := int(binary.LittleEndian.Uint16(data[pos+6 : pos+8]))
		// The record's own rwLast/colLast are inclusive; store as an
		// exclusive upper bound, matching NCols/ColLabelRanges/RowLabelRanges.
		s.MergedCells = append(s.MergedCells, [4]int{firstRow, lastRow + 1, firstCol, lastCol + 1})
		pos += 8
	}
}

// handleWindow2 pulls the two cached zoom-factor fields out of a WINDOW2
// record. Both are 0 in files saved without an explicit zoom override, in
// which case 100% stands.
func (s *Sheet) handleWindow2(data []byte) {
	if len(data) < 12 {
		return
	}
	// grbit@0, rwTop@2, colLeft@4, icvHdr@6, then the two zoom words;
	// 4+ bytes of reserved padding follow through the end of the record.
	pbPreview := int(binary.LittleEndian.Uint16(data[8:10]))
	normal := int(binary.LittleEndian.Uint16(data[10:12]))
	if pbPreview != 0 {
		s.CachedPageBreakPreviewMagFactor = pbPreview
	}
	if normal != 0 {
		s.CachedNormalViewMagFactor = normal
	}
}

// decodeUTF16TrimNUL decodes UTF-16LE code units to a string, dropping a
// trailing NUL terminator if present. Shared by handleHyperlink's
// description/target and URL-moniker decode paths, which disagree on how
// the character count is framed but agree on this tail.
func decodeUTF16TrimNUL(words []uint16) string {
	for len(words) > 0 && words[len(words)-1] == 0 {
		words = words[:len(words)-1]
	}
	return string(utf16.Decode(words))
}

// handleHyperlink decodes an HLINK record's anchor range and whichever of
// its target/description fields are present. HLINK bodies are a
// Microsoft "StdHlink" structure; only the pieces actually useful to a
// reader (the target and its display text) are extracted.
func (s *Sheet) handleHyperlink(data []byte) {
	if len(data) < 8 {
		return
	}
	firstRow := int(binary.LittleEndian.Uint16(data[0:2]))
	lastRow := int(binary.LittleEndian.Uint16(data[2:4]))
	firstCol := int(binary.LittleEndian.Uint16(data[4:6]))
	lastCol := int(binary.LittleEndian.Uint16(data[6:8]))

	link := &Hyperlink{
		FirstRow: firstRow,
		LastRow:  lastRow,
		FirstCol: firstCol,
		LastCol:  lastCol,
		Type:     "unknown",
	}

	if len(data) >= 32 {
		flags := int(binary.LittleEndian.Uint32(data[28:32]))
		pos := 32

		readUTF16 := func() string {
			if pos+4 > len(data) {
				return ""
			}
			n := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
			pos += 4
			if n <= 0 || pos+2*n > len(data) {
				return ""
			}
			words := make([]uint16, n)
			for i := 0; i < n; i++ {
				words[i] = binary.LittleEndian.Uint16(data[pos+2*i : pos+2*i+2])
			}
			pos += 2 * n
			return decodeUTF16TrimNUL(words)
		}

		const hlinkkDesc = 0x14
		const hlinkkURL = 0x01
		const hlinkkTarget = 0x02
		if flags&hlinkkDesc != 0 {
			link.Description = readUTF16()
		}
		if flags&hlinkkURL != 0 {
			link.Type = "url"
			// A URL moniker is a 16-byte class GUID followed by a
			// byte-length-prefixed (not char-count-prefixed) UTF-16LE
			// string, unlike readUTF16 above.
			if pos+16 <= len(data) {
				pos += 16
				if pos+4 <= len(data) {
					byteLen := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
					pos += 4
					if byteLen > 0 && pos+byteLen <= len(data) {
						n := byteLen / 2
						words := make([]uint16, n)
						for i := 0; i < n; i++ {
							words[i] = binary.LittleEndian.Uint16(data[pos+2*i : pos+2*i+2])
						}
						link.URLOrPath = decodeUTF16TrimNUL(words)
					}
				}
			}
		} else if flags&hlinkkTarget != 0 {
			link.Type = "local file"
			// The file-moniker layout (up-directory count, ANSI path tail,
			// optional extra data) isn't decoded; URLOrPath is left blank
			// for this link type.
		}
	}

	s.HyperlinkList = append(s.HyperlinkList, link)
	if s.HyperlinkMap == nil {
		s.HyperlinkMap = make(map[[2]int]*Hyperlink)
	}
	// firstRow/lastRow/firstCol/lastCol come straight from the file; a
	// corrupt or hostile HLINK anchor range must not be allowed to drive
	// an unbounded number of map insertions. Real worksheets never anchor
	// one hyperlink across more than a handful of cells, so clamp the
	// expanded range to the sheet's own declared dimensions.
	if lastRow >= firstRow && lastCol >= firstCol {
		maxRow := lastRow
		if s.NRows > 0 && maxRow >= s.NRows {
			maxRow = s.NRows - 1
		}
		maxCol := lastCol
		if s.NCols > 0 && maxCol >= s.NCols {
			maxCol = s.NCols - 1
		}
		const maxHyperlinkCells = 1 << 16
		for r := firstRow; r <= maxRow; r++ {
			for c := firstCol; c <= maxCol; c++ {
				if len(s.HyperlinkMap) >= maxHyperlinkCells {
					return
				}
				s.HyperlinkMap[[2]int{r, c}] = link
			}
		}
	}
}

// handleNote decodes a NOTE record's anchor and author; the comment text
// itself, when present, trails in one or more following TXO/CONTINUE
// records that this reader does not interpret, per the rich-text-run
// non-goal.
func (s *Sheet) handleNote(data []byte, book *Book) {
	if len(data) < 6 {
		return
	}
	row := int(binary.LittleEndian.Uint16(data[0:2]))
	col := int(binary.LittleEndian.Uint16(data[2:4]))
	flags := int(binary.LittleEndian.Uint16(data[4:6]))

	note := &Note{Row: row, Col: col, ShowByDefault: flags&0x02 != 0}
	if book.BiffVersion >= 80 && len(data) >= 8 {
		authorLen := int(binary.LittleEndian.Uint16(data[6:8]))
		if str, _, err := UnpackUnicodeUpdatePos(data, 8, 2, &authorLen); err == nil {
			note.Author = str
		}
	}

	if s.CellNoteMap == nil {
		s.CellNoteMap = make(map[[2]int]*Note)
	}
	s.CellNoteMap[[2]int{row, col}] = note
}

// row materializes (and caches) the decoded cells of rowx, by seeking to
// that row's block start and walking forward through its cell records.
// Re-requesting the same row is free; requesting a different row evicts
// the cache and re-seeks exactly once.
func (s *Sheet) row(rowx int) map[int]*Cell {
	if s.cachedRowIndex == rowx && s.cachedRow != nil {
		return s.cachedRow
	}

	cells := make(map[int]*Cell)
	s.cachedRowIndex = rowx
	s.cachedRow = cells

	addr, ok := s.rowAddrs[rowx]
	if !ok {
		return cells
	}

	book := s.Book
	pos := addr.rowBlockStart
	found := false

	for {
		if pos+4 > len(book.mem) {
			break
		}
		code := int(binary.LittleEndian.Uint16(book.mem[pos : pos+2]))
		length := int(binary.LittleEndian.Uint16(book.mem[pos+2 : pos+4]))
		recStart := pos
		dataStart := pos + 4
		if dataStart+length > len(book.mem) {
			break
		}
		data := book.mem[dataStart : dataStart+length]
		nextPos := dataStart + length

		switch {
		case code == XL_EOF || code == XL_DBCELL:
			return cells
		case code == XL_ROW:
			if found {
				return cells
			}
			pos = nextPos
			continue
		case code == XL_FORMULA || code == XL_FORMULA3 || code == XL_FORMULA4:
			if len(data) < 2 || int(binary.LittleEndian.Uint16(data[0:2])) != rowx {
				if found {
					return cells
				}
				pos = nextPos
				continue
			}
			found = true
			consumed := s.decodeFormula(data, recStart, book)
			pos = recStart + 4 + consumed
			continue
		case code == XL_LABEL || code == XL_RSTRING:
			if len(data) < 2 || int(binary.LittleEndian.Uint16(data[0:2])) != rowx {
				if found {
					return cells
				}
				pos = nextPos
				continue
			}
			found = true
			if book.BiffVersion >= 80 {
				chunks, afterContinues := mergeContinueChunks(book, data, nextPos)
				s.decodeLabelOrRStringChunks(code, chunks, cells)
				pos = afterContinues
			} else {
				merged, afterContinues := mergeContinueData(book, data, nextPos)
				s.decodeCellRecord(code, merged, cells, book)
				pos = afterContinues
			}
			continue
		case IsCellOpcode(code):
			if len(data) < 2 || int(binary.LittleEndian.Uint16(data[0:2])) != rowx {
				if found {
					return cells
				}
				pos = nextPos
				continue
			}
			found = true
			s.decodeCellRecord(code, data, cells, book)
		}
		pos = nextPos
	}
	return cells
}

// mergeContinueData extends data with the payloads of any XL_CONTINUE
// records immediately following it in the stream, for a LABEL/RSTRING
// whose declared character count overflows its own record. Returns the
// merged bytes and the stream position just past the last record
// consumed (the caller's new cursor).
func mergeContinueData(book *Book, data []byte, nextPos int) ([]byte, int) {
	for {
		if nextPos+4 > len(book.mem) {
			return data, nextPos
		}
		code := int(binary.LittleEndian.Uint16(book.mem[nextPos : nextPos+2]))
		if code != XL_CONTINUE {
			return data, nextPos
		}
		length := int(binary.LittleEndian.Uint16(book.mem[nextPos+2 : nextPos+4]))
		dataStart := nextPos + 4
		if dataStart+length > len(book.mem) {
			return data, nextPos
		}
		data = append(append([]byte{}, data...), book.mem[dataStart:dataStart+length]...)
		nextPos = dataStart + length
	}
}

// mergeContinueChunks collects the payloads of any XL_CONTINUE records
// immediately following data, as separate chunks rather than one
// concatenated buffer. Each such chunk restarts with its own
// compressed/uncompressed flag byte — the rule UnpackSSTTable already
// follows for SST strings, but a LABEL/RSTRING spanning a CONTINUE
// boundary needs the same per-chunk handling, so chunk boundaries must
// survive into the decoder rather than being flattened away.
func mergeContinueChunks(book *Book, data []byte, nextPos int) ([][]byte, int) {
	chunks := [][]byte{data}
	for {
		if nextPos+4 > len(book.mem) {
			return chunks, nextPos
		}
		code := int(binary.LittleEndian.Uint16(book.mem[nextPos : nextPos+2]))
		if code != XL_CONTINUE {
			return chunks, nextPos
		}
		length := int(binary.LittleEndian.Uint16(book.mem[nextPos+2 : nextPos+4]))
		dataStart := nextPos + 4
		if dataStart+length > len(book.mem) {
			return chunks, nextPos
		}
		chunks = append(chunks, book.mem[dataStart:dataStart+length])
		nextPos = dataStart + length
	}
}

// decodeContinuedUnicodeString decodes a BIFF8 unicode string whose
// character data (and, for richtext, its trailing rgRun array) may run
// into chunks beyond the first. chunks[0] holds the record's own bytes;
// chunks[1:] are raw XL_CONTINUE payloads in stream order, each starting
// fresh with its own compressed/uncompressed flag byte. lenPos/lenlen
// locate the character count within chunks[0]; pass knownLen instead when
// the count is already known (e.g. an SST-indexed string has none of its
// own, unlike a LABEL/RSTRING). Mirrors UnpackSSTTable's per-chunk
// character loop, which already handles this for shared strings.
func decodeContinuedUnicodeString(chunks [][]byte, lenPos int, lenlen int, knownLen *int) (string, [][]int, error) {
	if len(chunks) == 0 {
		return "", nil, fmt.Errorf("no data")
	}

	data := chunks[0]
	pos := lenPos

	var nchars int
	if knownLen != nil {
		nchars = *knownLen
	} else {
		if pos+lenlen > len(data) {
			return "", nil, fmt.Errorf("insufficient data for unicode length")
		}
		if lenlen == 1 {
			nchars = int(data[pos])
		} else {
			nchars = int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		}
		pos += lenlen
	}

	if nchars == 0 {
		return "", nil, nil
	}
	if pos >= len(data) {
		return "", nil, fmt.Errorf("insufficient data for unicode options")
	}

	options := data[pos]
	pos++

	phonetic := options&0x04 != 0
	richtext := options&0x08 != 0

	var rtcount, phosz int
	if richtext {
		if pos+2 > len(data) {
			return "", nil, fmt.Errorf("insufficient data for richtext")
		}
		rtcount = int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2
	}
	if phonetic {
		if pos+4 > len(data) {
			return "", nil, fmt.Errorf("insufficient data for phonetic")
		}
		phosz = int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
	}

	datainx := 0
	ndatas := len(chunks)
	datalen := len(data)

	accstrg := ""
	charsgot := 0
	for charsgot < nchars {
		charsneed := nchars - charsgot
		var charsavail int
		if options&0x01 != 0 {
			charsavail = min((datalen-pos)>>1, charsneed)
			if charsavail > 0 {
				rawstrg := data[pos : pos+2*charsavail]
				words := make([]uint16, charsavail)
				for j := 0; j < charsavail; j++ {
					words[j] = binary.LittleEndian.Uint16(rawstrg[j*2 : (j+1)*2])
				}
				accstrg += string(utf16.Decode(words))
				pos += 2 * charsavail
			}
		} else {
			charsavail = min(datalen-pos, charsneed)
			if charsavail > 0 {
				rawstrg := data[pos : pos+charsavail]
				utf8Bytes, err := charmap.ISO8859_1.NewDecoder().Bytes(rawstrg)
				if err != nil {
					accstrg += string(rawstrg)
				} else {
					accstrg += string(utf8Bytes)
				}
				pos += charsavail
			}
		}
		charsgot += charsavail

		if charsgot >= nchars {
			break
		}
		datainx++
		if datainx >= ndatas {
			break
		}
		data = chunks[datainx]
		datalen = len(data)
		if datalen == 0 {
			continue
		}
		options = data[0]
		pos = 1
	}

	var runs [][]int
	if rtcount > 0 {
		runs = make([][]int, 0, rtcount)
		for i := 0; i < rtcount; i++ {
			if pos+4 > datalen {
				if pos >= datalen {
					datainx++
					if datainx >= ndatas {
						break
					}
					data = chunks[datainx]
					datalen = len(data)
					pos = 0
				}
				if pos+4 > datalen {
					break
				}
			}
			runs = append(runs, []int{
				int(binary.LittleEndian.Uint16(data[pos : pos+2])),
				int(binary.LittleEndian.Uint16(data[pos+2 : pos+4])),
			})
			pos += 4
		}
	}

	if phosz > 0 {
		remaining := phosz
		for remaining > 0 && datainx < ndatas {
			avail := datalen - pos
			if avail <= 0 {
				datainx++
				if datainx >= ndatas {
					break
				}
				data = chunks[datainx]
				datalen = len(data)
				pos = 0
				continue
			}
			take := avail
			if take > remaining {
				take = remaining
			}
			pos += take
			remaining -= take
		}
	}

	return accstrg, runs, nil
}

// decodeLabelOrRStringChunks decodes a BIFF8 LABEL or RSTRING record whose
// character data may span XL_CONTINUE chunks, via decodeContinuedUnicodeString
// rather than a flattened byte buffer.
func (s *Sheet) decodeLabelOrRStringChunks(code int, chunks [][]byte, cells map[int]*Cell) {
	if len(chunks) == 0 || len(chunks[0]) < 6 {
		return
	}
	head := chunks[0]
	rowx := int(binary.LittleEndian.Uint16(head[0:2]))
	colx := int(binary.LittleEndian.Uint16(head[2:4]))
	xfIndex := int(binary.LittleEndian.Uint16(head[4:6]))

	str, runs, err := decodeContinuedUnicodeString(chunks, 6, 2, nil)
	if err != nil {
		str = ""
	}
	cells[colx] = &Cell{CType: XL_CELL_TEXT, Value: str, XFIndex: xfIndex}

	if code == XL_RSTRING && len(runs) > 0 {
		if s.RichTextRunlistMap == nil {
			s.RichTextRunlistMap = make(map[[2]int][][]int)
		}
		s.RichTextRunlistMap[[2]int{rowx, colx}] = runs
	}
}

// decodeCellRecord dispatches a single non-FORMULA cell opcode into zero
// or more populated cells.
func (s *Sheet) decodeCellRecord(code int, data []byte, cells map[int]*Cell, book *Book) {
	switch code {
	case XL_BLANK:
		if len(data) < 6 {
			return
		}
		colx := int(binary.LittleEndian.Uint16(data[2:4]))
		xfIndex := int(binary.LittleEndian.Uint16(data[4:6]))
		cells[colx] = &Cell{CType: XL_CELL_BLANK, XFIndex: xfIndex}

	case XL_BOOLERR:
		if len(data) < 8 {
			return
		}
		colx := int(binary.LittleEndian.Uint16(data[2:4]))
		xfIndex := int(binary.LittleEndian.Uint16(data[4:6]))
		value := data[6]
		isError := data[7]
		if isError != 0 {
			cells[colx] = &Cell{CType: XL_CELL_ERROR, Value: int(value), XFIndex: xfIndex}
		} else {
			cells[colx] = &Cell{CType: XL_CELL_BOOLEAN, Value: value != 0, XFIndex: xfIndex}
		}

	case XL_LABEL:
		if len(data) < 6 {
			return
		}
		colx := int(binary.LittleEndian.Uint16(data[2:4]))
		xfIndex := int(binary.LittleEndian.Uint16(data[4:6]))
		var str string
		var err error
		if book.BiffVersion >= 80 {
			str, err = UnpackUnicode(data, 6, 2)
		} else {
			str, err = UnpackString(data, 6, book.Encoding, 2)
		}
		if err != nil {
			str = ""
		}
		cells[colx] = &Cell{CType: XL_CELL_TEXT, Value: str, XFIndex: xfIndex}

	case XL_RSTRING:
		if len(data) < 6 {
			return
		}
		rowx := int(binary.LittleEndian.Uint16(data[0:2]))
		colx := int(binary.LittleEndian.Uint16(data[2:4]))
		xfIndex := int(binary.LittleEndian.Uint16(data[4:6]))
		str, _, runs, err := UnpackUnicodeUpdatePosRuns(data, 6, 2, nil)
		if err != nil {
			str = ""
		}
		cells[colx] = &Cell{CType: XL_CELL_TEXT, Value: str, XFIndex: xfIndex}
		if len(runs) > 0 {
			if s.RichTextRunlistMap == nil {
				s.RichTextRunlistMap = make(map[[2]int][][]int)
			}
			s.RichTextRunlistMap[[2]int{rowx, colx}] = runs
		}

	case XL_LABELSST:
		if len(data) < 10 {
			return
		}
		colx := int(binary.LittleEndian.Uint16(data[2:4]))
		xfIndex := int(binary.LittleEndian.Uint16(data[4:6]))
		sstIndex := int(binary.LittleEndian.Uint32(data[6:10]))
		var str string
		if sstIndex >= 0 && sstIndex < len(book.sharedStrings) {
			str = book.sharedStrings[sstIndex]
		}
		cells[colx] = &Cell{CType: XL_CELL_TEXT, Value: str, XFIndex: xfIndex}

	case XL_NUMBER:
		if len(data) < 14 {
			return
		}
		colx := int(binary.LittleEndian.Uint16(data[2:4]))
		xfIndex := int(binary.LittleEndian.Uint16(data[4:6]))
		value := decodeDouble(data, 6)
		cells[colx] = &Cell{CType: book.numericCellType(xfIndex), Value: value, XFIndex: xfIndex}

	case XL_RK:
		if len(data) < 10 {
			return
		}
		colx := int(binary.LittleEndian.Uint16(data[2:4]))
		xfIndex := int(binary.LittleEndian.Uint16(data[4:6]))
		value := decodeRKBytes(data, 6)
		cells[colx] = &Cell{CType: book.numericCellType(xfIndex), Value: value, XFIndex: xfIndex}

	case XL_MULBLANK:
		if len(data) < 4 {
			return
		}
		firstCol := int(binary.LittleEndian.Uint16(data[2:4]))
		pos := 4
		colx := firstCol
		for pos+2 <= len(data)-2 {
			xfIndex := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
			cells[colx] = &Cell{CType: XL_CELL_BLANK, XFIndex: xfIndex}
			pos += 2
			colx++
		}

	case XL_MULRK:
		if len(data) < 4 {
			return
		}
		firstCol := int(binary.LittleEndian.Uint16(data[2:4]))
		pos := 4
		colx := firstCol
		for pos+6 <= len(data)-2 {
			xfIndex := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
			value := decodeRKBytes(data, pos+2)
			cells[colx] = &Cell{CType: book.numericCellType(xfIndex), Value: value, XFIndex: xfIndex}
			pos += 6
			colx++
		}
	}
}

// numericCellType resolves an XF index through xfIndexToXLTypeMap,
// distinguishing an ordinary number from a date-formatted one; it
// defaults to XL_CELL_NUMBER for an XF index that has no entry in that
// map. The map is filled from XF records whether or not formattingInfo
// is set.
func (b *Book) numericCellType(xfIndex int) int {
	if ty, ok := b.xfIndexToXLTypeMap[xfIndex]; ok && (ty == XL_CELL_DATE || ty == XL_CELL_NUMBER) {
		return ty
	}
	return XL_CELL_NUMBER
}

// decodeFormula implements the FORMULA record's result-slot dispatch and
// the follow-up STRING peek for string-valued formulas. It returns the
// number of bytes of the FORMULA record's own body (not counting any
// following STRING record) so the caller can resume scanning immediately
// after it.
func (s *Sheet) decodeFormula(data []byte, recStart int, book *Book) int {
	if len(data) < 20 {
		return len(data)
	}
	colx := int(binary.LittleEndian.Uint16(data[2:4]))
	xfIndex := int(binary.LittleEndian.Uint16(data[4:6]))

	sentinel := data[12:14]
	isSpecial := sentinel[0] == 0xFF && sentinel[1] == 0xFF

	cell := &Cell{XFIndex: xfIndex}

	if !isSpecial {
		cell.CType = book.numericCellType(xfIndex)
		cell.Value = decodeDouble(data, 6)
	} else {
		switch data[6] {
		case 0:
			// String result: the actual text is in the STRING record that
			// must immediately follow. Peek it; if absent, substitute an
			// error value and leave the stream where it was.
			afterFormula := recStart + 4 + len(data)
			code, length, strData := peekRecord(book, afterFormula)
			if code == XL_STRING && strData != nil {
				var str string
				var err error
				if book.BiffVersion >= 80 {
					str, err = UnpackUnicode(strData, 0, 2)
				} else {
					str, err = UnpackString(strData, 0, book.Encoding, 2)
				}
				if err != nil {
					str = ""
				}
				cell.CType = XL_CELL_TEXT
				cell.Value = str
				if s.cachedRow != nil {
					s.cachedRow[colx] = cell
				}
				return len(data) + 4 + length
			}
			if book.verbosity > 0 {
				fmt.Fprintf(book.logfile, "WARNING *** %s\n", newMissingFollowUpStringError())
			}
			cell.CType = XL_CELL_ERROR
			cell.Value = 0x2A
		case 1:
			cell.CType = XL_CELL_BOOLEAN
			cell.Value = data[8] != 0
		case 2:
			cell.CType = XL_CELL_ERROR
			cell.Value = int(data[8])
		case 3:
			cell.CType = XL_CELL_EMPTY
		default:
			// Type byte > 3 isn't one of the defined special-result kinds;
			// treat it as a non-special numeric result, same as !isSpecial.
			cell.CType = book.numericCellType(xfIndex)
			cell.Value = decodeDouble(data, 6)
		}
	}

	if s.cachedRow != nil {
		s.cachedRow[colx] = cell
	}
	return len(data)
}

// peekRecord reads the record header and body starting at byte offset
// pos of book.mem without disturbing book.position, so a FORMULA result's
// trailing STRING record can be inspected and, if it is not actually a
// STRING record, left untouched for normal scanning to process next.
func peekRecord(book *Book, pos int) (int, int, []byte) {
	if pos+4 > len(book.mem) {
		return 0, 0, nil
	}
	code := int(binary.LittleEndian.Uint16(book.mem[pos : pos+2]))
	length := int(binary.LittleEndian.Uint16(book.mem[pos+2 : pos+4]))
	if pos+4+length > len(book.mem) {
		return code, 0, nil
	}
	return code, length, book.mem[pos+4 : pos+4+length]
}

// CellValue returns the value of the cell at the given row and column.
func (s *Sheet) CellValue(rowx, colx int) interface{} {
	return s.Cell(rowx, colx).Value
}

// CellType returns the type of the cell at the given row and column.
func (s *Sheet) CellType(rowx, colx int) int {
	return s.Cell(rowx, colx).CType
}

// CellXFIndex returns the XF index of the cell at the given row and column.
func (s *Sheet) CellXFIndex(rowx, colx int) int {
	return s.Cell(rowx, colx).XFIndex
}

// Cell returns the Cell object at the given row and column, redirecting
// to the anchor cell of a merged range when rowx/colx falls inside one
// but is not itself the anchor.
func (s *Sheet) Cell(rowx, colx int) *Cell {
	for _, rng := range s.MergedCells {
		firstRow, lastRow, firstCol, lastCol := rng[0], rng[1], rng[2], rng[3]
		if rowx >= firstRow && rowx < lastRow && colx >= firstCol && colx < lastCol {
			if rowx != firstRow || colx != firstCol {
				return s.RawCell(firstRow, firstCol)
			}
			break
		}
	}
	return s.RawCell(rowx, colx)
}

// RawCellValue returns the value of the cell at the given row and column,
// without merged-cell redirection.
func (s *Sheet) RawCellValue(rowx, colx int) interface{} {
	return s.RawCell(rowx, colx).Value
}

// RawCellType returns the type of the cell at the given row and column,
// without merged-cell redirection.
func (s *Sheet) RawCellType(rowx, colx int) int {
	return s.RawCell(rowx, colx).CType
}

// RawCellXFIndex returns the XF index of the cell at the given row and
// column, without merged-cell redirection.
func (s *Sheet) RawCellXFIndex(rowx, colx int) int {
	return s.RawCell(rowx, colx).XFIndex
}

// RawCell returns the cell actually stored at rowx/colx, never following
// a merged range to its anchor.
func (s *Sheet) RawCell(rowx, colx int) *Cell {
	cells := s.row(rowx)
	if cell, ok := cells[colx]; ok {
		return cell
	}
	return EmptyCell()
}

// Row returns a slice of Cell objects for the given row, one entry per
// column from 0 to NCols-1, with unset columns reported as empty cells.
// When the book was opened with RaggedRows, the slice is RowLen(rowx)
// long instead.
func (s *Sheet) Row(rowx int) []*Cell {
	cells := s.row(rowx)
	width := s.NCols
	if s.Book != nil && s.Book.raggedRows {
		width = s.RowLen(rowx)
	}
	out := make([]*Cell, width)
	for colx := 0; colx < width; colx++ {
		if cell, ok := cells[colx]; ok {
			out[colx] = cell
		} else {
			out[colx] = EmptyCell()
		}
	}
	return out
}

// RowLen returns one more than the highest column index that has a cell
// recorded in rowx, or 0 if it has none (not the nominal column count;
// trailing empty columns are never reported).
func (s *Sheet) RowLen(rowx int) int {
	cells := s.row(rowx)
	max := -1
	for colx := range cells {
		if colx > max {
			max = colx
		}
	}
	return max + 1
}
