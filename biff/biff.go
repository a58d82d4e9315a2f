package biff

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// UnpackString unpacks a string from BIFF data.
func UnpackString(data []byte, pos int, encoding string, lenlen int) (string, error) {
	if pos+lenlen > len(data) {
		return "", fmt.Errorf("insufficient data for string length")
	}

	var nchars int
	if lenlen == 1 {
		nchars = int(data[pos])
	} else {
		nchars = int(binary.LittleEndian.Uint16(data[pos : pos+2]))
	}
	pos += lenlen

	if pos+nchars > len(data) {
		return "", fmt.Errorf("insufficient data for string")
	}

	strBytes := data[pos : pos+nchars]

	// Convert based on encoding
	if encoding == "utf_16_le" {
		if len(strBytes)%2 != 0 {
			return "", fmt.Errorf("invalid UTF-16 string length")
		}
		words := make([]uint16, len(strBytes)/2)
		for i := 0; i < len(words); i++ {
			words[i] = binary.LittleEndian.Uint16(strBytes[i*2 : (i+1)*2])
		}
		return string(utf16.Decode(words)), nil
	}

	return decodeNonUnicodeString(strBytes, encoding), nil
}

// UnpackStringUpdatePos unpacks a string and returns the updated position.
func UnpackStringUpdatePos(data []byte, pos int, encoding string, lenlen int, knownLen *int) (string, int, error) {
	var nchars int
	if knownLen != nil {
		nchars = *knownLen
	} else {
		if pos+lenlen > len(data) {
			return "", pos, fmt.Errorf("insufficient data for string length")
		}
		if lenlen == 1 {
			nchars = int(data[pos])
		} else {
			nchars = int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		}
		pos += lenlen
	}

	if pos+nchars > len(data) {
		return "", pos, fmt.Errorf("insufficient data for string")
	}

	strBytes := data[pos : pos+nchars]
	newPos := pos + nchars

	// Convert based on encoding
	if encoding == "utf_16_le" {
		if len(strBytes)%2 != 0 {
			return "", newPos, fmt.Errorf("invalid UTF-16 string length")
		}
		words := make([]uint16, len(strBytes)/2)
		for i := 0; i < len(words); i++ {
			words[i] = binary.LittleEndian.Uint16(strBytes[i*2 : (i+1)*2])
		}
		return string(utf16.Decode(words)), newPos, nil
	}

	return decodeNonUnicodeString(strBytes, encoding), newPos, nil
}

// UnpackUnicode unpacks a Unicode string from BIFF data.
func UnpackUnicode(data []byte, pos int, lenlen int) (string, error) {
	if pos+lenlen > len(data) {
		return "", fmt.Errorf("insufficient data for unicode length")
	}

	var nchars int
	if lenlen == 1 {
		nchars = int(data[pos])
	} else {
		nchars = int(binary.LittleEndian.Uint16(data[pos : pos+2]))
	}
	pos += lenlen

	if nchars == 0 {
		return "", nil
	}

	if pos >= len(data) {
		return "", fmt.Errorf("insufficient data for unicode options")
	}

	options := data[pos]
	pos++

	// Handle richtext and phonetic flags
	if options&0x08 != 0 {
		// richtext
		if pos+2 > len(data) {
			return "", fmt.Errorf("insufficient data for richtext")
		}
		pos += 2
	}
	if options&0x04 != 0 {
		// phonetic
		if pos+4 > len(data) {
			return "", fmt.Errorf("insufficient data for phonetic")
		}
		pos += 4
	}

	if options&0x01 != 0 {
		// Uncompressed UTF-16-LE
		if pos+2*nchars > len(data) {
			return "", fmt.Errorf("insufficient data for UTF-16 string")
		}
		rawstrg := data[pos : pos+2*nchars]
		words := make([]uint16, nchars)
		for i := 0; i < nchars; i++ {
			words[i] = binary.LittleEndian.Uint16(rawstrg[i*2 : (i+1)*2])
		}
		return string(utf16.Decode(words)), nil
	} else {
		// Compressed (Latin-1)
		if pos+nchars > len(data) {
			return "", fmt.Errorf("insufficient data for compressed string")
		}
		latin1Bytes := data[pos : pos+nchars]
		utf8Bytes, err := charmap.ISO8859_1.NewDecoder().Bytes(latin1Bytes)
		if err != nil {
			return "", fmt.Errorf("failed to decode Latin-1: %v", err)
		}
		return string(utf8Bytes), nil
	}
}

// UnpackUnicodeUpdatePos unpacks a Unicode string and returns the updated position.
func UnpackUnicodeUpdatePos(data []byte, pos int, lenlen int, knownLen *int) (string, int, error) {
	str, newPos, _, err := unpackUnicodeUpdatePosRuns(data, pos, lenlen, knownLen)
	return str, newPos, err
}

// UnpackUnicodeUpdatePosRuns is UnpackUnicodeUpdatePos plus the rich-text
// run list trailing the character array, as [charOffset, fontIndex] pairs
// (the same shape UnpackSSTTable captures for shared-string runs).
func UnpackUnicodeUpdatePosRuns(data []byte, pos int, lenlen int, knownLen *int) (string, int, [][]int, error) {
	return unpackUnicodeUpdatePosRuns(data, pos, lenlen, knownLen)
}

func unpackUnicodeUpdatePosRuns(data []byte, pos int, lenlen int, knownLen *int) (string, int, [][]int, error) {
	var nchars int
	if knownLen != nil {
		nchars = *knownLen
	} else {
		if pos+lenlen > len(data) {
			return "", pos, nil, fmt.Errorf("insufficient data for unicode length")
		}
		if lenlen == 1 {
			nchars = int(data[pos])
		} else {
			nchars = int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		}
		pos += lenlen
	}

	if nchars == 0 {
		return "", pos, nil, nil
	}

	if pos >= len(data) {
		return "", pos, nil, fmt.Errorf("insufficient data for unicode options")
	}

	options := data[pos]
	pos++

	phonetic := (options & 0x04) != 0
	richtext := (options & 0x08) != 0

	var rtRunCount, phoneticSize int
	if richtext {
		if pos+2 > len(data) {
			return "", pos, nil, fmt.Errorf("insufficient data for richtext")
		}
		rtRunCount = int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2
	}
	if phonetic {
		if pos+4 > len(data) {
			return "", pos, nil, fmt.Errorf("insufficient data for phonetic")
		}
		phoneticSize = int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
	}

	var str string
	if options&0x01 != 0 {
		// Uncompressed UTF-16-LE
		if pos+2*nchars > len(data) {
			return "", pos, nil, fmt.Errorf("insufficient data for UTF-16 string")
		}
		rawstrg := data[pos : pos+2*nchars]
		words := make([]uint16, nchars)
		for i := 0; i < nchars; i++ {
			words[i] = binary.LittleEndian.Uint16(rawstrg[i*2 : (i+1)*2])
		}
		str = string(utf16.Decode(words))
		pos += 2 * nchars
	} else {
		// Compressed (Latin-1)
		if pos+nchars > len(data) {
			return "", pos, nil, fmt.Errorf("insufficient data for compressed string")
		}
		latin1Bytes := data[pos : pos+nchars]
		utf8Bytes, err := charmap.ISO8859_1.NewDecoder().Bytes(latin1Bytes)
		if err != nil {
			return "", pos, nil, fmt.Errorf("failed to decode Latin-1: %v", err)
		}
		str = string(utf8Bytes)
		pos += nchars
	}

	// The rgRun array (4 bytes per run) and ExtRst phonetic data trail
	// the character array; their sizes came from the header fields read
	// above, not from the string length, so they must be skipped here
	// rather than folded into the nchars-based advance.
	var runs [][]int
	if richtext {
		if pos+rtRunCount*4 > len(data) {
			return "", pos, nil, fmt.Errorf("insufficient data for richtext runs")
		}
		runs = make([][]int, 0, rtRunCount)
		for i := 0; i < rtRunCount; i++ {
			runs = append(runs, []int{
				int(binary.LittleEndian.Uint16(data[pos : pos+2])),
				int(binary.LittleEndian.Uint16(data[pos+2 : pos+4])),
			})
			pos += 4
		}
	}
	if phonetic {
		if pos+phoneticSize > len(data) {
			return "", pos, nil, fmt.Errorf("insufficient data for phonetic data")
		}
		pos += phoneticSize
	}

	return str, pos, runs, nil
}
