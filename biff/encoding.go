package biff

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// decoderByName maps the encoding names produced by deriveEncoding and
// EncodingFromCodepage to a concrete decoder. Names follow the teacher's
// existing Python-codec-style spelling rather than IANA names, since that
// is what deriveEncoding already hands out.
var decoderByName = map[string]encoding.Encoding{
	"cp1250": charmap.Windows1250,
	"cp1251": charmap.Windows1251,
	"cp1252": charmap.Windows1252,
	"cp1253": charmap.Windows1253,
	"cp1254": charmap.Windows1254,
	"cp1255": charmap.Windows1255,
	"cp1256": charmap.Windows1256,
	"cp1257": charmap.Windows1257,
	"cp1258": charmap.Windows1258,
	"cp932":  japanese.ShiftJIS,
	"cp936":  simplifiedchinese.GBK,
	"cp949":  korean.EUCKR,
	"cp950":  traditionalchinese.Big5,

	"iso-8859-1": charmap.ISO8859_1,
	"mac_roman":  charmap.Macintosh,

	// The Mac "guess" entries in EncodingFromCodepage map to the ISO-8859
	// table of the same script (Latin-1 for Icelandic).
	"mac_greek":    charmap.ISO8859_7,
	"mac_cyrillic": charmap.ISO8859_5,
	"mac_latin2":   charmap.ISO8859_2,
	"mac_iceland":  charmap.ISO8859_1,
	"mac_turkish":  charmap.ISO8859_9,
}

// decoderForEncoding resolves a deriveEncoding-style name to a decoder,
// falling back to Latin-1 (the byte-for-byte identity for the codepoints
// BIFF strings actually use below 0x100) for names this reader has no
// specific table entry for.
func decoderForEncoding(name string) encoding.Encoding {
	if dec, ok := decoderByName[name]; ok {
		return dec
	}
	return charmap.ISO8859_1
}

// decodeNonUnicodeString converts BIFF's single-byte compressed string
// bytes to UTF-8 using the workbook's declared code-page encoding.
func decodeNonUnicodeString(raw []byte, enc string) string {
	utf8Bytes, err := decoderForEncoding(enc).NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(utf8Bytes)
}
