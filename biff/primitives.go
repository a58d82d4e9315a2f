package biff

import (
	"encoding/binary"
	"math"
)

// rkScale100 is bit 0 of an RK word: the decoded value is divided by 100.
const rkScale100 = 1 << 0

// rkInteger is bit 1 of an RK word: the remaining bits hold a signed 30-bit
// integer rather than the top 32 bits of an IEEE-754 double.
const rkInteger = 1 << 1

// decodeRK decodes a 4-byte packed RK word into its double-precision value.
//
// Bit 0 selects the ×1/100 scaling; bit 1 selects integer-vs-float
// encoding. In the float case, the word supplies the top 32 bits of an
// IEEE-754 double with the low 32 bits taken as zero (after the two flag
// bits are masked off). In the integer case, the remaining 30 bits are
// arithmetic-shifted out as a signed integer.
func decodeRK(w uint32) float64 {
	var value float64
	if w&rkInteger != 0 {
		// Signed 30-bit integer in the high bits; shift right arithmetically.
		value = float64(int32(w) >> 2)
	} else {
		bits := uint64(w&^0x3) << 32
		value = math.Float64frombits(bits)
	}
	if w&rkScale100 != 0 {
		value /= 100
	}
	return value
}

// decodeRKBytes reads a little-endian 4-byte RK word starting at pos and
// decodes it, per decodeRK.
func decodeRKBytes(data []byte, pos int) float64 {
	w := binary.LittleEndian.Uint32(data[pos : pos+4])
	return decodeRK(w)
}

// decodeDouble reads 8 little-endian bytes starting at pos as an IEEE-754
// binary64 value. BIFF always stores doubles in this exact 8-byte form;
// there is no "extended" fallback to consider on any platform Go targets.
func decodeDouble(data []byte, pos int) float64 {
	bits := binary.LittleEndian.Uint64(data[pos : pos+8])
	return math.Float64frombits(bits)
}
