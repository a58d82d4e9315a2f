package biff

import (
	"encoding/binary"
	"math"
	"testing"
)

// TestDecodeRKIntegerScaledWord covers an RK word with both flag bits
// set (integer encoding, ×1/100 scaling): 0x000A0003 should decode to
// 1638.4.
func TestDecodeRKIntegerScaledWord(t *testing.T) {
	got := decodeRK(0x000A0003)
	if !almostEqual(got, 1638.4, 1e-9) {
		t.Errorf("decodeRK(0x000A0003) = %v, want 1638.4", got)
	}
}

// TestDecodeRKFloatUnscaled covers the plain float case: 0x3FF00000 is the
// top 32 bits of the IEEE-754 double 1.0.
func TestDecodeRKFloatUnscaled(t *testing.T) {
	got := decodeRK(0x3FF00000)
	if !almostEqual(got, 1.0, 1e-9) {
		t.Errorf("decodeRK(0x3FF00000) = %v, want 1.0", got)
	}
}

// TestDecodeRKInteger covers the integer case: the value is stored as a
// signed 30-bit integer in the high bits.
func TestDecodeRKInteger(t *testing.T) {
	// 100 << 2, with bit 1 (rkInteger) set.
	w := uint32(100<<2) | rkInteger
	got := decodeRK(w)
	if !almostEqual(got, 100, 1e-9) {
		t.Errorf("decodeRK(integer 100) = %v, want 100", got)
	}
}

// TestDecodeRKIntegerScaled covers the integer-and-scaled combination.
func TestDecodeRKIntegerScaled(t *testing.T) {
	w := uint32(12345<<2) | rkInteger | rkScale100
	got := decodeRK(w)
	if !almostEqual(got, 123.45, 1e-9) {
		t.Errorf("decodeRK(integer+scaled) = %v, want 123.45", got)
	}
}

// TestDecodeRKIntegerNegative covers a negative signed 30-bit integer.
func TestDecodeRKIntegerNegative(t *testing.T) {
	shifted := int32(-7) << 2
	w := uint32(shifted) | rkInteger
	got := decodeRK(w)
	if !almostEqual(got, -7, 1e-9) {
		t.Errorf("decodeRK(integer -7) = %v, want -7", got)
	}
}

func TestDecodeRKBytes(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[2:6], 0x3FF00000)
	got := decodeRKBytes(data, 2)
	if !almostEqual(got, 1.0, 1e-9) {
		t.Errorf("decodeRKBytes = %v, want 1.0", got)
	}
}

func TestDecodeDouble(t *testing.T) {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint64(data[4:12], math.Float64bits(3.14159))
	got := decodeDouble(data, 4)
	if !almostEqual(got, 3.14159, 1e-9) {
		t.Errorf("decodeDouble = %v, want 3.14159", got)
	}
}
