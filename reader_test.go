package psd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_IntegerReads(t *testing.T) {
	data := []byte{
		0x01,                   // U8
		0x00, 0x02,             // U16
		0x00, 0x00, 0x00, 0x03, // U32
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, // U64
	}
	r := NewReader(NewMemorySource(data))

	assert.Equal(t, uint8(1), r.U8())
	assert.Equal(t, uint16(2), r.U16())
	assert.Equal(t, uint32(3), r.U32())
	assert.Equal(t, uint64(4), r.U64())
	assert.True(t, r.OK())
}

func TestReader_SignedReads(t *testing.T) {
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	r := NewReader(NewMemorySource(data))

	assert.Equal(t, int16(-1), r.I16())
	assert.Equal(t, int32(-1), r.I32())
}

func TestReader_ReadSize_VersionSwitched(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 0x2A, // 32-bit size on PSD
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x2A, // 64-bit size on PSB
	}
	r := NewReader(NewMemorySource(data))
	r.SetVersion(1)
	require.Equal(t, uint64(42), r.ReadSize())

	r.SetVersion(2)
	require.Equal(t, uint64(42), r.ReadSize())
}

func TestReader_ReadSizeForKeys(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05, // 64-bit for Lr16 on PSB
		0x00, 0x00, 0x00, 0x06, // 32-bit for an unlisted key even on PSB
	}
	r := NewReader(NewMemorySource(data))

	assert.Equal(t, uint64(5), r.ReadSizeForKeys("Lr16", true))
	assert.Equal(t, uint64(6), r.ReadSizeForKeys("unkn", true))
}

func TestReader_PascalString_Padding(t *testing.T) {
	// length byte (1) + "AB" (2) = 3 total; padded to 4-byte alignment means
	// one pad byte follows.
	data := []byte{0x02, 'A', 'B', 0x00, 0xFF}
	r := NewReader(NewMemorySource(data))

	s := r.ReadPascalString(4)
	assert.Equal(t, "AB", s)
	assert.Equal(t, uint64(4), r.Tell())
	assert.Equal(t, uint8(0xFF), r.U8())
}

func TestReader_PascalString_ZeroLength(t *testing.T) {
	// length byte 0, then padded to alignment 2: total so far is 1, pad 1.
	data := []byte{0x00, 0x00, 0xAB}
	r := NewReader(NewMemorySource(data))

	s := r.ReadPascalString(2)
	assert.Equal(t, "", s)
	assert.Equal(t, uint8(0xAB), r.U8())
}

func TestReader_ShortRead_LatchesNotOK(t *testing.T) {
	data := []byte{0x01, 0x02}
	r := NewReader(NewMemorySource(data))

	r.ReadBytes(10)
	assert.False(t, r.OK())
}

func TestReader_F64(t *testing.T) {
	// 3.14 as a big-endian IEEE-754 double.
	data := []byte{0x40, 0x09, 0x1E, 0xB8, 0x51, 0xEB, 0x85, 0x1F}
	r := NewReader(NewMemorySource(data))
	assert.InDelta(t, 3.14, r.F64(), 0.0000001)
}
