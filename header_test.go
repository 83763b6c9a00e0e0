package psd

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHeader(buf *bytes.Buffer, version uint16, channels uint16, height, width uint32, depth, colorMode uint16) {
	buf.WriteString("8BPS")
	binary.Write(buf, binary.BigEndian, version)
	buf.Write(make([]byte, 6)) // reserved
	binary.Write(buf, binary.BigEndian, channels)
	binary.Write(buf, binary.BigEndian, height)
	binary.Write(buf, binary.BigEndian, width)
	binary.Write(buf, binary.BigEndian, depth)
	binary.Write(buf, binary.BigEndian, colorMode)
}

func TestParseHeader_MinimalRGB(t *testing.T) {
	buf := new(bytes.Buffer)
	writeHeader(buf, 1, 3, 1, 1, 8, uint16(ColorModeRGB))

	r := NewReader(NewMemorySource(buf.Bytes()))
	h, err := parseHeader(r)
	require.NoError(t, err)

	assert.Equal(t, VersionPSD, h.Version)
	assert.Equal(t, uint16(3), h.Channels)
	assert.Equal(t, uint32(1), h.Width)
	assert.Equal(t, uint32(1), h.Height)
	assert.Equal(t, uint16(8), h.Depth)
	assert.Equal(t, ColorModeRGB, h.ColorMode)
	assert.False(t, h.IsBig())
}

func TestParseHeader_PSBDimensionCeiling(t *testing.T) {
	buf := new(bytes.Buffer)
	writeHeader(buf, 2, 1, 300001, 1, 8, uint16(ColorModeGrayscale))

	r := NewReader(NewMemorySource(buf.Bytes()))
	_, err := parseHeader(r)
	require.Error(t, err)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, ErrOutOfRange, decErr.Kind)
}

func TestParseHeader_PSDDimensionCeilingDoesNotApplyToPSB(t *testing.T) {
	buf := new(bytes.Buffer)
	writeHeader(buf, 2, 1, 30001, 1, 8, uint16(ColorModeGrayscale))

	r := NewReader(NewMemorySource(buf.Bytes()))
	h, err := parseHeader(r)
	require.NoError(t, err)
	assert.Equal(t, uint32(30001), h.Height)
}

func TestParseHeader_BadSignature(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.WriteString("XXXX")
	r := NewReader(NewMemorySource(buf.Bytes()))
	_, err := parseHeader(r)
	require.Error(t, err)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, ErrMalformed, decErr.Kind)
}

func TestParseHeader_InvalidChannelCount(t *testing.T) {
	buf := new(bytes.Buffer)
	writeHeader(buf, 1, 0, 1, 1, 8, uint16(ColorModeRGB))
	r := NewReader(NewMemorySource(buf.Bytes()))
	_, err := parseHeader(r)
	require.Error(t, err)
}

func TestParseHeader_InvalidDepth(t *testing.T) {
	buf := new(bytes.Buffer)
	writeHeader(buf, 1, 3, 1, 1, 12, uint16(ColorModeRGB))
	r := NewReader(NewMemorySource(buf.Bytes()))
	_, err := parseHeader(r)
	require.Error(t, err)
}

func TestParseHeader_SetsReaderVersionForSubsequentReads(t *testing.T) {
	buf := new(bytes.Buffer)
	writeHeader(buf, 2, 1, 1, 1, 8, uint16(ColorModeGrayscale))
	binary.Write(buf, binary.BigEndian, uint64(16)) // an 8-byte length field, as ReadSize reads on PSB

	r := NewReader(NewMemorySource(buf.Bytes()))
	_, err := parseHeader(r)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), r.ReadSize()) // proves version==2 switched ReadSize to 8 bytes
}

func TestColorModeName(t *testing.T) {
	assert.Equal(t, "RGB", ColorModeRGB.String())
	assert.Contains(t, ColorMode(99).String(), "99")
}
