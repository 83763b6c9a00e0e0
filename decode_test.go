package psd

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMinimalPSD assembles a complete, minimal 1x1 RGB PSD document with no
// color mode data, no image resources, and no layers, for exercising
// Decode's full section sequence end to end.
func buildMinimalPSD(t *testing.T) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	writeHeader(buf, 1, 3, 1, 1, 8, uint16(ColorModeRGB))
	binary.Write(buf, binary.BigEndian, uint32(0)) // color mode data: empty
	binary.Write(buf, binary.BigEndian, uint32(0)) // image resources: empty
	binary.Write(buf, binary.BigEndian, uint32(0)) // layers and mask: empty

	binary.Write(buf, binary.BigEndian, uint16(0)) // composite compression: raw
	buf.WriteByte(0x10)
	buf.WriteByte(0x20)
	buf.WriteByte(0x30)
	return buf.Bytes()
}

func TestDecode_MinimalRGB1x1Raw(t *testing.T) {
	data := buildMinimalPSD(t)
	delegate := &recordingDelegate{}

	err := Decode(NewMemorySource(data), delegate)
	require.NoError(t, err)
	require.Len(t, delegate.scanlines, 3)
	assert.Equal(t, []byte{0x10}, delegate.scanlines[0].data)
}

func TestDecode_IndexedPaletteRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	writeHeader(buf, 1, 1, 1, 1, 8, uint16(ColorModeIndexed))

	binary.Write(buf, binary.BigEndian, uint32(768))
	var palette [768]byte
	palette[7] = 0x01 // R of entry 7
	buf.Write(palette[:])

	binary.Write(buf, binary.BigEndian, uint32(0)) // image resources
	binary.Write(buf, binary.BigEndian, uint32(0)) // layers and mask

	binary.Write(buf, binary.BigEndian, uint16(0)) // composite compression: raw
	buf.WriteByte(0x07)                            // the single index channel's one pixel

	var captured ColorModeData
	delegate := &captureColorModeDelegate{capture: &captured}

	err := Decode(NewMemorySource(buf.Bytes()), delegate)
	require.NoError(t, err)
	require.Len(t, captured.Indexed, 256)
	assert.Equal(t, uint8(0x01), captured.Indexed[7].R)
}

type captureColorModeDelegate struct {
	NopDelegate
	capture *ColorModeData
}

func (d *captureColorModeDelegate) OnColorModeData(c ColorModeData) { *d.capture = c }

func TestDecode_PSBUsesSizeDialectThroughout(t *testing.T) {
	buf := new(bytes.Buffer)
	writeHeader(buf, 2, 1, 1, 1, 8, uint16(ColorModeGrayscale))
	binary.Write(buf, binary.BigEndian, uint32(0)) // color mode data is always u32

	binary.Write(buf, binary.BigEndian, uint32(0)) // image resources outer length is always u32

	binary.Write(buf, binary.BigEndian, uint64(0)) // layers and mask length: 8 bytes on PSB

	binary.Write(buf, binary.BigEndian, uint16(0)) // composite compression
	buf.WriteByte(0x55)

	delegate := &recordingDelegate{}
	err := Decode(NewMemorySource(buf.Bytes()), delegate)
	require.NoError(t, err)
	require.Len(t, delegate.scanlines, 1)
	assert.Equal(t, []byte{0x55}, delegate.scanlines[0].data)
}

func TestDecode_BadHeaderAborts(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.WriteString("NOPE")
	err := Decode(NewMemorySource(buf.Bytes()), NopDelegate{})
	require.Error(t, err)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, ErrMalformed, decErr.Kind)
}

func TestDecodeOK(t *testing.T) {
	assert.True(t, DecodeOK(NewMemorySource(buildMinimalPSD(t)), NopDelegate{}))
	assert.False(t, DecodeOK(NewMemorySource([]byte("bad")), NopDelegate{}))
}

func TestDecode_AnimationResourceReportedAsFramesData(t *testing.T) {
	buf := new(bytes.Buffer)
	writeHeader(buf, 1, 1, 1, 1, 8, uint16(ColorModeGrayscale))
	binary.Write(buf, binary.BigEndian, uint32(0)) // color mode data

	animPayload := new(bytes.Buffer)
	binary.Write(animPayload, binary.BigEndian, uint32(0))
	binary.Write(animPayload, binary.BigEndian, uint32(0))
	binary.Write(animPayload, binary.BigEndian, uint32(0))
	animPayload.WriteString("8BIM")
	animPayload.WriteString("AnDs")
	writeTopLevelDescriptorHeader(animPayload, "Animation", "Animation", 1)
	writeKey(animPayload, "FrIn")
	animPayload.WriteString("VlLs")
	binary.Write(animPayload, binary.BigEndian, uint32(1))
	animPayload.WriteString("Objc")
	writeUnicodeString(animPayload, "")
	writeClassMeta(animPayload, "Frame", "Frame")
	binary.Write(animPayload, binary.BigEndian, uint32(2))
	writeKey(animPayload, "FrID")
	animPayload.WriteString("long")
	binary.Write(animPayload, binary.BigEndian, int32(5))
	writeKey(animPayload, "FrDl")
	animPayload.WriteString("long")
	binary.Write(animPayload, binary.BigEndian, int32(10))

	resource := new(bytes.Buffer)
	resource.WriteString("8BIM")
	binary.Write(resource, binary.BigEndian, uint16(resourceIDAnimation))
	resource.WriteByte(0) // empty Pascal name
	resource.WriteByte(0) // pad to 2-byte alignment
	binary.Write(resource, binary.BigEndian, uint32(animPayload.Len()))
	resource.Write(animPayload.Bytes())

	binary.Write(buf, binary.BigEndian, uint32(resource.Len()))
	buf.Write(resource.Bytes())

	binary.Write(buf, binary.BigEndian, uint32(0)) // layers and mask
	binary.Write(buf, binary.BigEndian, uint16(0)) // composite compression
	buf.WriteByte(0x00)

	delegate := &recordingDelegate{}
	err := Decode(NewMemorySource(buf.Bytes()), delegate)
	require.NoError(t, err)
	require.Len(t, delegate.framesSeen, 1)
	assert.Equal(t, AnimationFrame{ID: 5, Duration: 10}, delegate.framesSeen[0][0])
}
