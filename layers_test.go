package psd

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDelegate captures every callback it receives, for assertions
// against event order and payload without building a full document model.
type recordingDelegate struct {
	NopDelegate

	beginLayers []*LayerRecord
	endLayers   []*LayerRecord
	scanlines   []recordedScanline
	framesSeen  [][]AnimationFrame
}

func (d *recordingDelegate) OnFramesData(frames []AnimationFrame, activeIndex int) {
	d.framesSeen = append(d.framesSeen, frames)
}

type recordedScanline struct {
	image     ScanlineImage
	y         int
	channelID int16
	data      []byte
}

func (d *recordingDelegate) OnBeginLayer(l *LayerRecord) { d.beginLayers = append(d.beginLayers, l) }
func (d *recordingDelegate) OnEndLayer(l *LayerRecord)   { d.endLayers = append(d.endLayers, l) }
func (d *recordingDelegate) OnImageScanline(img ScanlineImage, y int, channelID int16, data []byte) {
	cp := append([]byte{}, data...)
	d.scanlines = append(d.scanlines, recordedScanline{image: img, y: y, channelID: channelID, data: cp})
}

func writeLayerRecord(buf *bytes.Buffer, top, left, bottom, right int32, channels []ChannelRecord, blendMode string, name string) {
	binary.Write(buf, binary.BigEndian, top)
	binary.Write(buf, binary.BigEndian, left)
	binary.Write(buf, binary.BigEndian, bottom)
	binary.Write(buf, binary.BigEndian, right)
	binary.Write(buf, binary.BigEndian, uint16(len(channels)))
	for _, ch := range channels {
		binary.Write(buf, binary.BigEndian, ch.ID)
		binary.Write(buf, binary.BigEndian, uint32(ch.Length))
	}
	buf.WriteString("8BIM")
	buf.WriteString(blendMode)
	buf.WriteByte(255) // opacity
	buf.WriteByte(0)   // clipping
	buf.WriteByte(0)   // flags
	buf.WriteByte(0)   // filler

	extra := new(bytes.Buffer)
	binary.Write(extra, binary.BigEndian, uint32(0)) // mask data length
	binary.Write(extra, binary.BigEndian, uint32(0)) // blending ranges length
	nameBuf := new(bytes.Buffer)
	nameBuf.WriteByte(byte(len(name)))
	nameBuf.WriteString(name)
	for nameBuf.Len()%4 != 0 {
		nameBuf.WriteByte(0)
	}
	extra.Write(nameBuf.Bytes())

	binary.Write(buf, binary.BigEndian, uint32(extra.Len()))
	buf.Write(extra.Bytes())
}

func TestParseLayersAndMask_OneRawLayer(t *testing.T) {
	layerBody := new(bytes.Buffer)
	channels := []ChannelRecord{
		{ID: 0, Length: 2 + 2}, // compression u16 + 2x1 px raw
	}
	writeLayerRecord(layerBody, 0, 0, 1, 2, channels, "norm", "L1")

	channelPixels := new(bytes.Buffer)
	binary.Write(channelPixels, binary.BigEndian, uint16(0)) // raw compression
	channelPixels.Write([]byte{0x10, 0x20})

	layersInfoBody := new(bytes.Buffer)
	binary.Write(layersInfoBody, binary.BigEndian, int16(1)) // layer count
	layersInfoBody.Write(layerBody.Bytes())
	layersInfoBody.Write(channelPixels.Bytes())

	outer := new(bytes.Buffer)
	binary.Write(outer, binary.BigEndian, uint32(layersInfoBody.Len())+4) // layers info length prefix included below
	binary.Write(outer, binary.BigEndian, uint32(layersInfoBody.Len()))
	outer.Write(layersInfoBody.Bytes())

	h := &Header{Version: VersionPSD, Depth: 8}
	r := NewReader(NewMemorySource(outer.Bytes()))
	r.SetVersion(1)

	delegate := &recordingDelegate{}
	info, err := parseLayersAndMask(r, h, defaultDecodeOptions(), delegate)
	require.NoError(t, err)
	require.Len(t, info.Layers, 1)

	l := info.Layers[0]
	assert.Equal(t, "L1", l.Name)
	assert.Equal(t, "norm", l.BlendMode)
	assert.Equal(t, int32(2), l.Width())
	assert.Equal(t, int32(1), l.Height())

	require.Len(t, delegate.beginLayers, 1)
	require.Len(t, delegate.endLayers, 1)
	require.Len(t, delegate.scanlines, 1)
	assert.Equal(t, []byte{0x10, 0x20}, delegate.scanlines[0].data)
	assert.Same(t, l, delegate.scanlines[0].image.Layer)
}

func TestParseLayersAndMask_NegativeCountMeansFirstChannelTransparency(t *testing.T) {
	// A negative layer count (spec §4.4, §8 boundary 3) means the merged
	// image's first channel carries transparency; the absolute value is the
	// actual layer count.
	layerBody := new(bytes.Buffer)
	writeLayerRecord(layerBody, 0, 0, 1, 1, []ChannelRecord{{ID: 0, Length: 3}}, "norm", "")

	channelPixels := new(bytes.Buffer)
	binary.Write(channelPixels, binary.BigEndian, uint16(0)) // raw compression
	channelPixels.WriteByte(0x42)                            // 1x1 depth-8 pixel

	layersInfoBody := new(bytes.Buffer)
	binary.Write(layersInfoBody, binary.BigEndian, int16(-1))
	layersInfoBody.Write(layerBody.Bytes())
	layersInfoBody.Write(channelPixels.Bytes())

	outer := new(bytes.Buffer)
	binary.Write(outer, binary.BigEndian, uint32(layersInfoBody.Len())+4)
	binary.Write(outer, binary.BigEndian, uint32(layersInfoBody.Len()))
	outer.Write(layersInfoBody.Bytes())

	h := &Header{Version: VersionPSD, Depth: 8}
	r := NewReader(NewMemorySource(outer.Bytes()))
	r.SetVersion(1)

	delegate := &recordingDelegate{}
	info, err := parseLayersAndMask(r, h, defaultDecodeOptions(), delegate)
	require.NoError(t, err)
	assert.True(t, info.FirstChannelIsTransparency)
	require.Len(t, info.Layers, 1)
}

func TestParseGlobalMaskInfo(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, uint16(0)) // overlay color space
	buf.Write(make([]byte, 8))                     // color components
	binary.Write(buf, binary.BigEndian, uint16(50))
	buf.WriteByte(1) // MaskColorProtected

	outer := new(bytes.Buffer)
	binary.Write(outer, binary.BigEndian, uint32(buf.Len()))
	outer.Write(buf.Bytes())

	r := NewReader(NewMemorySource(outer.Bytes()))
	info := &LayersInformation{}
	require.NoError(t, parseGlobalMaskInfo(r, info))
	assert.Equal(t, uint8(50), info.GlobalMask.Opacity)
	assert.Equal(t, MaskColorProtected, info.GlobalMask.Kind)
}

func TestParseGlobalMaskInfo_InvalidOpacityRejected(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, uint16(0))
	buf.Write(make([]byte, 8))
	binary.Write(buf, binary.BigEndian, uint16(101))
	buf.WriteByte(0)

	outer := new(bytes.Buffer)
	binary.Write(outer, binary.BigEndian, uint32(buf.Len()))
	outer.Write(buf.Bytes())

	r := NewReader(NewMemorySource(outer.Bytes()))
	err := parseGlobalMaskInfo(r, &LayersInformation{})
	require.Error(t, err)
}
