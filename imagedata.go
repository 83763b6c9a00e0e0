package psd

import "fmt"

// CompressionMethod is the composite image's (and each layer channel's)
// pixel encoding, per spec §3.
type CompressionMethod uint16

const (
	CompressionRaw                  CompressionMethod = 0
	CompressionRLE                  CompressionMethod = 1
	CompressionZIPWithoutPrediction CompressionMethod = 2
	CompressionZIPWithPrediction    CompressionMethod = 3
)

// compositeChannelRole names what a composite-image channel index means,
// derived from the header's channel count per spec §4.4.
type compositeChannelRole int16

const (
	roleAlpha compositeChannelRole = -1
	roleRed   compositeChannelRole = 0
	roleGreen compositeChannelRole = 1
	roleBlue  compositeChannelRole = 2
)

// compositeChannelRoles maps header.Channels to the ordered channel-ID list
// for the top-level composite image, per spec §4.4: "1→Alpha;
// 2→TransparencyMask,Red; 3→R,G,B; 4→R,G,B,A; other → fatal".
func compositeChannelRoles(n uint16) ([]int16, error) {
	switch n {
	case 1:
		return []int16{int16(roleAlpha)}, nil
	case 2:
		return []int16{int16(roleAlpha), int16(roleRed)}, nil
	case 3:
		return []int16{int16(roleRed), int16(roleGreen), int16(roleBlue)}, nil
	case 4:
		return []int16{int16(roleRed), int16(roleGreen), int16(roleBlue), int16(roleAlpha)}, nil
	default:
		return nil, fmt.Errorf("channel count %d outside composite image's {1,2,3,4}", n)
	}
}

// ImageData is the fully-described composite image section (spec §3).
type ImageData struct {
	Compression CompressionMethod
	Width       int
	Height      int
	Depth       uint16
	ChannelIDs  []int16
}

// parseImageData reads the final top-level section: a u16 compression
// method, then per spec §4.4's fixed small channel-ID mapping derived from
// the header's channel count (an explicit mapping, not the general
// per-layer ChannelRecord table — the composite image has no channel info
// table of its own).
func parseImageData(r *Reader, h *Header, delegate Delegate) (*ImageData, error) {
	const section = "imageData"

	compression := CompressionMethod(r.U16())
	channelIDs, err := compositeChannelRoles(h.Channels)
	if err != nil {
		return nil, outOfRange(section, r.Tell(), err)
	}

	width, height := int(h.Width), int(h.Height)
	data := &ImageData{Compression: compression, Width: width, Height: height, Depth: h.Depth, ChannelIDs: channelIDs}

	delegate.OnBeginImage(width, height, len(channelIDs))
	img := ScanlineImage{}

	switch compression {
	case CompressionRaw:
		for _, id := range channelIDs {
			decodeRawChannel(r, h.Depth, width, height, func(y int, d []byte) {
				delegate.OnImageScanline(img, y, id, d)
			})
		}
	case CompressionRLE:
		if h.Depth != 8 {
			// Unimplemented per spec §4.3; recognized, not fatal.
			break
		}
		counts := readScanlineByteCounts(r, height*len(channelIDs), h.IsBig())
		for ci, id := range channelIDs {
			for y := 0; y < height; y++ {
				n := counts[ci*height+y]
				delegate.OnImageScanline(img, y, id, decodeScanline(r, n, width))
			}
		}
	case CompressionZIPWithoutPrediction, CompressionZIPWithPrediction:
		inflateZIPChannelStub(r, width, height*len(channelIDs))
	default:
		return nil, malformed(section, r.Tell(), fmt.Errorf("unrecognized compression method %d", compression))
	}

	delegate.OnEndImage()
	delegate.OnImageData(data)
	return data, nil
}
