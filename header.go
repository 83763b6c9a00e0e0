package psd

import "fmt"

// Version is the PSD size dialect: 1 selects 32-bit lengths throughout
// (PSD), 2 selects 64-bit lengths for the sections spec §4.1 and §4.4 name
// (PSB).
type Version uint16

const (
	VersionPSD Version = 1
	VersionPSB Version = 2
)

// ColorMode enumerates the header's documented color-mode domain (spec §3).
type ColorMode uint16

const (
	ColorModeBitmap       ColorMode = 0
	ColorModeGrayscale    ColorMode = 1
	ColorModeIndexed      ColorMode = 2
	ColorModeRGB          ColorMode = 3
	ColorModeCMYK         ColorMode = 4
	ColorModeMultichannel ColorMode = 7
	ColorModeDuotone      ColorMode = 8
	ColorModeLab          ColorMode = 9
)

var validColorModes = map[ColorMode]string{
	ColorModeBitmap:       "Bitmap",
	ColorModeGrayscale:    "Grayscale",
	ColorModeIndexed:      "Indexed",
	ColorModeRGB:          "RGB",
	ColorModeCMYK:         "CMYK",
	ColorModeMultichannel: "Multichannel",
	ColorModeDuotone:      "Duotone",
	ColorModeLab:          "Lab",
}

// String returns the documented name for a known color mode, or a numeric
// fallback for anything else (validation, not this method, is what rejects
// out-of-range values).
func (m ColorMode) String() string {
	if name, ok := validColorModes[m]; ok {
		return name
	}
	return fmt.Sprintf("ColorMode(%d)", uint16(m))
}

// Header is the first PSD section: document geometry and color mode. It is
// mutated only while being parsed; every later section treats it as
// read-only, per spec §3.
type Header struct {
	Version   Version
	Channels  uint16
	Height    uint32
	Width     uint32
	Depth     uint16
	ColorMode ColorMode
}

// IsBig reports whether this document uses the PSB (large-document) size
// dialect.
func (h *Header) IsBig() bool { return h.Version == VersionPSB }

// maxDimension is the per-version width/height ceiling from spec §3 and §8.
func (h *Header) maxDimension() uint32 {
	if h.IsBig() {
		return 300000
	}
	return 30000
}

// parseHeader reads and validates the file header: magic, version, 6
// reserved bytes, channel count, geometry, depth, and color mode (spec
// §4.4). Any violation is fatal per spec §7.
func parseHeader(r *Reader) (*Header, error) {
	const section = "header"

	sig := r.ReadString(4)
	if sig != "8BPS" {
		return nil, malformed(section, r.Tell(), fmt.Errorf("bad signature %q, want \"8BPS\"", sig))
	}

	version := Version(r.U16())
	if version != VersionPSD && version != VersionPSB {
		return nil, malformed(section, r.Tell(), fmt.Errorf("unsupported version %d", version))
	}

	r.Skip(6) // reserved, must be zero; not validated, per the teacher's own leniency here

	h := &Header{Version: version}

	h.Channels = r.U16()
	if h.Channels < 1 || h.Channels > 56 {
		return nil, outOfRange(section, r.Tell(), fmt.Errorf("channel count %d outside [1,56]", h.Channels))
	}

	h.Height = r.U32()
	h.Width = r.U32()
	if h.Width == 0 || h.Height == 0 {
		return nil, outOfRange(section, r.Tell(), fmt.Errorf("zero-sized document %dx%d", h.Width, h.Height))
	}
	if max := h.maxDimension(); h.Width > max || h.Height > max {
		return nil, outOfRange(section, r.Tell(), fmt.Errorf("%dx%d exceeds %d ceiling for this version", h.Width, h.Height, max))
	}

	h.Depth = r.U16()
	switch h.Depth {
	case 1, 8, 16, 32:
	default:
		return nil, outOfRange(section, r.Tell(), fmt.Errorf("depth %d not in {1,8,16,32}", h.Depth))
	}

	mode := ColorMode(r.U16())
	if _, ok := validColorModes[mode]; !ok {
		return nil, outOfRange(section, r.Tell(), fmt.Errorf("color mode %d not recognized", uint16(mode)))
	}
	h.ColorMode = mode

	if !r.OK() {
		return nil, malformed(section, r.Tell(), fmt.Errorf("unexpected EOF"))
	}

	r.SetVersion(int(version))
	return h, nil
}
