package psd

import "fmt"

// Palette24 is one 8-bit RGB palette entry.
type Palette24 struct {
	R, G, B uint8
}

// ColorModeData is the second PSD section: either a 256-entry indexed
// palette (colorMode=Indexed), raw duotone curve bytes (colorMode=Duotone),
// or empty otherwise, per spec §3's invariant "length>0 iff
// colorMode∈{Indexed,Duotone}".
type ColorModeData struct {
	Indexed []Palette24 // len 256 when colorMode=Indexed, else nil
	Raw     []byte      // duotone curve bytes when colorMode=Duotone, else nil
}

// parseColorModeData reads the length-prefixed color mode data section and
// validates the Indexed-palette length invariant (spec §8 invariant 2).
func parseColorModeData(r *Reader, h *Header) (ColorModeData, error) {
	const section = "colorModeData"

	length := r.U32()
	if length == 0 {
		return ColorModeData{}, nil
	}

	data := r.ReadBytes(uint64(length))
	if !r.OK() {
		return ColorModeData{}, malformed(section, r.Tell(), fmt.Errorf("unexpected EOF reading %d bytes", length))
	}

	switch h.ColorMode {
	case ColorModeIndexed:
		if length != 768 {
			return ColorModeData{}, outOfRange(section, r.Tell(), fmt.Errorf("indexed color data length %d, want 768", length))
		}
		palette := make([]Palette24, 256)
		for i := 0; i < 256; i++ {
			palette[i] = Palette24{R: data[i], G: data[256+i], B: data[512+i]}
		}
		return ColorModeData{Indexed: palette}, nil
	case ColorModeDuotone:
		return ColorModeData{Raw: data}, nil
	default:
		// Present but unexpected for this color mode; pass it through
		// rather than rejecting, since spec only documents the invariant
		// in the other direction (length>0 implies one of these two modes,
		// not the converse).
		return ColorModeData{Raw: data}, nil
	}
}
