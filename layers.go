package psd

import "fmt"

// SectionType is a layer's section-divider role (from the "lsct" additional
// layer info block), distinguishing ordinary layers from the markers that
// delimit a layer group in the flat on-disk layer list, per spec §3.
type SectionType int32

const (
	SectionOther SectionType = iota
	SectionOpenFolder
	SectionCloseFolder
	SectionBoundingSection
)

// MaskKind is the global layer mask's interpretation, per spec §3.
type MaskKind uint8

const (
	MaskInverted        MaskKind = 0
	MaskColorProtected  MaskKind = 1
	MaskExactPixelValue MaskKind = 128
)

// ChannelRecord is one channel's ID and on-disk payload length, as declared
// in a layer record's channel information table (spec §3).
type ChannelRecord struct {
	ID     int16
	Length uint64
}

// FrameVisibility records whether a layer is visible in a specific
// animation frame, accrued from the "mlst" key inside "shmd" (spec §4.4).
type FrameVisibility struct {
	FrameID   int32
	IsVisible bool
}

// LayerRecord is one entry of the layers-and-mask section's layer list
// (spec §3). Width/Height are derived, not stored, per the invariant
// width=right-left, height=bottom-top.
type LayerRecord struct {
	Top, Left, Bottom, Right int32
	Channels                 []ChannelRecord
	BlendMode                string
	Opacity                  uint8
	Clipping                 uint8
	Flags                    uint8
	Name                     string

	ID             *int32 // from "lyid", nil if absent
	SectionType    SectionType
	SectionSubType *int32

	FrameVisibility []FrameVisibility

	// AdditionalInfo captures the raw bytes of every additional-layer-info
	// block whose key has no dedicated handling, by key. Blocks that are
	// decoded (lsct, luni, lyid, Lr16/Lr32/Layr, shmd, cinf/anFX/SoLE/SoLd,
	// vmsk/vsms) are not stored here.
	AdditionalInfo map[string][]byte

	VectorMask *VectorMaskInfo

	// Nested is set when an "Lr16"/"Lr32"/"Layr" additional layer info
	// block recurses into another layers-info block, used by some smart
	// object and higher-bit-depth layer representations (spec §4.4).
	Nested *LayersInformation
}

// Width returns right-left.
func (l *LayerRecord) Width() int32 { return l.Right - l.Left }

// Height returns bottom-top.
func (l *LayerRecord) Height() int32 { return l.Bottom - l.Top }

// Visible reports whether the layer's visibility flag bit is clear.
func (l *LayerRecord) Visible() bool { return l.Flags&0x02 == 0 }

// IsFolderMarker reports whether this layer record is a group boundary
// marker rather than an ordinary layer.
func (l *LayerRecord) IsFolderMarker() bool {
	return l.SectionType == SectionOpenFolder || l.SectionType == SectionCloseFolder || l.SectionType == SectionBoundingSection
}

// GlobalMaskInfo is the layers-and-mask section's global mask metadata
// (spec §3, §4.4).
type GlobalMaskInfo struct {
	Opacity uint8
	Kind    MaskKind
}

// LayersInformation is the full parsed layers-and-mask section (spec §3).
type LayersInformation struct {
	Layers                     []*LayerRecord
	GlobalMask                 GlobalMaskInfo
	FirstChannelIsTransparency bool

	// AdditionalInfo captures the document-level additional-layer-info
	// tail's raw bytes by key (e.g. "lnk2" linked files, "FXid" filter
	// effects IDs), per spec §4.4.
	AdditionalInfo map[string][]byte
}

// VectorMaskInfo carries a vector mask block's version/flags plus its
// undecoded path record bytes. Path geometry decode is out of scope (spec's
// Non-goals exclude vector rendering); recognizing that a mask exists and
// surfacing its header is a supplemental feature kept from the teacher.
type VectorMaskInfo struct {
	Version    uint32
	Flags      uint32
	Inverted   bool
	PathRecord []byte
}

// layerParser threads the pieces every layer-parsing function needs:
// the shared reader, the header (for depth/version), the active decode
// options, and the delegate that per-channel scanlines are reported to.
type layerParser struct {
	r        *Reader
	h        *Header
	opts     *decodeOptions
	delegate Delegate

	tailAdditionalInfo map[string][]byte
}

// parseLayersAndMask reads the layers-and-mask section: outer
// version-switched length, nested layers-info block, global mask info, and
// the additional-layer-info tail, per spec §4.4.
func parseLayersAndMask(r *Reader, h *Header, opts *decodeOptions, delegate Delegate) (*LayersInformation, error) {
	const section = "layersAndMask"
	lp := &layerParser{r: r, h: h, opts: opts, delegate: delegate}

	outerLen := r.ReadSize()
	if outerLen == 0 {
		return &LayersInformation{}, nil
	}
	start := r.Tell()
	end := start + outerLen

	info, err := lp.parseLayersInfo()
	if err != nil {
		return nil, err
	}

	if r.Tell() < end {
		if err := parseGlobalMaskInfo(r, info); err != nil {
			return nil, err
		}
	}

	if r.Tell() < end {
		if err := lp.parseAdditionalLayerInfoTail(end); err != nil {
			return nil, err
		}
		info.AdditionalInfo = lp.tailAdditionalInfo
	}

	r.Seek(end)
	if !r.OK() {
		return nil, malformed(section, r.Tell(), fmt.Errorf("unexpected EOF"))
	}
	return info, nil
}

// parseLayersInfo reads one layers-info block: its own version-switched
// length, a signed layer count (negative meaning the first alpha channel of
// the merged image carries transparency, per spec §4.4 and §8 boundary 3),
// the flat layer record list, and then each layer's channel pixel data.
//
// This is also the recursion target for additional-layer-info keys
// Lr16/Lr32/Layr, which nest another layers-info block (spec §4.4).
func (lp *layerParser) parseLayersInfo() (*LayersInformation, error) {
	const section = "layersInfo"
	r := lp.r

	length := r.ReadSize()
	if length == 0 {
		return &LayersInformation{}, nil
	}
	start := r.Tell()
	end := start + length

	rawCount := r.I16()
	firstIsTransparency := rawCount < 0
	count := int(rawCount)
	if count < 0 {
		count = -count
	}

	layers := make([]*LayerRecord, count)
	for i := 0; i < count; i++ {
		layer, err := lp.parseLayerRecord()
		if err != nil {
			return nil, fmt.Errorf("%s: layer %d: %w", section, i, err)
		}
		layers[i] = layer
	}

	for i, layer := range layers {
		if err := lp.parseLayerChannelPixels(layer); err != nil {
			return nil, fmt.Errorf("%s: layer %d channel data: %w", section, i, err)
		}
	}

	r.Seek(end)
	return &LayersInformation{Layers: layers, FirstChannelIsTransparency: firstIsTransparency}, nil
}

// parseLayerRecord reads one layer record: bounds, channel info table,
// blend signature/mode/opacity/clipping/flags, and the extra data block
// (mask data, blending ranges, Pascal name, additional layer info), per
// spec §3, §4.4.
func (lp *layerParser) parseLayerRecord() (*LayerRecord, error) {
	const section = "layerRecord"
	r := lp.r

	l := &LayerRecord{AdditionalInfo: make(map[string][]byte)}
	l.Top = r.I32()
	l.Left = r.I32()
	l.Bottom = r.I32()
	l.Right = r.I32()

	nChannels := r.U16()
	l.Channels = make([]ChannelRecord, nChannels)
	for i := range l.Channels {
		id := r.I16()
		length := r.ReadSize()
		l.Channels[i] = ChannelRecord{ID: id, Length: length}
	}

	sig := r.ReadString(4)
	if sig != "8BIM" {
		return nil, malformed(section, r.Tell(), fmt.Errorf("bad blend signature %q", sig))
	}
	l.BlendMode = r.ReadString(4)
	l.Opacity = r.U8()
	l.Clipping = r.U8()
	l.Flags = r.U8()
	r.Skip(1) // filler

	extraLen := r.U32()
	if extraLen == 0 {
		return l, nil
	}
	extraStart := r.Tell()
	extraEnd := extraStart + uint64(extraLen)

	maskLen := r.U32()
	r.Skip(uint64(maskLen))

	blendRangesLen := r.U32()
	r.Skip(uint64(blendRangesLen))

	l.Name = r.ReadPascalString(4)

	if r.Tell() < extraEnd {
		if err := lp.parseAdditionalLayerInfoBlocks(l, extraEnd); err != nil {
			return nil, err
		}
	}
	r.Seek(extraEnd)
	return l, nil
}

// parseGlobalMaskInfo reads the length-prefixed global mask info that
// follows the layers-info block (spec §4.4): overlay color space, color
// components, opacity, and kind.
func parseGlobalMaskInfo(r *Reader, info *LayersInformation) error {
	const section = "globalMaskInfo"

	length := r.U32()
	if length == 0 {
		return nil
	}
	start := r.Tell()
	end := start + uint64(length)

	r.U16()   // overlay color space
	r.Skip(8) // 8 bytes of color components
	opacity := r.U16()
	if opacity > 100 {
		return outOfRange(section, r.Tell(), fmt.Errorf("mask opacity %d exceeds 100", opacity))
	}
	kind := r.U8()
	switch MaskKind(kind) {
	case MaskInverted, MaskColorProtected, MaskExactPixelValue:
	default:
		return outOfRange(section, r.Tell(), fmt.Errorf("unexpected mask kind %d", kind))
	}

	info.GlobalMask = GlobalMaskInfo{Opacity: uint8(opacity), Kind: MaskKind(kind)}
	r.Seek(end)
	return nil
}

// parseLayerChannelPixels reads each declared channel's compression method
// and pixel data for a layer, reporting scanlines to the delegate bracketed
// by OnBeginImage/OnEndImage and OnBeginLayer/OnEndLayer, per spec §4.3,
// §4.4, and §6's event ordering.
func (lp *layerParser) parseLayerChannelPixels(l *LayerRecord) error {
	r := lp.r
	width := int(l.Width())
	height := int(l.Height())

	lp.delegate.OnBeginLayer(l)
	lp.delegate.OnBeginImage(width, height, len(l.Channels))
	img := ScanlineImage{Layer: l}

	for _, ch := range l.Channels {
		chanStart := r.Tell()
		chanEnd := chanStart + ch.Length

		if ch.Length >= 2 {
			compression := r.U16()
			decodeChannelPixels(r, lp.h, compression, width, height, func(y int, data []byte) {
				lp.delegate.OnImageScanline(img, y, ch.ID, data)
			})
		}

		r.Seek(chanEnd) // honor the declared length regardless of what was consumed
	}

	lp.delegate.OnEndImage()
	lp.delegate.OnEndLayer(l)
	return nil
}

// decodeChannelPixels dispatches on compression method for one channel's
// pixel stream, invoking emit once per decoded scanline (spec §4.3, §4.4).
// Depths other than 8 with RLE, and both ZIP variants, are recognized but
// do not emit scanlines, per spec §4.3/§7's "Unimplemented... non-fatal".
func decodeChannelPixels(r *Reader, h *Header, compression uint16, width, height int, emit func(y int, data []byte)) {
	switch compression {
	case 0: // raw
		decodeRawChannel(r, h.Depth, width, height, emit)
	case 1: // RLE
		if h.Depth != 8 {
			// Unimplemented per spec §4.3; skip without consuming — caller
			// already bounds the read by the channel's declared length.
			return
		}
		counts := readScanlineByteCounts(r, height, h.IsBig())
		for y := 0; y < height; y++ {
			emit(y, decodeScanline(r, counts[y], width))
		}
	case 2, 3: // ZIP without/with prediction
		inflateZIPChannelStub(r, width, height)
	}
}

// decodeRawChannel reads uncompressed pixel data at the header's declared
// bit depth, per spec §4.3's "Raw (uncompressed) image data is supported at
// depths 1, 8, 16, 32".
func decodeRawChannel(r *Reader, depth uint16, width, height int, emit func(y int, data []byte)) {
	switch depth {
	case 1:
		rowBytes := (width + 7) / 8
		for y := 0; y < height; y++ {
			emit(y, r.ReadBytes(uint64(rowBytes)))
		}
	case 8:
		for y := 0; y < height; y++ {
			emit(y, r.ReadBytes(uint64(width)))
		}
	case 16:
		for y := 0; y < height; y++ {
			emit(y, r.ReadBytes(uint64(width)*2))
		}
	case 32:
		for y := 0; y < height; y++ {
			emit(y, r.ReadBytes(uint64(width)*4))
		}
	}
}
