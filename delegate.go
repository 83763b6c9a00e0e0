package psd

// Delegate receives one callback per parsed item, in on-disk order, per spec
// §6. Every method has a no-op default via NopDelegate, so implementations
// only need to override what they care about — the same "small interface,
// embeddable no-op base" idiom bep-imagemeta uses for its Options defaults.
type Delegate interface {
	OnFileHeader(h *Header)
	OnColorModeData(d ColorModeData)
	OnImageResource(r *ImageResource)
	OnSlicesData(s *SlicesResource)
	OnFramesData(frames []AnimationFrame, activeIndex int)
	OnLayersAndMask(l *LayersInformation)
	OnBeginLayer(l *LayerRecord)
	OnEndLayer(l *LayerRecord)
	OnBeginImage(width, height int, channelCount int)
	OnImageScanline(image ScanlineImage, y int, channelID int16, data []byte)
	OnEndImage()
	OnImageData(d *ImageData)
}

// ScanlineImage identifies which image a scanline callback belongs to: the
// composite image, or a specific layer.
type ScanlineImage struct {
	Layer *LayerRecord // nil for the composite image
}

// NopDelegate implements every Delegate method as a no-op. Embed it in a
// delegate type to only override the callbacks you need.
type NopDelegate struct{}

func (NopDelegate) OnFileHeader(*Header)                                   {}
func (NopDelegate) OnColorModeData(ColorModeData)                         {}
func (NopDelegate) OnImageResource(*ImageResource)                        {}
func (NopDelegate) OnSlicesData(*SlicesResource)                          {}
func (NopDelegate) OnFramesData([]AnimationFrame, int)                    {}
func (NopDelegate) OnLayersAndMask(*LayersInformation)                    {}
func (NopDelegate) OnBeginLayer(*LayerRecord)                             {}
func (NopDelegate) OnEndLayer(*LayerRecord)                               {}
func (NopDelegate) OnBeginImage(int, int, int)                            {}
func (NopDelegate) OnImageScanline(ScanlineImage, int, int16, []byte)     {}
func (NopDelegate) OnEndImage()                                           {}
func (NopDelegate) OnImageData(*ImageData)                                {}

var _ Delegate = NopDelegate{}
