package psd

import (
	"context"
	"fmt"
	"log/slog"
)

// decodeOptions holds every functional option's effect, threaded through
// the parse call chain so layer and resource parsing can consult the
// active logger, cancellation context, and feature flags without a
// package-global.
type decodeOptions struct {
	ctx    context.Context
	logger *slog.Logger

	// readMergedTransparency marks the merged image's leading
	// "transparency mask" channel (implied by a negative layer count) as
	// deliberately requested. Decode reads no extra channel for it: the
	// composite decode reports that channel either way, and a negative
	// count is recorded on LayersInformation.FirstChannelIsTransparency
	// either way. The flag only decides whether Decode logs a debug line
	// about that channel.
	readMergedTransparency bool
}

func defaultDecodeOptions() *decodeOptions {
	return &decodeOptions{ctx: context.Background(), logger: slog.Default()}
}

// Option configures a Decode call.
type Option func(*decodeOptions)

// WithContext sets the context used to check for cancellation between
// top-level sections. The context is not threaded into every byte read —
// only checked at section boundaries — since a Source's own OK() latch is
// what aborts the decode.
func WithContext(ctx context.Context) Option {
	return func(o *decodeOptions) { o.ctx = ctx }
}

// WithLogger sets the structured logger Decode uses. Decode logs one
// debug line when the layer count is negative and WithMergedTransparency
// was not set; skipped compression/depth combinations and sections are not
// logged. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *decodeOptions) { o.logger = logger }
}

// WithMergedTransparency opts in to treating a negative layer count's
// implied merged-image transparency channel as deliberately requested,
// per spec's Design Notes §9.
func WithMergedTransparency() Option {
	return func(o *decodeOptions) { o.readMergedTransparency = true }
}

// Decode drives a full top-to-bottom parse of src, reporting every section
// to delegate as it is parsed, per spec §4.5 and §6. Sections are parsed in
// strict file order: header, color mode data, image resources,
// layers-and-mask, composite image data. A section's error aborts the
// decode; everything already reported to delegate stands.
func Decode(src Source, delegate Delegate, opts ...Option) error {
	o := defaultDecodeOptions()
	for _, opt := range opts {
		opt(o)
	}
	if delegate == nil {
		delegate = NopDelegate{}
	}

	r := NewReader(src)

	header, err := parseHeader(r)
	if err != nil {
		return fmt.Errorf("header: %w", err)
	}
	delegate.OnFileHeader(header)
	if err := o.ctx.Err(); err != nil {
		return err
	}

	colorModeData, err := parseColorModeData(r, header)
	if err != nil {
		return fmt.Errorf("colorModeData: %w", err)
	}
	delegate.OnColorModeData(colorModeData)
	if err := o.ctx.Err(); err != nil {
		return err
	}

	if err := parseImageResources(r, delegate); err != nil {
		return fmt.Errorf("imageResources: %w", err)
	}
	if err := o.ctx.Err(); err != nil {
		return err
	}

	layersInfo, err := parseLayersAndMask(r, header, o, delegate)
	if err != nil {
		return fmt.Errorf("layersAndMask: %w", err)
	}
	delegate.OnLayersAndMask(layersInfo)
	if layersInfo.FirstChannelIsTransparency && !o.readMergedTransparency {
		o.logger.Debug("merged image carries a transparency channel; WithMergedTransparency was not set")
	}
	if err := o.ctx.Err(); err != nil {
		return err
	}

	if !r.OK() {
		return malformed("decode", r.Tell(), fmt.Errorf("source ended before composite image data"))
	}
	if _, err := parseImageData(r, header, delegate); err != nil {
		return fmt.Errorf("imageData: %w", err)
	}

	if !r.OK() {
		return malformed("decode", r.Tell(), fmt.Errorf("source reported a failed read during decode"))
	}
	return nil
}

// DecodeOK runs Decode and reports only whether it succeeded, for callers
// that want the simple boolean form spec §4.5 describes alongside the
// error-returning one.
func DecodeOK(src Source, delegate Delegate, opts ...Option) bool {
	return Decode(src, delegate, opts...) == nil
}
