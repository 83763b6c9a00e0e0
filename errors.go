package psd

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DecodeError per the three failure categories the
// format distinguishes: framing that is simply wrong, values that are
// syntactically fine but out of the documented range, and grammar the
// decoder recognizes but does not implement.
type ErrorKind int

const (
	// ErrMalformed covers bad magic numbers, bad descriptor-format
	// versions, unrecognized OSType/reference/unit codes, and unexpected
	// end-of-file inside a required region.
	ErrMalformed ErrorKind = iota
	// ErrOutOfRange covers values outside their documented domain: depth,
	// color mode, width/height ceilings, mask opacity, channel count.
	ErrOutOfRange
	// ErrUnimplemented is the kind for grammar the decoder recognizes but
	// does not decode. No current parse path returns it: RawData bodies are
	// read as opaque bytes, reference kinds with no documented body are
	// ErrMalformed, and ZIP pixel reconstruction and RLE at depths other
	// than 8 are skipped without an error.
	ErrUnimplemented
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformed:
		return "malformed"
	case ErrOutOfRange:
		return "out of range"
	case ErrUnimplemented:
		return "unimplemented"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ErrUnimplementedFeature is the sentinel wrapped by DecodeError values of
// kind ErrUnimplemented, so callers can test for it with errors.Is without
// needing the section/offset detail carried on the error itself.
var ErrUnimplementedFeature = errors.New("psd: unimplemented feature")

// DecodeError is the one structured error type the decoder returns.
// Section names the section or sub-grammar in progress (e.g. "header",
// "descriptor", "layer[3].additionalInfo[lsct]") and Offset is the absolute
// byte position in the source where the failure was detected, when known.
type DecodeError struct {
	Kind    ErrorKind
	Section string
	Offset  uint64
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Offset != 0 {
		return fmt.Sprintf("psd: %s: %s (offset %d): %v", e.Section, e.Kind, e.Offset, e.Err)
	}
	return fmt.Sprintf("psd: %s: %s: %v", e.Section, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	if target == ErrUnimplementedFeature {
		return e.Kind == ErrUnimplemented
	}
	return false
}

func malformed(section string, offset uint64, err error) *DecodeError {
	return &DecodeError{Kind: ErrMalformed, Section: section, Offset: offset, Err: err}
}

func outOfRange(section string, offset uint64, err error) *DecodeError {
	return &DecodeError{Kind: ErrOutOfRange, Section: section, Offset: offset, Err: err}
}

func unimplemented(section string, offset uint64, err error) *DecodeError {
	return &DecodeError{Kind: ErrUnimplemented, Section: section, Offset: offset, Err: ErrUnimplementedFeatureWrap(err)}
}

// ErrUnimplementedFeatureWrap joins a specific message onto the
// ErrUnimplementedFeature sentinel so errors.Is(err, ErrUnimplementedFeature)
// succeeds while the message stays specific.
func ErrUnimplementedFeatureWrap(err error) error {
	return fmt.Errorf("%w: %v", ErrUnimplementedFeature, err)
}
