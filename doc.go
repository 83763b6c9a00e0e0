// Package psd decodes Adobe Photoshop document files (PSD) and their
// large-document variant (PSB).
//
// The package is a pull-style parser: Decode reads the five PSD sections in
// order — file header, color mode data, image resources, layers and mask,
// and the composite image data — validating framing and magic numbers as it
// goes, and reports what it finds to a caller-supplied Delegate. Decode does
// not build a document model itself; TreeBuilder in tree.go is a ready-made
// Delegate that does, for callers who want one.
//
// Decode does not composite layers, apply blend modes, decode ZIP-compressed
// channel data beyond inflating it, convert color spaces, or mutate its
// input. A symmetric encoder is not implemented: one would validate a
// document model and then write each section with an uncommitted 4 (or 8,
// on PSB) byte length placeholder, write the section body, and seek back to
// patch the length once the body's size is known.
package psd
