package psd

import (
	"io"

	"github.com/klauspost/compress/zlib"
)

// inflateZIPChannelStub advances r past one channel's ZIP-compressed
// pixel stream without reporting any scanlines.
//
// Un-predicting the inflated bytes (horizontal differencing for
// CompressionZIPWithPrediction, plus the 16/32-bit byte-plane shuffle
// Photoshop applies before differencing) is an explicit Non-goal (spec
// §1, §4.3): recognizing the compression code without reconstructing
// pixels is sufficient. We still run the bytes through zlib so the
// reader's cursor ends up past the compressed stream rather than
// stopping wherever we gave up guessing; the inflated bytes themselves
// are discarded.
func inflateZIPChannelStub(r *Reader, width, height int) {
	zr, err := zlib.NewReader(&cursorByteReader{r: r})
	if err != nil {
		// Not valid zlib, or truncated: leave the cursor wherever the
		// failed read stopped; the caller bounds consumption anyway.
		return
	}
	defer zr.Close()
	io.Copy(io.Discard, zr)
}

// cursorByteReader adapts Reader's all-or-nothing Read to the partial-read
// semantics io.Reader (and zlib.NewReader) expect. It reads one byte per
// call: Source.Read only ever succeeds by filling its buffer completely or
// else latches not-ok permanently, so pulling a byte at a time is the only
// way to stop exactly at whatever truncation or garbage ends the stream
// without overrunning into unrelated data.
type cursorByteReader struct{ r *Reader }

func (c *cursorByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !c.r.OK() {
		return 0, io.EOF
	}
	p[0] = c.r.U8()
	if !c.r.OK() {
		return 0, io.EOF
	}
	return 1, nil
}
