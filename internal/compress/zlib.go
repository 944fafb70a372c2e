package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// ZlibCompressor handles compression id 1 ("gzip" in squashfs terms; the
// blocks are raw zlib streams).
type ZlibCompressor struct{}

func NewZlibCompressor() *ZlibCompressor {
	return &ZlibCompressor{}
}

func (ZlibCompressor) Encode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst[:0])
	w := zlib.NewWriter(buf)
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("error compressing zlib block: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("error compressing zlib block: %w", err)
	}
	return buf.Bytes(), nil
}

func (ZlibCompressor) Decode(dst, src []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("error decompressing zlib block: %w", err)
	}
	defer r.Close()
	buf := bytes.NewBuffer(dst[:0])
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("error decompressing zlib block: %w", err)
	}
	return buf.Bytes(), nil
}
