package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

const (
	xzDefaultDictSize = 8192
	xzMinDictSize     = 1 << 12
)

// XzCompressor handles compression id 4. The optional options payload
// carries the dictionary size and the BCJ executable filter bits; the
// filters only matter for data blocks of executables and are ignored here.
type XzCompressor struct {
	dictSize int
	filters  uint32
}

func NewXzCompressor(options []byte) (*XzCompressor, error) {
	c := &XzCompressor{dictSize: xzDefaultDictSize}
	if len(options) == 0 {
		return c, nil
	}
	if len(options) < 8 {
		return nil, fmt.Errorf("xz options block too small: %d bytes", len(options))
	}
	c.dictSize = int(binary.LittleEndian.Uint32(options[0:]))
	c.filters = binary.LittleEndian.Uint32(options[4:])
	if c.dictSize < xzMinDictSize {
		c.dictSize = xzMinDictSize
	}
	return c, nil
}

func (c *XzCompressor) Encode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst[:0])
	cfg := xz.WriterConfig{DictCap: c.dictSize}
	w, err := cfg.NewWriter(buf)
	if err != nil {
		return nil, fmt.Errorf("error compressing xz block: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("error compressing xz block: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("error compressing xz block: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *XzCompressor) Decode(dst, src []byte) ([]byte, error) {
	cfg := xz.ReaderConfig{DictCap: c.dictSize}
	r, err := cfg.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("error decompressing xz block: %w", err)
	}
	buf := bytes.NewBuffer(dst[:0])
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("error decompressing xz block: %w", err)
	}
	return buf.Bytes(), nil
}
