package compress

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

const lz4OptionsVersion = 1

// Lz4Compressor handles compression id 5 (raw lz4 block format). The
// options payload is mandatory for lz4 archives and fixes the stream
// version; the flags word selects high-compression mode, which only affects
// encoding.
type Lz4Compressor struct {
	flags uint32
}

func NewLz4Compressor(options []byte) (*Lz4Compressor, error) {
	c := &Lz4Compressor{}
	if len(options) == 0 {
		return c, nil
	}
	if len(options) < 8 {
		return nil, fmt.Errorf("lz4 options block too small: %d bytes", len(options))
	}
	version := binary.LittleEndian.Uint32(options[0:])
	if version != lz4OptionsVersion {
		return nil, fmt.Errorf("unknown lz4 stream version %d", version)
	}
	c.flags = binary.LittleEndian.Uint32(options[4:])
	return c, nil
}

func (c *Lz4Compressor) Encode(dst, src []byte) ([]byte, error) {
	if cap(dst) < lz4.CompressBlockBound(len(src)) {
		dst = make([]byte, lz4.CompressBlockBound(len(src)))
	}
	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(src, dst[:cap(dst)])
	if err != nil {
		return nil, fmt.Errorf("error compressing lz4 block: %w", err)
	}
	return dst[:n], nil
}

func (c *Lz4Compressor) Decode(dst, src []byte) ([]byte, error) {
	n, err := lz4.UncompressBlock(src, dst[:cap(dst)])
	if err != nil {
		return nil, fmt.Errorf("error decompressing lz4 block: %w", err)
	}
	return dst[:n], nil
}
