package compress

import (
	"errors"
	"fmt"
)

// Compression type ids stored in the superblock.
const (
	TypeZlib = 1
	TypeLzma = 2
	TypeLzo  = 3
	TypeXz   = 4
	TypeLz4  = 5
	TypeZstd = 6
)

var ErrUnsupported = errors.New("unsupported compression type")

// Compressor encodes and decodes one metadata or data block at a time.
// Decode treats dst as a scratch buffer with capacity for the decompressed
// bound; the returned slice may alias it. Encode exists for archive
// construction and is exercised by tests.
type Compressor interface {
	Encode(dst, src []byte) ([]byte, error)
	Decode(dst, src []byte) ([]byte, error)
}

// New builds the Compressor for a superblock compression id. options is the
// raw compressor options payload, empty when the archive carries none.
func New(cType uint16, options []byte) (Compressor, error) {
	switch cType {
	case TypeZlib:
		return NewZlibCompressor(), nil
	case TypeXz:
		return NewXzCompressor(options)
	case TypeLz4:
		return NewLz4Compressor(options)
	case TypeZstd:
		return NewZstdCompressor(), nil
	default:
		// lzma and lzo have no maintained Go implementation.
		return nil, fmt.Errorf("%w: %d", ErrUnsupported, cType)
	}
}
