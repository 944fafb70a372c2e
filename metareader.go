package sqsh

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/breeze-go-rust/go-sqsh/internal/compress"
)

// metadata block header: low 15 bits are the on-disk length, the top bit is
// set when the block is stored uncompressed.
const (
	metaHeaderSize       = 2
	metaUncompressedFlag = 0x8000
	metaLengthMask       = 0x7fff
)

// MetaCursor addresses one byte inside the metadata stream: the offset of a
// compressed metadata block relative to the table start, and the byte offset
// into that block's decompressed content.
type MetaCursor struct {
	Block  int64
	Offset int
}

// MetaReader performs positioned reads over one metadata table. Reads that
// run past the end of a block's decompressed content continue transparently
// into the following block. The reader itself is stateless: the cursor is
// passed in and the advanced cursor returned, so concurrent reads never
// share mutable state.
type MetaReader struct {
	r          io.ReaderAt
	compressor compress.Compressor // nil: blocks must be stored uncompressed
	start      int64               // absolute offset of the table in the archive
	layout     Layout
}

func NewMetaReader(r io.ReaderAt, c compress.Compressor, start int64, layout Layout) *MetaReader {
	return &MetaReader{
		r:          r,
		compressor: c,
		start:      start,
		layout:     layout,
	}
}

// Read fills dst starting at cur and returns the cursor positioned
// immediately after the last byte read. A short read anywhere in the chain
// fails the whole call.
func (mr *MetaReader) Read(cur MetaCursor, dst []byte) (MetaCursor, error) {
	filled := 0
	for filled < len(dst) {
		data, diskLen, err := mr.readBlock(cur.Block)
		if err != nil {
			return MetaCursor{}, err
		}
		if cur.Offset > len(data) {
			return MetaCursor{}, fmt.Errorf("%w: offset %d beyond block of %d bytes", ErrCorruptMetadata, cur.Offset, len(data))
		}
		n := copy(dst[filled:], data[cur.Offset:])
		filled += n
		cur.Offset += n
		if filled < len(dst) {
			if len(data) == 0 {
				return MetaCursor{}, fmt.Errorf("%w: empty metadata block at %d", ErrCorruptMetadata, cur.Block)
			}
			cur = MetaCursor{Block: cur.Block + metaHeaderSize + int64(diskLen)}
		}
	}
	return cur, nil
}

// BlockAt returns the full decompressed content of the metadata block at
// the given table-relative offset.
func (mr *MetaReader) BlockAt(block int64) ([]byte, error) {
	data, _, err := mr.readBlock(block)
	return data, err
}

// readBlock loads and decompresses the metadata block at the given offset
// relative to the table start, returning the decompressed content and the
// on-disk length used to locate the next block.
func (mr *MetaReader) readBlock(block int64) ([]byte, int, error) {
	var hdr [metaHeaderSize]byte
	if _, err := mr.r.ReadAt(hdr[:], mr.start+block); err != nil {
		return nil, 0, fmt.Errorf("error reading metadata block header at %d: %w", mr.start+block, err)
	}
	word := binary.LittleEndian.Uint16(hdr[:])
	diskLen := int(word & metaLengthMask)
	stored := word&metaUncompressedFlag != 0

	if diskLen == 0 || (stored && diskLen > mr.layout.MetadataBlockSize) {
		return nil, 0, fmt.Errorf("%w: block at %d has on-disk length %d", ErrCorruptMetadata, block, diskLen)
	}

	payload := make([]byte, diskLen)
	if _, err := mr.r.ReadAt(payload, mr.start+block+metaHeaderSize); err != nil {
		return nil, 0, fmt.Errorf("error reading metadata block at %d: %w", mr.start+block, err)
	}
	if stored {
		return payload, diskLen, nil
	}

	if mr.compressor == nil {
		return nil, 0, fmt.Errorf("%w: compressed block at %d in an uncompressed-only table", ErrCorruptMetadata, block)
	}
	data, err := mr.compressor.Decode(make([]byte, mr.layout.MetadataBlockSize), payload)
	if err != nil {
		return nil, 0, fmt.Errorf("error decompressing metadata block at %d: %w", block, err)
	}
	if len(data) > mr.layout.MetadataBlockSize {
		return nil, 0, fmt.Errorf("%w: block at %d decompressed to %d bytes", ErrCorruptMetadata, block, len(data))
	}
	return data, diskLen, nil
}
