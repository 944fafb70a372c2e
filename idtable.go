package sqsh

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/breeze-go-rust/go-sqsh/internal/compress"
)

const idEntrySize = 4

// IDTable resolves the small uid/gid indices stored in inode records to
// numeric ids. The table is decoded once at mount and immutable afterwards,
// so Lookup is safe for concurrent decodes.
type IDTable struct {
	ids []uint32
}

// loadIDTable reads the id index (an array of absolute metadata block
// locations) and then every id block it points at.
func loadIDTable(r io.ReaderAt, c compress.Compressor, sb *Superblock, layout Layout) (*IDTable, error) {
	count := int(sb.IDCount)
	if count == 0 {
		return &IDTable{}, nil
	}

	idsPerBlock := layout.MetadataBlockSize / idEntrySize
	blocks := (count + idsPerBlock - 1) / idsPerBlock

	index := make([]byte, blocks*8)
	if _, err := r.ReadAt(index, sb.IDTableStart); err != nil {
		return nil, fmt.Errorf("error reading id table index: %w", err)
	}

	mr := NewMetaReader(r, c, 0, layout)
	ids := make([]uint32, 0, count)
	buf := make([]byte, idsPerBlock*idEntrySize)
	for b := 0; b < blocks; b++ {
		location := int64(binary.LittleEndian.Uint64(index[b*8:]))
		n := idsPerBlock
		if remaining := count - len(ids); remaining < n {
			n = remaining
		}
		chunk := buf[:n*idEntrySize]
		if _, err := mr.Read(MetaCursor{Block: location}, chunk); err != nil {
			return nil, fmt.Errorf("error reading id table block %d: %w", b, err)
		}
		for i := 0; i < n; i++ {
			ids = append(ids, binary.LittleEndian.Uint32(chunk[i*idEntrySize:]))
		}
	}
	return &IDTable{ids: ids}, nil
}

// Lookup maps an id index from an inode record to its numeric id.
func (t *IDTable) Lookup(index uint16) (uint32, error) {
	if int(index) >= len(t.ids) {
		return 0, fmt.Errorf("%w: index %d, table holds %d", ErrIdentityRange, index, len(t.ids))
	}
	return t.ids[index], nil
}
