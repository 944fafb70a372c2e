package sqsh

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/breeze-go-rust/go-sqsh/internal/compress"
)

const (
	fragmentEntrySize = 16
	// size field bit 24 marks a fragment block stored uncompressed.
	fragmentUncompressedFlag = 1 << 24
	fragmentSizeMask         = 0xffffff
)

// FragmentEntry locates one shared fragment block in the archive.
type FragmentEntry struct {
	Start      int64
	Size       uint32
	Compressed bool
}

// FragmentTable resolves fragment indices from regular-file inodes to the
// location of the fragment block holding their tail data. The index of
// entry-block locations is loaded at mount; entries themselves are read on
// demand through the stateless metadata reader, so concurrent lookups are
// safe.
type FragmentTable struct {
	mr        *MetaReader
	locations []int64
	count     uint32
	perBlock  int
}

func loadFragmentTable(r io.ReaderAt, c compress.Compressor, sb *Superblock, layout Layout) (*FragmentTable, error) {
	t := &FragmentTable{
		mr:       NewMetaReader(r, c, 0, layout),
		count:    sb.FragmentCount,
		perBlock: layout.MetadataBlockSize / fragmentEntrySize,
	}
	if sb.FragmentCount == 0 {
		return t, nil
	}

	blocks := (int(sb.FragmentCount) + t.perBlock - 1) / t.perBlock
	index := make([]byte, blocks*8)
	if _, err := r.ReadAt(index, sb.FragTableStart); err != nil {
		return nil, fmt.Errorf("error reading fragment table index: %w", err)
	}
	t.locations = make([]int64, blocks)
	for i := range t.locations {
		t.locations[i] = int64(binary.LittleEndian.Uint64(index[i*8:]))
	}
	return t, nil
}

// Lookup resolves a fragment index to the entry describing its block.
func (t *FragmentTable) Lookup(index uint32) (FragmentEntry, error) {
	if index >= t.count {
		return FragmentEntry{}, fmt.Errorf("%w: index %d, table holds %d", ErrFragmentRange, index, t.count)
	}

	block := int(index) / t.perBlock
	cur := MetaCursor{
		Block:  t.locations[block],
		Offset: (int(index) % t.perBlock) * fragmentEntrySize,
	}
	var raw [fragmentEntrySize]byte
	if _, err := t.mr.Read(cur, raw[:]); err != nil {
		return FragmentEntry{}, fmt.Errorf("error reading fragment entry %d: %w", index, err)
	}

	size := binary.LittleEndian.Uint32(raw[8:])
	return FragmentEntry{
		Start:      int64(binary.LittleEndian.Uint64(raw[0:])),
		Size:       size & fragmentSizeMask,
		Compressed: size&fragmentUncompressedFlag == 0,
	}, nil
}
