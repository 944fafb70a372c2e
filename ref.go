package sqsh

// Ref is the 48-bit on-disk inode reference. It encodes the offset of the
// compressed metadata block holding the inode (relative to the inode table
// start) in the high bits and the byte offset into that block's decompressed
// content in the low bits.
type Ref uint64

// Layout carries the format constants that are stable for a given archive
// version but are not derivable from the superblock. The reference offset
// width is 16 bits in every 4.x archive; it is injected rather than
// hard-coded so a format revision only touches the mount path.
type Layout struct {
	// OffsetBits is the width of the intra-block offset field in a Ref.
	OffsetBits uint
	// MetadataBlockSize is the decompressed size bound of one metadata block.
	MetadataBlockSize int
}

func DefaultLayout() Layout {
	return Layout{
		OffsetBits:        16,
		MetadataBlockSize: 8192,
	}
}

// Compose packs a (block, offset) pair into a Ref. The caller must ensure
// offset fits OffsetBits and block fits the remaining bits; references built
// from on-disk values always do.
func (l Layout) Compose(block int64, offset int) Ref {
	return Ref(uint64(block)<<l.OffsetBits | uint64(offset))
}

// Decompose splits a Ref into the metadata block offset and the byte offset
// into the block's decompressed content.
func (l Layout) Decompose(ref Ref) (block int64, offset int) {
	return int64(ref >> l.OffsetBits), int(uint64(ref) & (1<<l.OffsetBits - 1))
}
