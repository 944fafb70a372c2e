package sqsh

import (
	"encoding/binary"
	"fmt"
	"io"
)

const superblockSize = 96

const (
	// superblock flag bits
	flagUncompressedInodes = 0x0001
	flagUncompressedData   = 0x0002
	flagUncompressedFrags  = 0x0008
	flagNoFragments        = 0x0010
	flagAlwaysFragments    = 0x0020
	flagDuplicates         = 0x0040
	flagExportable         = 0x0080
	flagUncompressedXattrs = 0x0100
	flagNoXattrs           = 0x0200
	flagCompressorOptions  = 0x0400
	flagUncompressedIDs    = 0x0800
)

var magic = [4]byte{'h', 's', 'q', 's'}

// Superblock is the 96-byte header at the start of every archive. All table
// start offsets are absolute byte positions in the archive.
type Superblock struct {
	InodeCount      uint32
	MkfsTime        uint32
	BlockSize       uint32
	FragmentCount   uint32
	CompressionType uint16
	BlockSizeLog2   uint16
	Flags           uint16
	IDCount         uint16
	VersionMajor    uint16
	VersionMinor    uint16
	RootInode       Ref
	BytesUsed       int64
	IDTableStart    int64
	XattrTableStart int64
	InodeTableStart int64
	DirTableStart   int64
	FragTableStart   int64
	LookupTableStart int64
}

func parseSuperblock(data []byte) (*Superblock, error) {
	if len(data) < superblockSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidSuperblock, len(data), superblockSize)
	}
	if [4]byte(data[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidSuperblock)
	}

	le := binary.LittleEndian
	sb := &Superblock{
		InodeCount:       le.Uint32(data[4:]),
		MkfsTime:         le.Uint32(data[8:]),
		BlockSize:        le.Uint32(data[12:]),
		FragmentCount:    le.Uint32(data[16:]),
		CompressionType:  le.Uint16(data[20:]),
		BlockSizeLog2:    le.Uint16(data[22:]),
		Flags:            le.Uint16(data[24:]),
		IDCount:          le.Uint16(data[26:]),
		VersionMajor:     le.Uint16(data[28:]),
		VersionMinor:     le.Uint16(data[30:]),
		RootInode:        Ref(le.Uint64(data[32:])),
		BytesUsed:        int64(le.Uint64(data[40:])),
		IDTableStart:     int64(le.Uint64(data[48:])),
		XattrTableStart:  int64(le.Uint64(data[56:])),
		InodeTableStart:  int64(le.Uint64(data[64:])),
		DirTableStart:    int64(le.Uint64(data[72:])),
		FragTableStart:   int64(le.Uint64(data[80:])),
		LookupTableStart: int64(le.Uint64(data[88:])),
	}

	if sb.VersionMajor != 4 {
		return nil, fmt.Errorf("%w: version %d.%d not supported", ErrInvalidSuperblock, sb.VersionMajor, sb.VersionMinor)
	}
	if sb.BlockSize != 1<<sb.BlockSizeLog2 {
		return nil, fmt.Errorf("%w: block size %d does not match log2 %d", ErrInvalidSuperblock, sb.BlockSize, sb.BlockSizeLog2)
	}
	return sb, nil
}

func readSuperblock(r io.ReaderAt) (*Superblock, error) {
	buf := make([]byte, superblockSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("error reading superblock: %w", err)
	}
	return parseSuperblock(buf)
}
