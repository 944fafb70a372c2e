package sqsh

import (
	"encoding/binary"
	"fmt"
)

// On-disk inode type discriminants.
const (
	TypeDirectory    = 1
	TypeFile         = 2
	TypeSymlink      = 3
	TypeBlockDev     = 4
	TypeCharDev      = 5
	TypeFifo         = 6
	TypeSocket       = 7
	TypeExtDirectory = 8
	TypeExtFile      = 9
	TypeExtSymlink   = 10
	TypeExtBlockDev  = 11
	TypeExtCharDev   = 12
	TypeExtFifo      = 13
	TypeExtSocket    = 14
)

const (
	baseHeaderSize = 16

	// invalidFragment marks a regular file without a tail fragment.
	invalidFragment = 0xffffffff
	// invalidXattr marks an inode without extended attributes.
	invalidXattr = 0xffffffff
	// InvalidBlock is the fragment block location of an absent fragment.
	InvalidBlock = int64(-1)

	// blockUnit is the fixed unit of the derived block count. It is 512
	// for every archive regardless of the archive's own block size.
	blockUnit = 512
)

// file type bits merged into the stored permission-only mode
const (
	modeFifo      = 0o010000
	modeCharDev   = 0o020000
	modeDirectory = 0o040000
	modeBlockDev  = 0o060000
	modeFile      = 0o100000
	modeSymlink   = 0o120000
	modeSocket    = 0o140000
)

// FragmentRef is the resolved fragment location of a regular file. Start is
// InvalidBlock when the file size is an exact multiple of the block size and
// no tail fragment exists.
type FragmentRef struct {
	Start      int64
	Size       uint32
	Offset     uint32
	Compressed bool
}

func (f FragmentRef) Absent() bool {
	return f.Start == InvalidBlock
}

// FileInode is the payload of regular-file inodes. BlockListStart addresses
// the per-block compressed size list that immediately follows the fixed
// record; the data read path consumes it, the decoder only locates it.
type FileInode struct {
	StartBlock     uint64
	Fragment       FragmentRef
	BlockListStart MetaCursor
	Sparse         uint64
}

// DirInode is the payload of directory inodes. IndexCount and IndexStart
// describe the lookup index of extended directories; the index is located
// but not parsed here.
type DirInode struct {
	StartBlock uint32
	Offset     uint16
	Parent     uint32
	IndexCount uint16
	IndexStart MetaCursor
}

// SymlinkInode locates the target text following the fixed record.
type SymlinkInode struct {
	TargetStart  MetaCursor
	TargetLength uint32
}

// DeviceInode carries the unpacked device number of block and character
// device inodes.
type DeviceInode struct {
	RDev  uint32
	Major uint32
	Minor uint32
}

// Inode is a fully decoded inode. Exactly one of File, Dir, Symlink and
// Device is non-nil, matching Type; fifo and socket inodes carry no payload
// beyond the common fields.
type Inode struct {
	Ref    Ref
	Type   uint16
	Mode   uint32
	UID    uint32
	GID    uint32
	Nlink  uint32
	Size   int64
	Blocks int64
	MTime  int64
	ATime  int64
	CTime  int64
	Number uint32

	// XattrIndex is invalidXattr unless an extended record carried one.
	XattrIndex uint32

	File    *FileInode
	Dir     *DirInode
	Symlink *SymlinkInode
	Device  *DeviceInode
}

func (i *Inode) IsDir() bool     { return i.Dir != nil }
func (i *Inode) IsRegular() bool { return i.File != nil }
func (i *Inode) IsSymlink() bool { return i.Symlink != nil }

type baseHeader struct {
	itype    uint16
	mode     uint16
	uidIndex uint16
	gidIndex uint16
	mtime    uint32
	number   uint32
}

func parseBaseHeader(data []byte) baseHeader {
	le := binary.LittleEndian
	return baseHeader{
		itype:    le.Uint16(data[0:]),
		mode:     le.Uint16(data[2:]),
		uidIndex: le.Uint16(data[4:]),
		gidIndex: le.Uint16(data[6:]),
		mtime:    le.Uint32(data[8:]),
		number:   le.Uint32(data[12:]),
	}
}

// inodeRecordSize returns the full on-disk record length for a type
// discriminant, base header included, or 0 for an unknown discriminant.
func inodeRecordSize(itype uint16) int {
	switch itype {
	case TypeDirectory:
		return baseHeaderSize + 16
	case TypeFile:
		return baseHeaderSize + 16
	case TypeSymlink, TypeExtSymlink:
		return baseHeaderSize + 8
	case TypeBlockDev, TypeCharDev:
		return baseHeaderSize + 8
	case TypeFifo, TypeSocket:
		return baseHeaderSize + 4
	case TypeExtDirectory:
		return baseHeaderSize + 24
	case TypeExtFile:
		return baseHeaderSize + 40
	case TypeExtBlockDev, TypeExtCharDev:
		return baseHeaderSize + 12
	case TypeExtFifo, TypeExtSocket:
		return baseHeaderSize + 8
	default:
		return 0
	}
}

func typeModeBits(itype uint16) uint32 {
	switch itype {
	case TypeDirectory, TypeExtDirectory:
		return modeDirectory
	case TypeFile, TypeExtFile:
		return modeFile
	case TypeSymlink, TypeExtSymlink:
		return modeSymlink
	case TypeBlockDev, TypeExtBlockDev:
		return modeBlockDev
	case TypeCharDev, TypeExtCharDev:
		return modeCharDev
	case TypeFifo, TypeExtFifo:
		return modeFifo
	case TypeSocket, TypeExtSocket:
		return modeSocket
	default:
		return 0
	}
}

// decodeDev splits a packed device number into major and minor following the
// kernel's new_decode_dev convention.
func decodeDev(rdev uint32) (major, minor uint32) {
	major = (rdev & 0xfff00) >> 8
	minor = (rdev & 0xff) | ((rdev >> 12) & 0xfff00)
	return major, minor
}

// DecodeInode reads and assembles the inode addressed by ref. The base
// header common to every type is read first; the full type-specific record
// is then re-read from the same start position as one contiguous read. The
// returned inode is complete: any stream or resolver failure aborts the
// decode with no partial result.
func (a *Archive) DecodeInode(ref Ref) (*Inode, error) {
	block, offset := a.layout.Decompose(ref)
	start := MetaCursor{Block: block, Offset: offset}

	var hdr [baseHeaderSize]byte
	if _, err := a.inodeReader.Read(start, hdr[:]); err != nil {
		return nil, &DecodeError{Ref: ref, Err: err}
	}
	base := parseBaseHeader(hdr[:])

	uid, err := a.ids.Lookup(base.uidIndex)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Type: base.itype, Err: err}
	}
	gid, err := a.ids.Lookup(base.gidIndex)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Type: base.itype, Err: err}
	}

	recSize := inodeRecordSize(base.itype)
	if recSize == 0 {
		return nil, &DecodeError{Ref: ref, Type: base.itype, Err: fmt.Errorf("%w: %d", ErrUnknownInodeType, base.itype)}
	}

	rec := make([]byte, recSize)
	next, err := a.inodeReader.Read(start, rec)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Type: base.itype, Err: err}
	}

	ino := &Inode{
		Ref:        ref,
		Type:       base.itype,
		Mode:       uint32(base.mode) | typeModeBits(base.itype),
		UID:        uid,
		GID:        gid,
		Nlink:      1,
		MTime:      int64(base.mtime),
		ATime:      int64(base.mtime),
		CTime:      int64(base.mtime),
		Number:     base.number,
		XattrIndex: invalidXattr,
	}

	le := binary.LittleEndian
	p := rec[baseHeaderSize:]
	var sparse uint64

	switch base.itype {
	case TypeFile:
		// the basic record stores no link count; hard links force the
		// extended form
		f := &FileInode{
			StartBlock:     uint64(le.Uint32(p[0:])),
			BlockListStart: next,
		}
		ino.Size = int64(le.Uint32(p[12:]))
		if err := a.resolveFragment(f, le.Uint32(p[4:]), le.Uint32(p[8:])); err != nil {
			return nil, &DecodeError{Ref: ref, Type: base.itype, Err: err}
		}
		ino.File = f

	case TypeExtFile:
		f := &FileInode{
			StartBlock:     le.Uint64(p[0:]),
			BlockListStart: next,
			Sparse:         le.Uint64(p[16:]),
		}
		sparse = f.Sparse
		ino.Size = int64(le.Uint64(p[8:]))
		ino.Nlink = le.Uint32(p[24:])
		ino.XattrIndex = le.Uint32(p[36:])
		if err := a.resolveFragment(f, le.Uint32(p[28:]), le.Uint32(p[32:])); err != nil {
			return nil, &DecodeError{Ref: ref, Type: base.itype, Err: err}
		}
		ino.File = f

	case TypeDirectory:
		d := &DirInode{
			StartBlock: le.Uint32(p[0:]),
			Offset:     le.Uint16(p[10:]),
			Parent:     le.Uint32(p[12:]),
		}
		ino.Nlink = le.Uint32(p[4:])
		// the stored length already includes the fixed "." and ".."
		// overhead; passed through unchanged
		ino.Size = int64(le.Uint16(p[8:]))
		ino.Dir = d

	case TypeExtDirectory:
		d := &DirInode{
			StartBlock: le.Uint32(p[8:]),
			Offset:     le.Uint16(p[18:]),
			Parent:     le.Uint32(p[12:]),
			IndexCount: le.Uint16(p[16:]),
			IndexStart: next,
		}
		ino.Nlink = le.Uint32(p[0:])
		ino.Size = int64(le.Uint32(p[4:]))
		ino.XattrIndex = le.Uint32(p[20:])
		ino.Dir = d

	case TypeSymlink, TypeExtSymlink:
		ino.Nlink = le.Uint32(p[0:])
		ino.Symlink = &SymlinkInode{
			TargetStart:  next,
			TargetLength: le.Uint32(p[4:]),
		}
		ino.Size = int64(ino.Symlink.TargetLength)

	case TypeBlockDev, TypeCharDev, TypeExtBlockDev, TypeExtCharDev:
		ino.Nlink = le.Uint32(p[0:])
		rdev := le.Uint32(p[4:])
		major, minor := decodeDev(rdev)
		ino.Device = &DeviceInode{RDev: rdev, Major: major, Minor: minor}
		if base.itype == TypeExtBlockDev || base.itype == TypeExtCharDev {
			ino.XattrIndex = le.Uint32(p[8:])
		}

	case TypeFifo, TypeSocket, TypeExtFifo, TypeExtSocket:
		ino.Nlink = le.Uint32(p[0:])
		if base.itype == TypeExtFifo || base.itype == TypeExtSocket {
			ino.XattrIndex = le.Uint32(p[4:])
		}
	}

	ino.Blocks = blockCount(ino.Size, sparse)
	return ino, nil
}

// resolveFragment resolves a stored fragment index into the file payload,
// or marks the fragment absent without consulting the table when the index
// is the reserved sentinel.
func (a *Archive) resolveFragment(f *FileInode, index, offset uint32) error {
	if index == invalidFragment {
		f.Fragment = FragmentRef{Start: InvalidBlock}
		return nil
	}
	entry, err := a.fragments.Lookup(index)
	if err != nil {
		return err
	}
	f.Fragment = FragmentRef{
		Start:      entry.Start,
		Size:       entry.Size,
		Offset:     offset,
		Compressed: entry.Compressed,
	}
	return nil
}

// blockCount derives the 512-byte block usage from the logical size, with
// sparse bytes excluded.
func blockCount(size int64, sparse uint64) int64 {
	if size <= 0 {
		return 0
	}
	used := size - int64(sparse)
	if used <= 0 {
		return 0
	}
	return (used + blockUnit - 1) / blockUnit
}
