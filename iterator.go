package sqsh

import (
	"encoding/binary"
	"fmt"
)

const (
	dirHeaderSize = 12
	dirEntrySize  = 8
	// stored directory sizes include three bytes of virtual "." and ".."
	// overhead that never appears in the listing itself
	dirSizeOverhead = 3
	// entry counts are stored off by one; a header can cover at most 256
	// entries
	dirMaxEntryCount = 256
)

// DirIterator walks the entries of one directory listing in on-disk order.
// Use Next until it returns false, then check Err.
//
//	it := a.DirIterator(ino)
//	for it.Next() {
//		entry := it.Entry()
//	}
//	if err := it.Err(); err != nil { ... }
type DirIterator struct {
	a         *Archive
	cur       MetaCursor
	remaining int

	// current run shared by the entries under one header
	runCount   int
	startBlock uint32
	baseNumber uint32

	entry DirEntry
	err   error
}

// DirIterator positions an iterator at the start of the directory listing
// of ino. A non-directory inode yields an iterator that fails immediately.
func (a *Archive) DirIterator(ino *Inode) *DirIterator {
	it := &DirIterator{a: a}
	if ino.Dir == nil {
		it.err = ErrNotDirectory
		return it
	}
	it.cur = MetaCursor{Block: int64(ino.Dir.StartBlock), Offset: int(ino.Dir.Offset)}
	it.remaining = int(ino.Size) - dirSizeOverhead
	return it
}

func (it *DirIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.runCount == 0 {
		if it.remaining <= 0 {
			return false
		}
		if !it.readHeader() {
			return false
		}
	}
	return it.readEntry()
}

// Entry returns the entry the last successful Next advanced to.
func (it *DirIterator) Entry() DirEntry {
	return it.entry
}

func (it *DirIterator) Err() error {
	return it.err
}

func (it *DirIterator) readHeader() bool {
	var hdr [dirHeaderSize]byte
	cur, err := it.a.dirReader.Read(it.cur, hdr[:])
	if err != nil {
		it.err = fmt.Errorf("error reading directory header: %w", err)
		return false
	}
	it.cur = cur
	it.remaining -= dirHeaderSize

	le := binary.LittleEndian
	count := int(le.Uint32(hdr[0:])) + 1
	if count > dirMaxEntryCount {
		it.err = fmt.Errorf("%w: directory header claims %d entries", ErrCorruptMetadata, count)
		return false
	}
	it.runCount = count
	it.startBlock = le.Uint32(hdr[4:])
	it.baseNumber = le.Uint32(hdr[8:])
	return true
}

func (it *DirIterator) readEntry() bool {
	var raw [dirEntrySize]byte
	cur, err := it.a.dirReader.Read(it.cur, raw[:])
	if err != nil {
		it.err = fmt.Errorf("error reading directory entry: %w", err)
		return false
	}

	le := binary.LittleEndian
	offset := le.Uint16(raw[0:])
	delta := int16(le.Uint16(raw[2:]))
	etype := le.Uint16(raw[4:])
	// stored name length is one less than the actual length
	name := make([]byte, int(le.Uint16(raw[6:]))+1)
	cur, err = it.a.dirReader.Read(cur, name)
	if err != nil {
		it.err = fmt.Errorf("error reading directory entry name: %w", err)
		return false
	}

	it.cur = cur
	it.remaining -= dirEntrySize + len(name)
	it.runCount--
	it.entry = DirEntry{
		Name:   string(name),
		Type:   etype,
		Number: uint32(int64(it.baseNumber) + int64(delta)),
		Ref:    it.a.layout.Compose(int64(it.startBlock), int(offset)),
	}
	return true
}
