package sqsh

import (
	"fmt"
	"strings"
)

// DirEntry is one decoded directory entry. Type is always a basic
// discriminant even when the entry's inode record is extended. Ref
// addresses the entry's inode in the inode table.
type DirEntry struct {
	Name   string
	Type   uint16
	Number uint32
	Ref    Ref
}

// ReadDir decodes the full listing of a directory inode. Entries come back
// in on-disk order, which squashfs guarantees to be sorted by name.
func (a *Archive) ReadDir(ino *Inode) ([]DirEntry, error) {
	var entries []DirEntry
	it := a.DirIterator(ino)
	for it.Next() {
		entries = append(entries, it.Entry())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Lookup resolves one name inside a directory and decodes its inode.
// The extended-directory lookup index is not consulted; the listing is
// scanned in order.
func (a *Archive) Lookup(dir *Inode, name string) (*Inode, error) {
	it := a.DirIterator(dir)
	for it.Next() {
		if it.Entry().Name == name {
			return a.DecodeInode(it.Entry().Ref)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// LookupPath resolves a "/"-separated path from the root directory.
// Symlinks along the path are not followed.
func (a *Archive) LookupPath(path string) (*Inode, error) {
	ino := a.root
	for _, part := range strings.Split(path, "/") {
		if part == "" || part == "." {
			continue
		}
		next, err := a.Lookup(ino, part)
		if err != nil {
			return nil, fmt.Errorf("sqsh: lookup %q: %w", path, err)
		}
		ino = next
	}
	return ino, nil
}

// ReadLink reads the target text of a symlink inode from the metadata
// stream.
func (a *Archive) ReadLink(ino *Inode) (string, error) {
	if ino.Symlink == nil {
		return "", ErrNotSymlink
	}
	target := make([]byte, ino.Symlink.TargetLength)
	if _, err := a.inodeReader.Read(ino.Symlink.TargetStart, target); err != nil {
		return "", fmt.Errorf("error reading symlink target: %w", err)
	}
	return string(target), nil
}
