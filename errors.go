package sqsh

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSuperblock = errors.New("sqsh: invalid superblock")
	ErrUnknownInodeType  = errors.New("sqsh: unknown inode type")
	ErrIdentityRange     = errors.New("sqsh: id index out of range")
	ErrFragmentRange     = errors.New("sqsh: fragment index out of range")
	ErrCorruptMetadata   = errors.New("sqsh: corrupt metadata block")
	ErrNotDirectory      = errors.New("sqsh: inode is not a directory")
	ErrNotSymlink        = errors.New("sqsh: inode is not a symlink")
	ErrNotFound          = errors.New("sqsh: no such directory entry")
)

// DecodeError wraps every failure leaving DecodeInode with the inode
// reference it was decoding and, once the header has been read, the on-disk
// type discriminant. Type is 0 when the failure happened before the header
// was available.
type DecodeError struct {
	Ref  Ref
	Type uint16
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Type != 0 {
		return fmt.Sprintf("sqsh: decode inode 0x%x (type %d): %v", uint64(e.Ref), e.Type, e.Err)
	}
	return fmt.Sprintf("sqsh: decode inode 0x%x: %v", uint64(e.Ref), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
