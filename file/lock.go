package file

import (
	"os"
	"syscall"
)

// FLock guards an archive file for the duration of a mount.
type FLock interface {
	Lock(file *os.File) error
	Unlock(file *os.File) error
}

// FLocker takes a shared flock: any number of readers may mount the same
// archive, but a writer holding an exclusive lock blocks them.
type FLocker struct{}

func NewFLocker() *FLocker {
	return &FLocker{}
}

func (f *FLocker) Lock(file *os.File) error {
	return syscall.Flock(int(file.Fd()), syscall.LOCK_SH)
}

func (f *FLocker) Unlock(file *os.File) error {
	return syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
}
