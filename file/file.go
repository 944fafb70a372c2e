package file

import (
	"fmt"
	"os"
)

// File is a read-only view of an archive on disk. It implements io.ReaderAt
// and holds a shared advisory lock for its lifetime so nothing rewrites the
// archive underneath concurrent readers.
type File struct {
	file  *os.File
	flock FLock
}

func Open(filePath string, lock FLock) (*File, error) {
	file, err := os.OpenFile(filePath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %v", err)
	}
	if lock != nil {
		if err := lock.Lock(file); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("error locking file: %v", err)
		}
	}
	f := &File{
		file:  file,
		flock: lock,
	}
	return f, nil
}

func (f *File) ReadAt(data []byte, offset int64) (int, error) {
	return f.file.ReadAt(data, offset)
}

func (f *File) Size() (int64, error) {
	info, err := f.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("error statting file: %v", err)
	}
	return info.Size(), nil
}

func (f *File) Close() error {
	if f.flock != nil {
		if err := f.flock.Unlock(f.file); err != nil {
			return fmt.Errorf("error unlocking file: %v", err)
		}
	}
	return f.file.Close()
}
