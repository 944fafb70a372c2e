// Package sqsh reads squashfs 4.0 archives: a compressed, read-only
// filesystem whose metadata (inodes, directories, lookup tables) is packed
// into 8 KiB compressed metadata blocks. The decoder turns 48-bit inode
// references into fully populated Inode values; data block reads are out of
// scope.
package sqsh

import (
	"fmt"
	"io"

	"github.com/breeze-go-rust/go-sqsh/file"
	"github.com/breeze-go-rust/go-sqsh/internal/compress"
)

// ErrUnsupportedCompression reports a superblock compression id this
// library has no backend for (lzma, lzo, or an unknown id).
var ErrUnsupportedCompression = compress.ErrUnsupported

// Archive is a mounted squashfs archive. All tables are immutable once New
// returns; every method is safe for concurrent use.
type Archive struct {
	r      io.ReaderAt
	closer io.Closer
	layout Layout

	sb          *Superblock
	compressor  compress.Compressor
	inodeReader *MetaReader
	dirReader   *MetaReader
	ids         *IDTable
	fragments   *FragmentTable
	root        *Inode
}

// Open mounts the archive at path, holding a shared lock on the file until
// Close.
func Open(path string) (*Archive, error) {
	f, err := file.Open(path, file.NewFLocker())
	if err != nil {
		return nil, fmt.Errorf("error opening archive %s: %w", path, err)
	}
	a, err := New(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// New mounts an archive from any io.ReaderAt using the default format
// layout.
func New(r io.ReaderAt) (*Archive, error) {
	return NewWithLayout(r, DefaultLayout())
}

func NewWithLayout(r io.ReaderAt, layout Layout) (*Archive, error) {
	sb, err := readSuperblock(r)
	if err != nil {
		return nil, err
	}

	options, err := readCompressorOptions(r, sb, layout)
	if err != nil {
		return nil, err
	}
	compressor, err := compress.New(sb.CompressionType, options)
	if err != nil {
		return nil, fmt.Errorf("sqsh: %w", err)
	}

	a := &Archive{
		r:           r,
		layout:      layout,
		sb:          sb,
		compressor:  compressor,
		inodeReader: NewMetaReader(r, compressor, sb.InodeTableStart, layout),
		dirReader:   NewMetaReader(r, compressor, sb.DirTableStart, layout),
	}

	if a.ids, err = loadIDTable(r, compressor, sb, layout); err != nil {
		return nil, err
	}
	if a.fragments, err = loadFragmentTable(r, compressor, sb, layout); err != nil {
		return nil, err
	}

	// decode the root eagerly so a truncated or corrupt archive fails the
	// mount instead of the first lookup
	if a.root, err = a.DecodeInode(sb.RootInode); err != nil {
		return nil, err
	}
	if !a.root.IsDir() {
		return nil, fmt.Errorf("%w: root inode is not a directory", ErrInvalidSuperblock)
	}
	return a, nil
}

// readCompressorOptions reads the optional compressor options metadata
// block that follows the superblock. The block is always stored
// uncompressed since no compressor exists yet while reading it.
func readCompressorOptions(r io.ReaderAt, sb *Superblock, layout Layout) ([]byte, error) {
	if sb.Flags&flagCompressorOptions == 0 {
		return nil, nil
	}
	mr := NewMetaReader(r, nil, superblockSize, layout)
	options, err := mr.BlockAt(0)
	if err != nil {
		return nil, fmt.Errorf("error reading compressor options: %w", err)
	}
	return options, nil
}

// Superblock returns the parsed archive header.
func (a *Archive) Superblock() *Superblock {
	return a.sb
}

// Root returns the root directory inode decoded at mount time.
func (a *Archive) Root() *Inode {
	return a.root
}

func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
