package sqsh

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/breeze-go-rust/go-sqsh/internal/compress"
)

func TestMountCompressedMetadata(t *testing.T) {
	t.Parallel()

	for _, compression := range []uint16{compress.TypeZlib, compress.TypeZstd} {
		hdr := inodeHeader(TypeFile, 0o644, 0, 0, 1700000000, 7)
		a := testFS{
			inodeTable:   regRecord(hdr, 0x2000, invalidFragment, 0, 1000),
			compression:  compression,
			compressMeta: true,
		}.mount(t)

		ino, err := a.DecodeInode(testRef())
		if err != nil {
			t.Fatalf("compression %d: decode: %v", compression, err)
		}
		if ino.Size != 1000 {
			t.Fatalf("compression %d: size = %d", compression, ino.Size)
		}
	}
}

func TestMountCompressorOptions(t *testing.T) {
	t.Parallel()

	// xz with an explicit 64 KiB dictionary; the options block after the
	// superblock must be read before any compressed metadata
	options := le32(nil, 1<<16)
	options = le32(options, 0)

	hdr := inodeHeader(TypeFile, 0o644, 0, 0, 1700000000, 7)
	a := testFS{
		inodeTable:   regRecord(hdr, 0x2000, invalidFragment, 0, 1000),
		compression:  compress.TypeXz,
		compressMeta: true,
		options:      options,
	}.mount(t)

	ino, err := a.DecodeInode(testRef())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ino.Size != 1000 {
		t.Fatalf("size = %d", ino.Size)
	}
}

func TestMountUnsupportedCompression(t *testing.T) {
	t.Parallel()

	image := testFS{compression: compress.TypeLzo}.image(t)
	if _, err := New(bytes.NewReader(image)); !errors.Is(err, ErrUnsupportedCompression) {
		t.Fatalf("got %v, want ErrUnsupportedCompression", err)
	}
}

func TestMountRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := New(bytes.NewReader(make([]byte, 200))); !errors.Is(err, ErrInvalidSuperblock) {
		t.Fatalf("got %v, want ErrInvalidSuperblock", err)
	}
}

func TestMountDecodesRoot(t *testing.T) {
	t.Parallel()

	a := testFS{}.mount(t)
	root := a.Root()
	if root == nil || !root.IsDir() {
		t.Fatalf("root = %+v", root)
	}
	if root.Ref != a.Superblock().RootInode {
		t.Fatal("root inode decoded from the wrong reference")
	}
}

func TestOpenFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.sqsh")
	if err := os.WriteFile(path, testFS{}.image(t), 0o644); err != nil {
		t.Fatalf("writing archive: %v", err)
	}

	a, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !a.Root().IsDir() {
		t.Fatal("root is not a directory")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Open(filepath.Join(t.TempDir(), "none.sqsh")); err == nil {
		t.Fatal("expected an error opening a missing archive")
	}
}
