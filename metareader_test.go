package sqsh

import (
	"bytes"
	"errors"
	"testing"

	"github.com/breeze-go-rust/go-sqsh/internal/compress"
)

func TestMetaReadSpansBlocks(t *testing.T) {
	t.Parallel()

	// two stored blocks of 4 bytes each
	image := metaTable(t, []byte("abcdefgh"), nil, false, 4)
	mr := NewMetaReader(bytes.NewReader(image), nil, 0, DefaultLayout())

	// start inside the first block, read across the boundary
	dst := make([]byte, 5)
	cur, err := mr.Read(MetaCursor{Block: 0, Offset: 2}, dst)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(dst) != "cdefg" {
		t.Fatalf("got %q, want %q", dst, "cdefg")
	}
	// cursor lands in the second block (header 2 + payload 4 bytes in)
	if cur.Block != 6 || cur.Offset != 3 {
		t.Fatalf("cursor = %+v, want {Block:6 Offset:3}", cur)
	}
}

func TestMetaReadCompressed(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte("squash"), 100)
	c := compress.NewZlibCompressor()
	image := metaTable(t, content, c, true, 0)
	mr := NewMetaReader(bytes.NewReader(image), c, 0, DefaultLayout())

	dst := make([]byte, len(content))
	if _, err := mr.Read(MetaCursor{}, dst); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(dst, content) {
		t.Fatal("decompressed content mismatch")
	}
}

func TestMetaReadNilCompressorRejectsCompressed(t *testing.T) {
	t.Parallel()

	c := compress.NewZlibCompressor()
	image := metaTable(t, []byte("options"), c, true, 0)
	mr := NewMetaReader(bytes.NewReader(image), nil, 0, DefaultLayout())

	if _, err := mr.Read(MetaCursor{}, make([]byte, 4)); !errors.Is(err, ErrCorruptMetadata) {
		t.Fatalf("got %v, want ErrCorruptMetadata", err)
	}
}

func TestMetaReadTruncated(t *testing.T) {
	t.Parallel()

	image := metaTable(t, []byte("abcd"), nil, false, 0)
	mr := NewMetaReader(bytes.NewReader(image[:3]), nil, 0, DefaultLayout())

	if _, err := mr.Read(MetaCursor{}, make([]byte, 4)); err == nil {
		t.Fatal("expected an error reading a truncated block")
	}

	// a read running past the last block is a short read too
	mr = NewMetaReader(bytes.NewReader(image), nil, 0, DefaultLayout())
	if _, err := mr.Read(MetaCursor{}, make([]byte, 8)); err == nil {
		t.Fatal("expected an error reading past the stream end")
	}
}

func TestMetaReadOffsetBeyondBlock(t *testing.T) {
	t.Parallel()

	image := metaTable(t, []byte("abcd"), nil, false, 0)
	mr := NewMetaReader(bytes.NewReader(image), nil, 0, DefaultLayout())

	if _, err := mr.Read(MetaCursor{Offset: 10}, make([]byte, 1)); !errors.Is(err, ErrCorruptMetadata) {
		t.Fatalf("got %v, want ErrCorruptMetadata", err)
	}
}

func TestMetaBlockAt(t *testing.T) {
	t.Parallel()

	image := metaTable(t, []byte("abcd"), nil, false, 0)
	mr := NewMetaReader(bytes.NewReader(image), nil, 0, DefaultLayout())

	data, err := mr.BlockAt(0)
	if err != nil {
		t.Fatalf("BlockAt: %v", err)
	}
	if string(data) != "abcd" {
		t.Fatalf("got %q, want %q", data, "abcd")
	}
}
