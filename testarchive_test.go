package sqsh

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/breeze-go-rust/go-sqsh/internal/compress"
)

// testFS describes a synthetic archive built in memory. Zero values give an
// archive with zlib compression declared, every metadata block stored
// uncompressed, and a single id entry mapping index 0 to id 0.
type testFS struct {
	inodeTable   []byte // logical inode table content
	dirTable     []byte // logical directory table content
	ids          []uint32
	frags        [][]byte // raw 16-byte fragment entries
	compression  uint16
	compressMeta bool
	options      []byte // compressor options payload, stored after the superblock
	metaChunk    int    // split logical tables into blocks of this many bytes
	rootRecord   []byte // overrides the default empty root directory
	root         Ref
}

func le16(b []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(b, v) }
func le32(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }
func le64(b []byte, v uint64) []byte { return binary.LittleEndian.AppendUint64(b, v) }

func inodeHeader(itype, mode, uidIdx, gidIdx uint16, mtime, number uint32) []byte {
	b := le16(nil, itype)
	b = le16(b, mode)
	b = le16(b, uidIdx)
	b = le16(b, gidIdx)
	b = le32(b, mtime)
	b = le32(b, number)
	return b
}

// basicDirRecord builds a full 32-byte basic directory record.
func basicDirRecord(hdr []byte, startBlock, nlink uint32, size, offset uint16, parent uint32) []byte {
	b := append([]byte(nil), hdr...)
	b = le32(b, startBlock)
	b = le32(b, nlink)
	b = le16(b, size)
	b = le16(b, offset)
	b = le32(b, parent)
	return b
}

// emptyRootRecord is a minimal root directory every test archive carries at
// inode table offset 0.
func emptyRootRecord() []byte {
	return basicDirRecord(inodeHeader(TypeDirectory, 0o755, 0, 0, 1700000000, 1), 0, 2, dirSizeOverhead, 0, 0)
}

const rootRecordLen = 32

// metaTable packs logical content into on-disk metadata blocks.
func metaTable(t *testing.T, content []byte, c compress.Compressor, compressed bool, chunk int) []byte {
	t.Helper()
	if chunk <= 0 {
		chunk = 8192
	}
	var out []byte
	for len(content) > 0 {
		n := min(chunk, len(content))
		block := content[:n]
		content = content[n:]
		if compressed {
			enc, err := c.Encode(nil, block)
			if err != nil {
				t.Fatalf("compressing metadata block: %v", err)
			}
			out = le16(out, uint16(len(enc)))
			out = append(out, enc...)
		} else {
			out = le16(out, metaUncompressedFlag|uint16(n))
			out = append(out, block...)
		}
	}
	return out
}

// mount assembles the archive image and mounts it.
func (fs testFS) mount(t *testing.T) *Archive {
	t.Helper()
	a, err := New(bytes.NewReader(fs.image(t)))
	if err != nil {
		t.Fatalf("mounting test archive: %v", err)
	}
	return a
}

// image assembles the raw archive bytes.
func (fs testFS) image(t *testing.T) []byte {
	t.Helper()

	compression := fs.compression
	if compression == 0 {
		compression = compress.TypeZlib
	}
	var c compress.Compressor
	if fs.compressMeta {
		var err error
		if c, err = compress.New(compression, fs.options); err != nil {
			t.Fatalf("building compressor: %v", err)
		}
	}
	ids := fs.ids
	if ids == nil {
		ids = []uint32{0}
	}
	rootRecord := fs.rootRecord
	if rootRecord == nil {
		rootRecord = emptyRootRecord()
	}

	var buf bytes.Buffer
	buf.Write(make([]byte, superblockSize))

	var flags uint16
	if len(fs.options) > 0 {
		flags |= flagCompressorOptions
		buf.Write(le16(nil, metaUncompressedFlag|uint16(len(fs.options))))
		buf.Write(fs.options)
	}

	inodeStart := int64(buf.Len())
	inodeTable := append(rootRecord, fs.inodeTable...)
	buf.Write(metaTable(t, inodeTable, c, fs.compressMeta, fs.metaChunk))

	dirStart := int64(buf.Len())
	if len(fs.dirTable) > 0 {
		buf.Write(metaTable(t, fs.dirTable, c, fs.compressMeta, fs.metaChunk))
	}

	var fragIndexStart int64
	if len(fs.frags) > 0 {
		var entries []byte
		for _, e := range fs.frags {
			entries = append(entries, e...)
		}
		fragBlockStart := int64(buf.Len())
		buf.Write(metaTable(t, entries, c, false, 0))
		fragIndexStart = int64(buf.Len())
		buf.Write(le64(nil, uint64(fragBlockStart)))
	}

	var idBlock []byte
	for _, id := range ids {
		idBlock = le32(idBlock, id)
	}
	idBlockStart := int64(buf.Len())
	buf.Write(metaTable(t, idBlock, c, false, 0))
	idIndexStart := int64(buf.Len())
	buf.Write(le64(nil, uint64(idBlockStart)))

	image := buf.Bytes()
	sb := image[:superblockSize]
	copy(sb, magic[:])
	binary.LittleEndian.PutUint32(sb[4:], 3)                          // inode count
	binary.LittleEndian.PutUint32(sb[8:], 1700000000)                 // mkfs time
	binary.LittleEndian.PutUint32(sb[12:], 131072)                    // block size
	binary.LittleEndian.PutUint32(sb[16:], uint32(len(fs.frags)))     // fragment count
	binary.LittleEndian.PutUint16(sb[20:], compression)               // compression id
	binary.LittleEndian.PutUint16(sb[22:], 17)                        // block size log2
	binary.LittleEndian.PutUint16(sb[24:], flags)                     // flags
	binary.LittleEndian.PutUint16(sb[26:], uint16(len(ids)))          // id count
	binary.LittleEndian.PutUint16(sb[28:], 4)                         // version major
	binary.LittleEndian.PutUint16(sb[30:], 0)                         // version minor
	binary.LittleEndian.PutUint64(sb[32:], uint64(fs.root))           // root inode ref
	binary.LittleEndian.PutUint64(sb[40:], uint64(len(image)))        // bytes used
	binary.LittleEndian.PutUint64(sb[48:], uint64(idIndexStart))      // id table
	binary.LittleEndian.PutUint64(sb[56:], ^uint64(0))                // xattr table
	binary.LittleEndian.PutUint64(sb[64:], uint64(inodeStart))        // inode table
	binary.LittleEndian.PutUint64(sb[72:], uint64(dirStart))          // directory table
	binary.LittleEndian.PutUint64(sb[80:], uint64(fragIndexStart))    // fragment table
	binary.LittleEndian.PutUint64(sb[88:], ^uint64(0))                // lookup table

	return image
}
