package compress

import "github.com/klauspost/compress/zstd"

type ZstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewZstdCompressor() *ZstdCompressor {
	writer, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	reader, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	return &ZstdCompressor{
		encoder: writer,
		decoder: reader,
	}
}

func (c *ZstdCompressor) Encode(dst, src []byte) ([]byte, error) {
	return c.encoder.EncodeAll(src, dst[:0]), nil
}

func (c *ZstdCompressor) Decode(dst, src []byte) ([]byte, error) {
	return c.decoder.DecodeAll(src, dst[:0])
}
