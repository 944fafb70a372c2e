package compress

// DirectCompressor passes blocks through unchanged. Used for blocks the
// archive stores uncompressed and as the backend in tests that do not care
// about compression.
type DirectCompressor struct{}

func NewDirectCompressor() *DirectCompressor {
	return &DirectCompressor{}
}

func (DirectCompressor) Encode(dst, src []byte) ([]byte, error) {
	return src, nil
}

func (DirectCompressor) Decode(dst, src []byte) ([]byte, error) {
	return src, nil
}
