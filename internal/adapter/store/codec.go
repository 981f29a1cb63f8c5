package store

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// Codec compresses chunk payloads. The store always knows the exact
// decompressed size from the manifest, so Decompress takes it and verifies
// the output length against it.
type Codec interface {
	Name() string
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte, dstSize int) ([]byte, error)
}

// NewCodec returns the codec for a manifest codec name: lz4 (the default),
// zstd, s2, or none.
func NewCodec(name string) (Codec, error) {
	switch name {
	case "lz4":
		return lz4Codec{}, nil
	case "zstd":
		return zstdCodec{}, nil
	case "s2":
		return s2Codec{}, nil
	case "none":
		return noneCodec{}, nil
	default:
		return nil, &domain.ConfigError{Param: "codec", Detail: fmt.Sprintf("unknown codec %q (want lz4, zstd, s2, or none)", name)}
	}
}

// lz4CompressorPool reuses lz4.Compressor state across chunks.
var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

type lz4Codec struct{}

func (lz4Codec) Name() string { return "lz4" }

func (lz4Codec) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// n == 0 marks incompressible input; the writer stores such chunks raw.
	return dst[:n], nil
}

func (lz4Codec) Decompress(src []byte, dstSize int) ([]byte, error) {
	dst := make([]byte, dstSize)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n != dstSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, want %d", n, dstSize)
	}
	return dst, nil
}

// zstd encoders and decoders are stateful and expensive to build, so both
// directions are pooled.
var (
	zstdEncoderPool = sync.Pool{
		New: func() any {
			enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderCRC(false))
			return enc
		},
	}
	zstdDecoderPool = sync.Pool{
		New: func() any {
			dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderLowmem(false))
			return dec
		},
	}
)

type zstdCodec struct{}

func (zstdCodec) Name() string { return "zstd" }

func (zstdCodec) Compress(src []byte) ([]byte, error) {
	enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(src, nil), nil
}

func (zstdCodec) Decompress(src []byte, dstSize int) ([]byte, error) {
	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	dst, err := dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(dst) != dstSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, want %d", len(dst), dstSize)
	}
	return dst, nil
}

type s2Codec struct{}

func (s2Codec) Name() string { return "s2" }

func (s2Codec) Compress(src []byte) ([]byte, error) {
	return s2.Encode(nil, src), nil
}

func (s2Codec) Decompress(src []byte, dstSize int) ([]byte, error) {
	dst, err := s2.Decode(nil, src)
	if err != nil {
		return nil, fmt.Errorf("s2 decompress: %w", err)
	}
	if len(dst) != dstSize {
		return nil, fmt.Errorf("s2 decompress: got %d bytes, want %d", len(dst), dstSize)
	}
	return dst, nil
}

type noneCodec struct{}

func (noneCodec) Name() string { return "none" }

func (noneCodec) Compress(src []byte) ([]byte, error) { return src, nil }

func (noneCodec) Decompress(src []byte, dstSize int) ([]byte, error) {
	if len(src) != dstSize {
		return nil, fmt.Errorf("stored chunk is %d bytes, want %d", len(src), dstSize)
	}
	return src, nil
}
