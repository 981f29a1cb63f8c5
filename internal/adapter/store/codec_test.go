package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

func compressiblePayload(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i / 64)
	}
	return buf
}

func TestCodecRoundTrip(t *testing.T) {
	payload := compressiblePayload(16 * 1024)

	for _, name := range []string{"lz4", "zstd", "s2", "none"} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec(name)
			require.NoError(t, err)
			assert.Equal(t, name, codec.Name())

			stored, err := codec.Compress(payload)
			require.NoError(t, err)
			if name != "none" {
				assert.Less(t, len(stored), len(payload), "payload should shrink")
			}

			back, err := codec.Decompress(stored, len(payload))
			require.NoError(t, err)
			assert.True(t, bytes.Equal(payload, back))
		})
	}
}

func TestCodecWrongSize(t *testing.T) {
	payload := compressiblePayload(4096)

	for _, name := range []string{"zstd", "s2", "none"} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec(name)
			require.NoError(t, err)

			stored, err := codec.Compress(payload)
			require.NoError(t, err)

			_, err = codec.Decompress(stored, len(payload)-1)
			assert.Error(t, err)
		})
	}
}

func TestNewCodecUnknown(t *testing.T) {
	_, err := NewCodec("gzip")
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
