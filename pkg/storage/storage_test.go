package storage_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/storage"
)

var pngData = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func TestMemory_PutGetURL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := storage.NewMemory(storage.WithBaseURL("https://cdn.example.com/"))

	info, err := m.Put(ctx, "images/welcome/es/logo.png", bytes.NewReader(pngData), int64(len(pngData)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)
	assert.EqualValues(t, len(pngData), info.Size)

	rc, err := m.Get(ctx, "images/welcome/es/logo.png")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, pngData, got)

	u, err := m.URL(ctx, "images/welcome/es/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/welcome/es/logo.png", u)

	require.NoError(t, m.Delete(ctx, "images/welcome/es/logo.png"))
	_, err = m.Get(ctx, "images/welcome/es/logo.png")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = m.URL(ctx, "images/welcome/es/logo.png")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemory_PutRejects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := storage.NewMemory(storage.WithMaxImageSize(16))

	tests := []struct {
		name string
		key  string
		data []byte
		err  error
	}{
		{"empty", "a.png", nil, storage.ErrEmptyFile},
		{"too large", "a.png", pngData, storage.ErrFileTooLarge},
		{"not an image", "a.txt", []byte("plain text"), storage.ErrNotImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := m.Put(ctx, tt.key, bytes.NewReader(tt.data), int64(len(tt.data)))
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDetectImageType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		data []byte
		want string
	}{
		{"png", "logo.bin", pngData, "image/png"},
		{"gif", "x", []byte("GIF89a......"), "image/gif"},
		{"svg by extension", "logo.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), "image/svg+xml"},
		{"text", "notes.txt", []byte("hello"), "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, storage.DetectImageType(tt.key, tt.data))
		})
	}
}

func TestExtFromMIME(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".png", storage.ExtFromMIME("image/png"))
	assert.Equal(t, ".jpg", storage.ExtFromMIME("IMAGE/JPEG; q=1"))
	assert.Empty(t, storage.ExtFromMIME("application/pdf"))
	assert.True(t, storage.IsImage("image/webp"))
	assert.False(t, storage.IsImage("text/html"))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		s, err := storage.Open(storage.Config{Driver: storage.DriverMemory})
		require.NoError(t, err)
		assert.IsType(t, &storage.Memory{}, s)
	})

	t.Run("s3", func(t *testing.T) {
		t.Parallel()
		cfg := storage.DefaultConfig()
		cfg.Bucket, cfg.AccessKey, cfg.SecretKey = "images", "key", "secret"
		s, err := storage.Open(cfg)
		require.NoError(t, err)
		assert.IsType(t, &storage.S3Storage{}, s)
	})

	t.Run("s3 without credentials", func(t *testing.T) {
		t.Parallel()
		_, err := storage.Open(storage.DefaultConfig())
		require.ErrorIs(t, err, storage.ErrInvalidConfig)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		_, err := storage.Open(storage.Config{Driver: "ftp"})
		require.ErrorIs(t, err, storage.ErrUnknownDriver)
	})
}

func TestS3Storage_PublicURL(t *testing.T) {
	t.Parallel()

	s, err := storage.New(storage.Config{
		Bucket:    "images",
		AccessKey: "key",
		SecretKey: "secret",
		PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)

	u, err := s.URL(context.Background(), "images/welcome/es/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/welcome/es/logo.png", u)
}

func TestS3Storage_PresignedURL(t *testing.T) {
	t.Parallel()

	s, err := storage.New(storage.Config{
		Bucket:    "images",
		AccessKey: "key",
		SecretKey: "secret",
		Endpoint:  "http://localhost:9000",
		PathStyle: true,
	})
	require.NoError(t, err)

	u, err := s.URL(context.Background(), "images/welcome/es/logo.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/images/images/welcome/es/logo.png?"), u)
	assert.Contains(t, u, "X-Amz-Signature=")
}
