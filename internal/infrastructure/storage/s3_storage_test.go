package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func minioConfig() config.StorageConfig {
	return config.StorageConfig{
		Enabled:           true,
		Bucket:            "product-images",
		AccessKey:         "test-key",
		SecretKey:         "test-secret",
		Region:            "us-east-1",
		Endpoint:          "localhost:9000",
		UsePathStyle:      true,
		PresignExpiration: 10 * time.Minute,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("missing bucket", func(t *testing.T) {
		cfg := minioConfig()
		cfg.Bucket = ""
		_, err := NewS3ObjectStorage(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("access key without secret", func(t *testing.T) {
		cfg := minioConfig()
		cfg.SecretKey = ""
		_, err := NewS3ObjectStorage(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "set together")
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		cfg := minioConfig()
		cfg.Endpoint = "http://"
		_, err := NewS3ObjectStorage(ctx, cfg)
		require.Error(t, err)
	})

	t.Run("valid config", func(t *testing.T) {
		s, err := NewS3ObjectStorage(ctx, minioConfig(), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "product-images", s.Bucket())
		assert.Equal(t, 10*time.Minute, s.presignExpiration)
		assert.Equal(t, "http://localhost:9000", s.endpoint)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := minioConfig()
		cfg.PresignExpiration = 0
		cfg.UseSSL = true
		s, err := NewS3ObjectStorage(ctx, cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
		assert.Equal(t, "https://localhost:9000", s.endpoint)
	})

	t.Run("option overrides expiration", func(t *testing.T) {
		s, err := NewS3ObjectStorage(ctx, minioConfig(), WithPresignExpiration(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, time.Minute, s.presignExpiration)
	})
}

func TestS3ObjectStorage_GenerateUploadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(context.Background(), minioConfig())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("empty key", func(t *testing.T) {
		_, _, err := s.GenerateUploadURL(ctx, "", "image/png", time.Minute)
		assert.ErrorIs(t, err, ErrEmptyKey)
	})

	t.Run("presigns a path-style PUT", func(t *testing.T) {
		raw, expiresAt, err := s.GenerateUploadURL(ctx, "images/products/abc/photo.png", "image/png", time.Hour)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "localhost:9000", u.Host)
		assert.Equal(t, "/product-images/images/products/abc/photo.png", u.Path)
		assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
		assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)
	})

	t.Run("falls back to configured expiration", func(t *testing.T) {
		raw, _, err := s.GenerateUploadURL(ctx, "images/x.png", "image/png", 0)
		require.NoError(t, err)
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	})
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	s, err := NewS3ObjectStorage(context.Background(), minioConfig())
	require.NoError(t, err)
	ctx := context.Background()

	exists, err := s.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.False(t, exists)
	assert.ErrorIs(t, s.DeleteObject(ctx, ""), ErrEmptyKey)
	assert.Empty(t, s.ObjectURL(""))
}

func TestS3ObjectStorage_ObjectURL(t *testing.T) {
	ctx := context.Background()
	key := "images/products/abc/photo one.png"

	tests := []struct {
		name   string
		modify func(*config.StorageConfig)
		want   string
	}{
		{
			name:   "public base url wins",
			modify: func(c *config.StorageConfig) { c.PublicBaseURL = "https://cdn.example.com/" },
			want:   "https://cdn.example.com/images/products/abc/photo%20one.png",
		},
		{
			name:   "path style endpoint",
			modify: func(c *config.StorageConfig) {},
			want:   "http://localhost:9000/product-images/images/products/abc/photo%20one.png",
		},
		{
			name:   "virtual host endpoint",
			modify: func(c *config.StorageConfig) { c.UsePathStyle = false; c.Endpoint = "https://s3.example.com" },
			want:   "https://product-images.s3.example.com/images/products/abc/photo%20one.png",
		},
		{
			name:   "aws",
			modify: func(c *config.StorageConfig) { c.Endpoint = ""; c.UsePathStyle = false },
			want:   "https://product-images.s3.amazonaws.com/images/products/abc/photo%20one.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minioConfig()
			tt.modify(&cfg)
			s, err := NewS3ObjectStorage(ctx, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.ObjectURL(key))
		})
	}
}
