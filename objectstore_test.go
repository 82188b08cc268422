package hfsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		repoID   string
		filename string
		want     string
	}{
		{"org/model", "config.json", "org/model/config.json"},
		{"org/model", "unet/model.bin", "org/model/unet/model.bin"},
		{"/org/model/", "/config.json", "org/model/config.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, objectKey(tt.repoID, tt.filename))
	}
}

func TestNewMinioUploader(t *testing.T) {
	valid := ObjectStoreConfig{
		Endpoint:  "minio.local:9000",
		Bucket:    "models",
		AccessKey: "ak",
		SecretKey: "sk",
	}

	t.Run("valid config builds client", func(t *testing.T) {
		cfg := valid
		up, err := newMinioUploader(&cfg)
		assert.NoError(t, err)
		assert.NotNil(t, up)
	})

	t.Run("prefix is trimmed", func(t *testing.T) {
		cfg := valid
		cfg.Prefix = "/mirror/weights/"
		up, err := newMinioUploader(&cfg)
		assert.NoError(t, err)
		assert.Equal(t, "mirror/weights", up.prefix)
	})

	t.Run("missing fields fail fast", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*ObjectStoreConfig)
		}{
			{"endpoint", func(c *ObjectStoreConfig) { c.Endpoint = "" }},
			{"bucket", func(c *ObjectStoreConfig) { c.Bucket = " " }},
			{"access key", func(c *ObjectStoreConfig) { c.AccessKey = "" }},
			{"secret key", func(c *ObjectStoreConfig) { c.SecretKey = "" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := valid
				tt.mutate(&cfg)
				_, err := newMinioUploader(&cfg)
				assert.ErrorIs(t, err, ErrInvalidConfig)
			})
		}
	})
}
