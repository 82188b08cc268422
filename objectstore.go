package hfsync

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectUploader is the sink finalized files are mirrored into. A no-op
// implementation is used when no object store is configured, so callers
// never branch on availability.
type ObjectUploader interface {
	// Upload stores the local file at the given key. The key is relative;
	// implementations apply their own prefix. Failures are reported by
	// the caller as warnings.
	Upload(ctx context.Context, key, localPath string) error
}

// objectKey joins a repository id and filename into a relative object key.
func objectKey(repoID, filename string) string {
	return strings.Trim(repoID, "/") + "/" + strings.TrimLeft(filename, "/")
}

// noopUploader discards uploads. The default sink.
type noopUploader struct{}

func (noopUploader) Upload(context.Context, string, string) error { return nil }

// minioUploader mirrors files into an S3-compatible bucket.
type minioUploader struct {
	client *minio.Client
	bucket string
	prefix string
}

// newMinioUploader validates the object-store configuration and builds the
// client. Misconfiguration aborts the run before any transfer begins
// rather than silently skipping uploads.
func newMinioUploader(cfg *ObjectStoreConfig) (*minioUploader, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("%w: object store endpoint is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("%w: object store bucket is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("%w: object store access key and secret key are required", ErrInvalidConfig)
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	}
	if cfg.InsecureSkipVerify {
		opts.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: init object store client: %v", ErrInvalidConfig, err)
	}

	return &minioUploader{
		client: client,
		bucket: strings.TrimSpace(cfg.Bucket),
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Upload stores the file under prefix/key with a content type inferred
// from the file contents, defaulting to application/octet-stream.
func (u *minioUploader) Upload(ctx context.Context, key, localPath string) error {
	full := key
	if u.prefix != "" {
		full = u.prefix + "/" + key
	}

	_, err := u.client.FPutObject(ctx, u.bucket, full, localPath, minio.PutObjectOptions{
		ContentType: detectContentType(localPath),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrMirrorError, full, err)
	}
	return nil
}

// detectContentType sniffs the file's content type, falling back to
// application/octet-stream for unknown binary formats such as weight
// shards.
func detectContentType(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}
	return mt.String()
}
