package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"foodsecurity-charts/internal/config"
	"foodsecurity-charts/internal/observability/logging"
)

// ErrPublishConfig is returned for incomplete publishing settings.
var ErrPublishConfig = errors.New("invalid publish configuration")

// defaultRegion avoids a bucket-location lookup before every upload.
const defaultRegion = "us-east-1"

// Publisher uploads chart files to an S3-compatible bucket.
type Publisher struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewPublisher creates a publisher from cfg. Endpoint may be a host:port or a URL; an
// https URL forces TLS.
func NewPublisher(cfg config.PublishConfig) (*Publisher, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: endpoint and bucket are required", ErrPublishConfig)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: credentials are required", ErrPublishConfig)
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		switch u.Scheme {
		case "https":
			useSSL = true
		case "http":
			useSSL = false
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: defaultRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return &Publisher{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (p *Publisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: defaultRegion}); err != nil {
		return fmt.Errorf("create bucket %s: %w", p.bucket, err)
	}
	return nil
}

// Publish uploads the file at localPath as {prefix}/{basename}.
func (p *Publisher) Publish(ctx context.Context, localPath string) error {
	// #nosec G304 -- localPath is a file this process just wrote
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() {
		_ = f.Close()
	}()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	key := p.ObjectKey(localPath)
	_, err = p.client.PutObject(ctx, p.bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	logging.FromContext(ctx).Info("chart published",
		slog.String("bucket", p.bucket),
		slog.String("key", key),
		slog.Int64("bytes", info.Size()))
	return nil
}

// ObjectKey returns the object name used for localPath.
func (p *Publisher) ObjectKey(localPath string) string {
	return path.Join(p.prefix, filepath.Base(localPath))
}
