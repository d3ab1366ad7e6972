package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader is the slice of manager.Uploader used by S3Store.
// This allows for easy mocking in tests.
type S3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Downloader is the slice of manager.Downloader used by S3Store.
type S3Downloader interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, opts ...func(*manager.Downloader)) (int64, error)
}

// S3Config configures the S3-backed artifact store. AccessKeyID and
// SecretAccessKey, when set, take precedence over the default AWS credential
// chain.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// S3Store keeps snapshot archives in S3-compatible object storage.
type S3Store struct {
	bucket     string
	prefix     string
	uploader   S3Uploader
	downloader S3Downloader
}

// NewS3Store creates an S3 artifact store with the given configuration.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)

	// Custom endpoint for S3-compatible services (R2, MinIO, etc.)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	return &S3Store{
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
	}, nil
}

// NewS3StoreWithClients creates an S3 store with custom uploader and
// downloader. This is useful for testing.
func NewS3StoreWithClients(bucket, prefix string, uploader S3Uploader, downloader S3Downloader) *S3Store {
	return &S3Store{
		bucket:     bucket,
		prefix:     prefix,
		uploader:   uploader,
		downloader: downloader,
	}
}

func (s *S3Store) Name() string {
	if s.prefix != "" {
		return fmt.Sprintf("s3(%s/%s)", s.bucket, s.prefix)
	}
	return fmt.Sprintf("s3(%s)", s.bucket)
}

// Upload copies the local file at localPath to s3://bucket/[prefix/]key.
func (s *S3Store) Upload(ctx context.Context, localPath, key string) (err error) {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	fullKey := s.key(key)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
		Body:   f,
	}
	if contentType := contentTypeFromPath(key); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to s3://%s/%s: %w", s.bucket, fullKey, err)
	}
	return nil
}

// Download fetches s3://bucket/[prefix/]key into destDir, named after the
// key's base name.
func (s *S3Store) Download(ctx context.Context, key, destDir string) (localPath string, err error) {
	localPath = filepath.Join(destDir, path.Base(key))
	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	fullKey := s.key(key)
	_, err = s.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		return "", fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, fullKey, err)
	}
	return localPath, nil
}

func (s *S3Store) key(key string) string {
	if s.prefix != "" {
		return path.Join(s.prefix, key)
	}
	return key
}

// contentTypeFromPath returns the Content-Type for known artifact suffixes.
func contentTypeFromPath(p string) string {
	switch path.Ext(p) {
	case ".gz":
		return "application/gzip"
	case ".zst":
		return "application/zstd"
	case ".tar":
		return "application/x-tar"
	default:
		return ""
	}
}

var _ Store = (*S3Store)(nil)
