package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/Conte777/telegram-files/config"
	filesdeps "github.com/Conte777/telegram-files/internal/domain/files/deps"
	filesentities "github.com/Conte777/telegram-files/internal/domain/files/entities"
	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
)

// sniffSize is how much of a file is read to detect its content type
const sniffSize = 3072

// ObjectStore is the part of the MinIO client used for transfers
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Client uploads completed files to a bucket
type Client struct {
	store   ObjectStore
	bucket  string
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

var _ filesdeps.FileTransfer = (*Client)(nil)

// NewMinioStore connects to the configured S3/MinIO endpoint
func NewMinioStore(cfg *config.S3Config) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return client, nil
}

// NewClient creates a transfer client over store
func NewClient(store ObjectStore, bucket string, m *metrics.Metrics, logger zerolog.Logger) *Client {
	return &Client{
		store:   store,
		bucket:  bucket,
		metrics: m,
		logger:  logger.With().Str("component", "s3").Logger(),
	}
}

// EnsureBucket creates the bucket if it doesn't exist
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.store.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := c.store.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	c.logger.Info().Str("bucket", c.bucket).Msg("created S3 bucket")
	return nil
}

// ObjectKey returns <accountId>/<chatId>/<fileName>
func ObjectKey(record *filesentities.FileRecord) string {
	name := record.FileName
	if name == "" {
		name = filepath.Base(record.LocalPath)
	}
	return fmt.Sprintf("%d/%d/%s", record.TelegramID, record.ChatID, name)
}

// Transfer uploads the local file of a completed record
func (c *Client) Transfer(ctx context.Context, record *filesentities.FileRecord) (err error) {
	defer func() { c.metrics.RecordTransfer(err) }()

	if record.LocalPath == "" {
		return pkgerrors.NewPreconditionErrorf("file %s has no local path", record.UniqueID)
	}

	f, err := os.Open(record.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to open completed file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat completed file: %w", err)
	}

	reader, contentType, err := detectContentType(f, record.MimeType)
	if err != nil {
		return err
	}

	key := ObjectKey(record)
	if _, err := c.store.PutObject(ctx, c.bucket, key, reader, info.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf("failed to upload file to S3: %w", err)
	}

	c.logger.Debug().
		Str("object_key", key).
		Str("content_type", contentType).
		Int64("size", info.Size()).
		Msg("uploaded file to S3")
	return nil
}

// detectContentType sniffs the head of data unless known is set. The returned
// reader replays the sniffed bytes.
func detectContentType(data io.Reader, known string) (io.Reader, string, error) {
	if known != "" {
		return data, known, nil
	}

	buf := make([]byte, sniffSize)
	n, err := io.ReadAtLeast(data, buf, 1)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	return io.MultiReader(bytes.NewReader(buf), data), mimetype.Detect(buf).String(), nil
}
