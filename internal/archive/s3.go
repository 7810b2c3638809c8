package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"stock-count/internal/config"
	"stock-count/internal/timeutil"
)

var ErrNotConfigured = errors.New("archive bucket is not configured")

// ObjectStore is the part of the S3 client the archiver uses
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Archiver keeps copies of exports and reports in an S3-compatible bucket
// (AWS S3 or Cloudflare R2). A nil *Archiver accepts and drops everything.
type Archiver struct {
	client ObjectStore
	bucket string
	prefix string
}

// New builds an archiver from config. It returns nil when archiving is disabled.
func New(ctx context.Context, cfg *config.Config) (*Archiver, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	if cfg.Archive.Bucket == "" {
		return nil, ErrNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Archive.Region),
	}
	if cfg.Archive.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to configure archive client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Archive.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Archive.Endpoint)
		}
	})

	return NewWithClient(client, cfg.Archive.Bucket, cfg.Archive.Prefix), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client ObjectStore, bucket, prefix string) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: prefix}
}

// Enabled reports whether uploads go anywhere
func (a *Archiver) Enabled() bool {
	return a != nil && a.client != nil
}

// Key builds the object key for an archived file
func (a *Archiver) Key(sessionID, kind, ext string, at time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.%s", kind, timeutil.Format(at, timeutil.FileStampLayout), uuid.NewString()[:8], ext)
	return path.Join(a.prefix, sessionID, name)
}

// Store uploads data and returns its key
func (a *Archiver) Store(ctx context.Context, sessionID, kind, ext, contentType string, data []byte) (string, error) {
	if !a.Enabled() {
		return "", nil
	}

	key := a.Key(sessionID, kind, ext, timeutil.Now())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	log.Printf("[Archive] Stored %s (%d bytes)", key, len(data))
	return key, nil
}

// Check lists at most one object to confirm the bucket is reachable
func (a *Archiver) Check(ctx context.Context) error {
	if !a.Enabled() {
		return ErrNotConfigured
	}
	_, err := a.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(a.bucket),
		Prefix:  aws.String(a.prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("failed to list archive bucket: %w", err)
	}
	return nil
}
