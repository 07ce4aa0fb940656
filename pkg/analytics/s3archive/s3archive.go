// Package s3archive keeps analytics batches as newline-delimited JSON
// objects in S3-compatible object storage.
//
// Every Store call writes one object under
//
//	<prefix>/<yyyy>/<mm>/<dd>/<ulid>.ndjson
//
// so a day of traffic can be fetched with a single prefix listing.
package s3archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/edmunds-dev/edmunds/pkg/analytics"
	"github.com/edmunds-dev/edmunds/pkg/id"
)

// Sentinel errors.
var (
	ErrInvalidConfig  = errors.New("s3archive: invalid configuration")
	ErrBucketNotFound = errors.New("s3archive: bucket not found")
	ErrAccessDenied   = errors.New("s3archive: access denied")
)

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

// deleteBatch is the S3 limit of keys per DeleteObjects call.
const deleteBatch = 1000

// Config holds the bucket settings.
type Config struct {
	Bucket    string `env:"ARCHIVE_S3_BUCKET"`
	AccessKey string `env:"ARCHIVE_S3_ACCESS_KEY"`
	SecretKey string `env:"ARCHIVE_S3_SECRET_KEY"`
	// Endpoint is set for MinIO and other S3-compatible services.
	Endpoint string `env:"ARCHIVE_S3_ENDPOINT"`
	Region   string `env:"ARCHIVE_S3_REGION" envDefault:"us-east-1"`
	Prefix   string `env:"ARCHIVE_S3_PREFIX" envDefault:"analytics"`
	// PathStyle is required by MinIO.
	PathStyle bool `env:"ARCHIVE_S3_PATH_STYLE"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool { return c.Bucket != "" }

// API is the subset of *s3.Client the archive uses.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Archive implements analytics.Warehouse on S3.
type Archive struct {
	client API
	bucket string
	prefix string
	now    func() time.Time
}

var _ analytics.Warehouse = (*Archive)(nil)

// New creates an archive with a static-credentials S3 client.
func New(cfg Config) (*Archive, error) {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, ErrInvalidConfig
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	client := s3.New(s3.Options{}, func(o *s3.Options) {
		o.Region = cfg.Region
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient creates an archive on an existing client.
func NewWithClient(client API, bucket, prefix string) *Archive {
	return &Archive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// Store writes entries as one object.
func (a *Archive) Store(ctx context.Context, entries []analytics.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("s3archive: encode %s: %w", e.ID, err)
		}
	}

	key := a.key(a.now().UTC())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String("application/x-ndjson"),
	})
	if err != nil {
		return wrapError("put "+key, err)
	}
	return nil
}

// Prune deletes objects last modified before before. It counts objects,
// not entries.
func (a *Archive) Prune(ctx context.Context, before time.Time) (int64, error) {
	var (
		stale   []types.ObjectIdentifier
		deleted int64
	)

	flush := func() error {
		if len(stale) == 0 {
			return nil
		}
		out, err := a.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(a.bucket),
			Delete: &types.Delete{Objects: stale, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return wrapError("delete", err)
		}
		deleted += int64(len(stale) - len(out.Errors))
		stale = stale[:0]
		return nil
	}

	pages := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(a.listPrefix()),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return deleted, wrapError("list", err)
		}
		for _, obj := range page.Contents {
			if obj.LastModified == nil || !obj.LastModified.Before(before) {
				continue
			}
			stale = append(stale, types.ObjectIdentifier{Key: obj.Key})
			if len(stale) == deleteBatch {
				if err := flush(); err != nil {
					return deleted, err
				}
			}
		}
	}
	return deleted, flush()
}

func (a *Archive) key(t time.Time) string {
	return path.Join(a.prefix, t.Format("2006/01/02"), id.NewULID()+".ndjson")
}

func (a *Archive) listPrefix() string {
	if a.prefix == "" {
		return ""
	}
	return a.prefix + "/"
}

// wrapError maps S3 API errors onto the package sentinels.
func wrapError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return fmt.Errorf("%w: %s: %v", ErrBucketNotFound, op, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %s: %v", ErrAccessDenied, op, err)
		}
	}
	return fmt.Errorf("s3archive: %s: %w", op, err)
}
