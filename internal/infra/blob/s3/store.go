// Package s3 implements a blob Store against an S3-compatible backend
// (AWS S3 or MinIO) for archiving exported metadata files.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"sessioncore/internal/blob/core"
)

// Store implements core.Store over a single bucket. Keys map to object keys
// directly.
type Store struct {
	client  *s3.Client
	bucket  string
	presign *s3.PresignClient
	baseURL *url.URL
}

// Config holds explicit construction parameters, mostly for tests. Production
// deployments configure the store through environment variables.
type Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional; enables a custom endpoint (e.g. MinIO)
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string // optional
	SessionToken    string // optional
	PathStyle       bool
}

// Environment variables:
//   SESSIONCORE_BLOB_DRIVER=s3
//   SESSIONCORE_BLOB_S3_BUCKET=<bucket> (required)
//   SESSIONCORE_BLOB_S3_REGION=<region> (default us-east-1)
//   SESSIONCORE_BLOB_S3_ENDPOINT=<url> (optional, for MinIO)
//   SESSIONCORE_BLOB_S3_PATH_STYLE=true|false (default false)
//   AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// New creates an S3 blob store from Config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	var base *url.URL
	if cfg.Endpoint != "" {
		if u, err := url.Parse(cfg.Endpoint); err == nil {
			base = u
		}
	}
	return &Store{client: client, bucket: cfg.Bucket, presign: s3.NewPresignClient(client), baseURL: base}, nil
}

// OpenFromEnv constructs an S3 store from the process environment.
func OpenFromEnv(ctx context.Context) (*Store, error) {
	bucket := os.Getenv("SESSIONCORE_BLOB_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("SESSIONCORE_BLOB_S3_BUCKET required for s3 driver")
	}
	return New(ctx, Config{
		Bucket:    bucket,
		Region:    os.Getenv("SESSIONCORE_BLOB_S3_REGION"),
		Endpoint:  os.Getenv("SESSIONCORE_BLOB_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("SESSIONCORE_BLOB_S3_PATH_STYLE"), "true"),
	})
}

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverS3 }

// Put uploads a new object. Create-only semantics are emulated with a Head
// before the write; a concurrent writer can still win the race.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key}); err == nil {
		return core.Info{}, fmt.Errorf("blob %s already exists", key)
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if opts.ContentType != "" {
		input.ContentType = &opts.ContentType
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return core.Info{}, err
	}
	return s.Head(ctx, key)
}

// Get retrieves the object contents and metadata.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return core.Info{}, nil, err
	}
	info := s.objectInfo(key, out.ContentLength, out.ContentType, out.ETag, out.Metadata, out.LastModified)
	return info, out.Body, nil
}

// Head returns object metadata only.
func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return core.Info{}, err
	}
	return s.objectInfo(key, out.ContentLength, out.ContentType, out.ETag, out.Metadata, out.LastModified), nil
}

// Delete removes the object. S3 deletes are idempotent so this reports true
// whenever the call succeeds.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return false, err
	}
	return true, nil
}

// List pages through the bucket collecting keys under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &prefix, ContinuationToken: token})
		if err != nil {
			return nil, err
		}
		for _, obj := range out.Contents {
			infos = append(infos, core.Info{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
		if out.IsTruncated != nil && *out.IsTruncated && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL returns a time-limited GET URL for the object.
func (s *Store) PresignURL(ctx context.Context, key string, opts core.SignedURLOptions) (string, error) {
	if opts.Method != "" && !strings.EqualFold(opts.Method, "GET") {
		return "", core.ErrUnsupported
	}
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key}, func(po *s3.PresignOptions) { po.Expires = expiry })
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

func (s *Store) objectInfo(key string, size *int64, contentType, etag *string, metadata map[string]string, lastModified *time.Time) core.Info {
	info := core.Info{
		Key:          key,
		Size:         aws.ToInt64(size),
		ContentType:  aws.ToString(contentType),
		ETag:         strings.Trim(aws.ToString(etag), "\""),
		Metadata:     metadata,
		LastModified: time.Now().UTC(),
	}
	if lastModified != nil {
		info.LastModified = *lastModified
	}
	return info
}
