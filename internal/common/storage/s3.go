// internal/common/storage/s3.go
package storage

import (
	"bytes"
	"context"
	goerrors "errors"
	"io"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"assessment-backend/internal/common/errors"
)

// S3Store implements ObjectStore and Presigner against one S3 bucket.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// S3Options configures the S3 client beyond the default AWS config chain.
type S3Options struct {
	Region         string
	Bucket         string
	Endpoint       string // optional, for S3-compatible stores
	ForcePathStyle bool
}

// NewS3Store creates an S3-backed object store.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, errors.NewStorageUnreachableError(err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return s.translate(key, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.translate(key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.NewStorageUnreachableError(err)
	}
	return data, nil
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.translate(prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s.translate(key, err)
	}
	return nil
}

func (s *S3Store) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (*PresignedURL, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, s.translate(key, err)
	}
	return &PresignedURL{URL: req.URL, ExpiresAt: time.Now().UTC().Add(ttl)}, nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (*PresignedURL, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, s.translate(key, err)
	}
	return &PresignedURL{URL: req.URL, ExpiresAt: time.Now().UTC().Add(ttl)}, nil
}

// translate maps S3 API errors onto the application error taxonomy.
// Anything that is not a structured API response is treated as a
// transport failure so callers can activate the fallback path.
func (s *S3Store) translate(key string, err error) error {
	var noSuchKey *types.NoSuchKey
	if goerrors.As(err, &noSuchKey) {
		return errors.NewObjectNotFoundError(key)
	}

	var apiErr smithy.APIError
	if goerrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return errors.NewObjectNotFoundError(key)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errors.NewStorageAccessDeniedError(err)
		default:
			return errors.NewStorageWriteFailedError(key, err)
		}
	}

	return errors.NewStorageUnreachableError(err)
}
