package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/gallery"
)

// s3API is the subset of *s3.Client the backend uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Backend stores images in an AWS S3 bucket.
type S3Backend struct {
	client  s3API
	bucket  string
	baseURL string // CloudFront or S3 URL
}

var _ gallery.ImageBackend = (*S3Backend)(nil)

func newS3FromConfig(ctx context.Context, cfg gallery.StorageConfig) (*S3Backend, error) {
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	baseURL := cfg.S3BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, region)
	}
	return newS3Backend(s3.NewFromConfig(awsCfg), cfg.S3Bucket, baseURL), nil
}

func newS3Backend(client s3API, bucket, baseURL string) *S3Backend {
	return &S3Backend{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (b *S3Backend) Provider() string  { return gallery.ProviderS3 }
func (b *S3Backend) IsConfigured() bool { return true }

// Upload puts data under folder/id plus the sniffed extension.
func (b *S3Backend) Upload(ctx context.Context, data []byte, folder, id string) (*gallery.UploadResult, error) {
	key, contentType := objectKey(data, folder, id)
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}
	return &gallery.UploadResult{URL: b.baseURL + "/" + key, PublicID: key}, nil
}

// Destroy removes a file from S3
func (b *S3Backend) Destroy(ctx context.Context, publicID string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (b *S3Backend) ping(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %q: %w", b.bucket, err)
	}
	return nil
}
