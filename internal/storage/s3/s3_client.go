package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"simreg/internal/config"
)

// objectAPI is the subset of the S3 client used by PreviewStore.
type objectAPI interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// PreviewStore keeps capture previews in an S3 bucket and hands out
// presigned GET URLs for them.
type PreviewStore struct {
	bucket        string
	presignExpiry time.Duration
	objects       objectAPI
	uploader      uploader
	presign       func(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// NewPreviewStore creates an S3-backed port.PreviewStore.
func NewPreviewStore(cfg *config.S3Config) (*PreviewStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	ps := s3.NewPresignClient(client)

	expiry := time.Duration(cfg.PresignExpiry) * time.Second
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &PreviewStore{
		bucket:        cfg.Bucket,
		presignExpiry: expiry,
		objects:       client,
		uploader:      manager.NewUploader(client),
		presign: func(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
			req, err := ps.PresignGetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			}, s3.WithPresignExpires(expiry))
			if err != nil {
				return "", err
			}
			return req.URL, nil
		},
	}, nil
}

// Put uploads a preview and returns a presigned URL for it.
func (p *PreviewStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}

	url, err := p.presign(ctx, p.bucket, key, p.presignExpiry)
	if err != nil {
		return "", fmt.Errorf("s3 presign: %w", err)
	}
	return url, nil
}

// Release deletes a preview object.
func (p *PreviewStore) Release(ctx context.Context, key string) error {
	_, err := p.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete: %w", err)
	}
	return nil
}
