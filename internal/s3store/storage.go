// Package s3store uploads mirrored originals and renditions to object
// storage. All writes go through the SDK's multipart uploader so payload size
// never matters, and every key carries a long immutable cache directive:
// destination keys are derived deterministically from source paths, so
// content at a key only ever gets overwritten with an equivalent object.
package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	conf "github.com/WebRendHQ/MaclellanFamily.com/internal/config"
)

const cacheControl = "public, max-age=31536000, immutable"

type Storage struct {
	bucket   string
	client   *s3.Client
	uploader *manager.Uploader
}

func New(ctx context.Context, cfg *conf.S3Config) (*Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Custom endpoint keeps R2 and MinIO deployments working.
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Storage{
		bucket:   cfg.BucketName,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (s *Storage) Bucket() string { return s.bucket }

// Upload writes an in-memory payload.
func (s *Storage) Upload(ctx context.Context, key, contentType string, payload []byte) error {
	return s.UploadStream(ctx, key, contentType, bytes.NewReader(payload))
}

// UploadStream writes body to key via a multipart transfer, consuming the
// reader without buffering the whole object.
func (s *Storage) UploadStream(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("upload %q: %w", key, err)
	}
	return nil
}
