package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds the configuration for the S3 state mirror.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// S3 wraps a Local backend and mirrors every state file to a bucket.
// The local file stays the source of truth; the bucket copy lets state
// survive a host that loses its disk between runs. A file missing locally
// is pulled from the bucket on first read.
type S3 struct {
	*Local
	client *s3.Client
	bucket string
}

// Compile-time check that S3 implements Backend.
var _ Backend = (*S3)(nil)

// NewS3 creates an S3 mirror around an existing Local backend.
func NewS3(local *Local, cfg S3Config) (*S3, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("store: load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3{
		Local:  local,
		client: s3.NewFromConfig(awsCfg, clientOpts...),
		bucket: cfg.Bucket,
	}, nil
}

// Read returns the local file when present, otherwise pulls the bucket copy
// and seeds the local file with it.
func (s *S3) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := s.Local.Read(ctx, name)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrNotExist) {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("store: fetch %s from S3: %w", name, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err = io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("store: read %s from S3: %w", name, err)
	}

	if err := s.Local.Write(ctx, name, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Write updates the local file first, then mirrors it to the bucket.
func (s *S3) Write(ctx context.Context, name string, data []byte) error {
	if err := s.Local.Write(ctx, name, data); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("store: mirror %s to S3: %w", name, err)
	}
	return nil
}
