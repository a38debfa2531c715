package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"dem-fill-client/core/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Store uploads artifacts to and checks artifacts in the S3 bucket shared
// with the remote worker. It holds no state between calls beyond the client.
type S3Store struct {
	client *s3.Client
}

// Options configures the S3 connection. Endpoint overrides the public S3
// endpoint for tests and S3-compatible stores; when set, path-style
// addressing is used so bucket names stay in the URL path.
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

// NewS3Store creates a new S3-backed object store
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client}, nil
}

// Upload copies the local file's bytes to bucket/key, overwriting any object
// already at that key. The SDK's own retry budget covers transient transport
// failures; an error here means that budget is exhausted.
func (s *S3Store) Upload(ctx context.Context, localPath, bucket, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return &models.RunError{
			Kind:    models.ErrUpload,
			Message: fmt.Sprintf("local file %s not readable", localPath),
			Err:     err,
		}
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return &models.RunError{
			Kind:    models.ErrUpload,
			Message: fmt.Sprintf("upload of %s to s3://%s/%s failed", localPath, bucket, key),
			Err:     err,
		}
	}

	return nil
}

// Exists reports whether an object is currently listable at bucket/key.
// "Not found" is a valid false result, not an error; only authorization and
// transport failures surface as StorageQueryError.
func (s *S3Store) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return false, nil
		}
	}

	return false, &models.RunError{
		Kind:    models.ErrStorageQuery,
		Message: fmt.Sprintf("existence check for s3://%s/%s failed", bucket, key),
		Err:     err,
	}
}
