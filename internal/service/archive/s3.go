package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/intake/core/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectPutter is the part of *s3.Client the archiver uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes objects to <bucket>/<reportID>/<filename>.
type S3Archiver struct {
	client objectPutter
	bucket string
}

func NewS3Archiver(ctx context.Context, cfg config.ArchiveConfig) (*S3Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return newS3Archiver(s3.NewFromConfig(awsCfg), cfg.Bucket), nil
}

func newS3Archiver(client objectPutter, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket}
}

func (a *S3Archiver) Backend() string { return "s3" }

func (a *S3Archiver) Put(ctx context.Context, reportID string, obj Object) (string, error) {
	if len(obj.Body) == 0 {
		return "", ErrEmptyObject
	}
	key, err := objectKey(reportID, obj.Filename)
	if err != nil {
		return "", err
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(obj.Body),
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("put s3 object %s: %w", key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", a.bucket, key)
	slog.DebugContext(ctx, "archived object", "location", location, "bytes", len(obj.Body))
	return location, nil
}
