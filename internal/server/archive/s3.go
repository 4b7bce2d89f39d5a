// Package archive uploads export snapshots to S3-compatible storage and
// hands back a presigned download URL.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/investsync/internal/logging"
	"github.com/dmitrijs2005/investsync/internal/server/config"
	"github.com/google/uuid"
)

const (
	contentType = "application/json"
	urlValidity = 15 * time.Minute
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

type S3Archiver struct {
	bucket   string
	region   string
	user     string
	password string
	endpoint string
	log      logging.Logger
	now      func() time.Time
}

func NewS3Archiver(cfg *config.Config, log logging.Logger) *S3Archiver {
	return &S3Archiver{
		bucket:   cfg.S3Bucket,
		region:   cfg.S3Region,
		user:     cfg.S3RootUser,
		password: cfg.S3RootPassword,
		endpoint: cfg.S3BaseEndpoint,
		log:      log.With("module", "archive"),
		now:      time.Now,
	}
}

// ObjectKey places snapshots under exports/<user>/<yyyy>/<mm>/<dd>/<uuid>.json.
func ObjectKey(userID string, at time.Time) string {
	return fmt.Sprintf("exports/%s/%04d/%02d/%02d/%s.json", userID, at.Year(), at.Month(), at.Day(), uuid.New())
}

func (a *S3Archiver) client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(a.region)}
	if a.user != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(a.user, a.password, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if a.endpoint != "" {
			o.BaseEndpoint = aws.String(a.endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Archive uploads snapshot and returns a presigned GET URL for it.
func (a *S3Archiver) Archive(ctx context.Context, userID string, snapshot []byte) (string, error) {
	c, err := a.client(ctx)
	if err != nil {
		return "", err
	}

	key := ObjectKey(userID, a.now().UTC())

	err = putObject(c, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(snapshot),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put snapshot: %w", err)
	}

	req, err := presignGetObject(s3.NewPresignClient(c), ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(urlValidity))
	if err != nil {
		return "", fmt.Errorf("presign snapshot: %w", err)
	}

	a.log.Info(ctx, "snapshot archived", "user_id", userID, "key", key, "bytes", len(snapshot))

	return req.URL, nil
}
