package store

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/memoire/internal/server/config"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in)
	}
	headBucket = func(c *s3.Client, ctx context.Context, in *s3.HeadBucketInput) (*s3.HeadBucketOutput, error) {
		return c.HeadBucket(ctx, in)
	}
)

// S3 stores objects in an S3-compatible bucket (MinIO in development) keyed
// by their locally computed CID.
type S3 struct {
	client *s3.Client
	bucket string
}

func NewS3(ctx context.Context, cfg *config.Config) (*S3, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3{client: client, bucket: cfg.S3Bucket}, nil
}

func (s *S3) Upload(ctx context.Context, data []byte) (string, error) {
	c, err := ComputeCID(data)
	if err != nil {
		return "", rejected("s3 upload", err)
	}

	_, err = putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(c),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return "", s3Error("s3 upload", err)
	}
	return c, nil
}

func (s *S3) Fetch(ctx context.Context, cid string) (io.ReadCloser, error) {
	if !ValidCID(cid) {
		return nil, notFound(cid)
	}

	out, err := getObject(s.client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cid),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, notFound(cid)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
			return nil, notFound(cid)
		}
		return nil, s3Error("s3 fetch", err)
	}
	return out.Body, nil
}

// Ping checks that the bucket exists and is accessible.
func (s *S3) Ping(ctx context.Context) error {
	if _, err := headBucket(s.client, ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return s3Error("s3 ping", err)
	}
	return nil
}

func s3Error(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return rejected(op, err)
	}
	return unavailable(op, err)
}
