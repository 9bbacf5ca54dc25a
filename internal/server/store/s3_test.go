package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/memoire/internal/common"
	"github.com/dmitrijs2005/memoire/internal/server/config"
)

func stubS3(t *testing.T) {
	t.Helper()
	origLoad, origNew, origPut, origGet, origHead := loadDefaultAWSConfig, newS3ClientFromConfig, putObject, getObject, headBucket
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		putObject = origPut
		getObject = origGet
		headBucket = origHead
	})
}

func TestNewS3_PathStyle(t *testing.T) {
	stubS3(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			_ = fn(&lo)
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		return aws.Config{}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	s, err := NewS3(context.Background(), &config.Config{
		S3Region:       "eu-west-1",
		S3Bucket:       "vault",
		S3BaseEndpoint: "http://minio:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "vault", s.bucket)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "http://minio:9000", aws.ToString(opts.BaseEndpoint))
}

func TestNewS3_ConfigError(t *testing.T) {
	stubS3(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err := NewS3(context.Background(), &config.Config{})
	assert.EqualError(t, err, "no config")
}

func TestS3_Upload(t *testing.T) {
	stubS3(t)

	var gotKey string
	var gotBody []byte
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		gotKey = aws.ToString(in.Key)
		gotBody, _ = io.ReadAll(in.Body)
		assert.Equal(t, "vault", aws.ToString(in.Bucket))
		return &s3.PutObjectOutput{}, nil
	}

	s := &S3{bucket: "vault"}
	c, err := s.Upload(context.Background(), []byte("abc"))
	require.NoError(t, err)

	want, _ := ComputeCID([]byte("abc"))
	assert.Equal(t, want, c)
	assert.Equal(t, want, gotKey)
	assert.Equal(t, []byte("abc"), gotBody)
}

func TestS3_UploadErrors(t *testing.T) {
	stubS3(t)
	s := &S3{bucket: "vault"}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	}
	_, err := s.Upload(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, common.ErrStoreRejected)

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
	_, err = s.Upload(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestS3_Fetch(t *testing.T) {
	stubS3(t)
	s := &S3{bucket: "vault"}

	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		switch aws.ToString(in.Key) {
		case testCID:
			return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("stored"))}, nil
		default:
			return nil, &types.NoSuchKey{}
		}
	}

	rc, err := s.Fetch(context.Background(), testCID)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "stored", string(b))

	_, err = s.Fetch(context.Background(), "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
	assert.ErrorIs(t, err, common.ErrContentNotFound)

	_, err = s.Fetch(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrContentNotFound)
}

func TestS3_Ping(t *testing.T) {
	stubS3(t)
	s := &S3{bucket: "vault"}

	headBucket = func(c *s3.Client, ctx context.Context, in *s3.HeadBucketInput) (*s3.HeadBucketOutput, error) {
		assert.Equal(t, "vault", aws.ToString(in.Bucket))
		return &s3.HeadBucketOutput{}, nil
	}
	assert.NoError(t, s.Ping(context.Background()))

	headBucket = func(c *s3.Client, ctx context.Context, in *s3.HeadBucketInput) (*s3.HeadBucketOutput, error) {
		return nil, &smithy.GenericAPIError{Code: "NoSuchBucket"}
	}
	assert.ErrorIs(t, s.Ping(context.Background()), common.ErrStoreRejected)
}
