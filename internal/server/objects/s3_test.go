package objects

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "github.com/dmitrijs2005/fitkeeper/internal/server/config"
)

func testConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "fitkeeper",
		S3PublicURL:    "http://cdn.example.com/fitkeeper/",
	}
}

func restoreSeams(t *testing.T) {
	t.Helper()
	origLoad, origNew, origPut, origDel := loadDefaultAWSConfig, newS3ClientFromConfig, putObject, deleteObject
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, putObject, deleteObject = origLoad, origNew, origPut, origDel
	})
}

func TestNewS3Store_ConfiguresClient(t *testing.T) {
	restoreSeams(t)

	var gotOpts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&gotOpts)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	s, err := NewS3Store(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(gotOpts.BaseEndpoint))
	assert.True(t, gotOpts.UsePathStyle)
	assert.Equal(t, "fitkeeper", s.bucket)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	restoreSeams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err := NewS3Store(context.Background(), testConfig())
	assert.ErrorContains(t, err, "no config")
}

func TestS3Store_Put(t *testing.T) {
	restoreSeams(t)

	s, err := NewS3Store(context.Background(), testConfig())
	require.NoError(t, err)

	var got *s3.PutObjectInput
	var body []byte
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		got = in
		body, _ = io.ReadAll(in.Body)
		return nil
	}

	require.NoError(t, s.Put(context.Background(), "avatars/a.png", []byte("png"), "image/png"))
	assert.Equal(t, "fitkeeper", aws.ToString(got.Bucket))
	assert.Equal(t, "avatars/a.png", aws.ToString(got.Key))
	assert.Equal(t, "image/png", aws.ToString(got.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(got.ContentLength))
	assert.Equal(t, []byte("png"), body)

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		return errors.New("403")
	}
	assert.ErrorContains(t, s.Put(context.Background(), "k", nil, ""), "put object k: 403")
}

func TestS3Store_Delete(t *testing.T) {
	restoreSeams(t)

	s, err := NewS3Store(context.Background(), testConfig())
	require.NoError(t, err)

	var key string
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		key = aws.ToString(in.Key)
		return nil
	}
	require.NoError(t, s.Delete(context.Background(), "avatars/a.png"))
	assert.Equal(t, "avatars/a.png", key)
}

func TestS3Store_URL(t *testing.T) {
	s := &S3Store{publicURL: "http://cdn.example.com/fitkeeper/"}
	assert.Equal(t, "http://cdn.example.com/fitkeeper/avatars/a.png", s.URL("/avatars/a.png"))
}
