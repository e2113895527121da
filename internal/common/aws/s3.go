package aws

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const cacheControl = "max-age=31536000"

// putObjectAPI is the part of the S3 client the uploader needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Client struct {
	client        putObjectAPI
	bucket        string
	region        string
	publicBaseURL string
}

func NewS3Client(ctx context.Context, region, bucket, publicBaseURL string) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return newS3Client(s3.NewFromConfig(cfg), region, bucket, publicBaseURL), nil
}

func newS3Client(client putObjectAPI, region, bucket, publicBaseURL string) *S3Client {
	return &S3Client{
		client:        client,
		bucket:        bucket,
		region:        region,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// PutObject uploads body under key and returns the object's public URL.
func (c *S3Client) PutObject(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String(cacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return c.ObjectURL(key), nil
}

// ObjectURL is public_base_url/key when configured, else the virtual-hosted
// S3 URL of the bucket.
func (c *S3Client) ObjectURL(key string) string {
	if c.publicBaseURL != "" {
		return c.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}
