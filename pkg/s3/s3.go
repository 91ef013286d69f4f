package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"postcraft/pkg/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Client stores post media and hands back public references.
type Client struct {
	api        s3iface.S3API
	bucket     string
	endpoint   string
	region     string
	disableSSL bool
}

func NewClient(cfg *config.Config) (*Client, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	}

	// MinIO for local development
	disableSSL := false
	if cfg.AWSEndpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.AWSEndpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		if cfg.S3UseSSL == "false" {
			awsConfig.DisableSSL = aws.Bool(true)
			disableSSL = true
		}
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := newClient(s3.New(sess), cfg.S3BucketName, cfg.AWSEndpoint, cfg.AWSRegion, disableSSL)

	// MinIO starts without buckets.
	if _, err := client.api.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(client.bucket)}); err != nil {
		if _, err := client.api.CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(client.bucket)}); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket %s: %w", client.bucket, err)
		}
	}

	return client, nil
}

func newClient(api s3iface.S3API, bucket, endpoint, region string, disableSSL bool) *Client {
	return &Client{api: api, bucket: bucket, endpoint: endpoint, region: region, disableSSL: disableSSL}
}

// Upload stores the object under key and returns its URL.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, body); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	_, err := c.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return c.URL(key), nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// URL renders the object address for MinIO (path style) or AWS.
func (c *Client) URL(key string) string {
	if c.endpoint != "" && !strings.Contains(c.endpoint, "amazonaws.com") {
		protocol := "https"
		if c.disableSSL {
			protocol = "http"
		}
		host := strings.TrimPrefix(strings.TrimPrefix(c.endpoint, "http://"), "https://")
		return fmt.Sprintf("%s://%s/%s/%s", protocol, host, c.bucket, key)
	}

	region := c.region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, region, key)
}
