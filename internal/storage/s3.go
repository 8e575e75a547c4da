package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client used by S3. The *s3.Client type satisfies it.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores artifacts in an S3 or S3-compatible bucket.
type S3 struct {
	client    S3API
	bucket    string
	publicURL string
}

// S3Options configures NewS3Client.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 store talking to AWS, or to Endpoint with path-style
// addressing when one is given.
func NewS3Client(opts S3Options) *S3 {
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	s3opts := s3.Options{Region: region}
	if opts.AccessKeyID != "" {
		creds := aws.Credentials{AccessKeyID: opts.AccessKeyID, SecretAccessKey: opts.SecretAccessKey}
		s3opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})
	}

	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, region)
	if opts.Endpoint != "" {
		s3opts.BaseEndpoint = aws.String(opts.Endpoint)
		s3opts.UsePathStyle = true
		publicURL = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	}
	return NewS3(s3.New(s3opts), opts.Bucket, publicURL)
}

// NewS3 wraps an already configured client. Saved objects are published as
// publicURL + "/" + key.
func NewS3(client S3API, bucket, publicURL string) *S3 {
	return &S3{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func key(name string) string {
	return "audio/" + name
}

func (s *S3) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key(name)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put s3 object: %w", err)
	}
	return s.publicURL + "/" + key(name), nil
}

func (s *S3) Delete(ctx context.Context, location string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key(nameFromLocation(location))),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("delete s3 object: %w", err)
	}
	return nil
}

// isS3NotFound reports whether err is an S3 missing-object error.
func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
