package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Options struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	Limit         int64
}

// S3 stores images in a bucket. Works against MinIO when Endpoint is set.
type S3 struct {
	client  objectAPI
	bucket  string
	baseURL string
	limit   int64
}

func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	const op = "uploads.NewS3"

	if opts.Bucket == "" {
		return nil, fmt.Errorf("%s: bucket is required", op)
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := opts.PublicBaseURL
	if baseURL == "" {
		if opts.Endpoint != "" {
			baseURL = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
		}
	}

	return newS3(client, opts.Bucket, baseURL, opts.Limit), nil
}

func newS3(client objectAPI, bucket, baseURL string, limit int64) *S3 {
	if limit <= 0 {
		limit = MaxBytes
	}

	return &S3{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
	}
}

func (s *S3) Save(ctx context.Context, filename string, size int64, r io.Reader) (string, error) {
	const op = "uploads.S3.Save"

	ext, err := Check(filename, size, s.limit)
	if err != nil {
		return "", err
	}

	// Buffered so the SDK gets a seekable body it can sign.
	data, err := io.ReadAll(&limited{r: r, n: s.limit})
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return "", ErrTooLarge
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	key := objectKey(ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentTypes[ext]),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s.baseURL + "/" + key, nil
}

// Delete removes an object previously returned by Save. Foreign URLs are ignored.
func (s *S3) Delete(ctx context.Context, url string) error {
	const op = "uploads.S3.Delete"

	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || !strings.HasPrefix(key, galleryPrefix) {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
