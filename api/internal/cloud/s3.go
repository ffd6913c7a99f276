// Package cloud copies persisted ledger files to an S3 bucket.
package cloud

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"philalign/api/internal/apperr"
)

// PutObjectAPI is the part of *s3.Client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// New builds an uploader from the default AWS credential chain.
func New(ctx context.Context, bucket, prefix, region string) (*Uploader, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, &apperr.ConfigurationError{Provider: "s3", Reason: "S3_BUCKET not set"}
	}
	var opts []func(*config.LoadOptions) error
	if region = strings.TrimSpace(region); region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(awsCfg), bucket, prefix), nil
}

func NewWithClient(c PutObjectAPI, bucket, prefix string) *Uploader {
	return &Uploader{client: c, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key is the object key for a local file: <prefix>/<file name>.
func (u *Uploader) Key(file string) string {
	name := filepath.Base(file)
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

// Upload puts file into the bucket and returns its s3:// URL.
func (u *Uploader) Upload(ctx context.Context, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperr.NotFound("no such file %s", file)
		}
		return "", err
	}
	defer f.Close()

	key := u.Key(file)
	in := &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file)),
	}
	if _, err := u.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("s3 put object %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}

// UploadAll stops at the first failure and returns the URLs uploaded so far.
func (u *Uploader) UploadAll(ctx context.Context, files []string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := u.Upload(ctx, f)
		if err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}
