// Package s3 stores archive documents as objects in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gofrs/uuid/v5"
)

// ObjectName is the per-user object holding the archive.
const ObjectName = "fuel-tracker-data.json"

// Client is the subset of *s3.Client the repository calls.
type Client interface {
	GetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// Config describes the bucket and how to reach it.
type Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string // e.g. MinIO; empty for AWS
	AccessKey    string
	SecretKey    string
	Prefix       string
}

// NewClient builds an S3 client with static credentials and path-style
// addressing when a custom endpoint is set.
func NewClient(ctx context.Context, c Config) (*awss3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ArchiveRepo implements repository.ArchiveRepository on an S3 bucket.
type ArchiveRepo struct {
	client Client
	bucket string
	prefix string
}

// NewArchiveRepo constructs a bucket-backed archive repository.
func NewArchiveRepo(client Client, bucket, prefix string) *ArchiveRepo {
	if prefix == "" {
		prefix = "archives"
	}
	return &ArchiveRepo{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (r *ArchiveRepo) key(userID uuid.UUID) string {
	return r.prefix + "/" + userID.String() + "/" + ObjectName
}

// GetOrCreate reads the user's object, creating it with empty when absent.
// The create is conditional so two first requests cannot clobber each other.
func (r *ArchiveRepo) GetOrCreate(ctx context.Context, userID uuid.UUID, empty []byte) ([]byte, bool, error) {
	doc, err := r.get(ctx, userID)
	if err == nil {
		return doc, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}

	_, err = r.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(userID)),
		Body:        bytes.NewReader(empty),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	switch {
	case err == nil:
		return append([]byte(nil), empty...), true, nil
	case apiCode(err) == "PreconditionFailed" || apiCode(err) == "ConditionalRequestConflict":
		doc, err := r.get(ctx, userID)
		return doc, false, err
	default:
		return nil, false, fmt.Errorf("init archive object: %w", err)
	}
}

// Put overwrites the user's object.
func (r *ArchiveRepo) Put(ctx context.Context, userID uuid.UUID, doc []byte) error {
	_, err := r.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(userID)),
		Body:        bytes.NewReader(doc),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put archive object: %w", err)
	}
	return nil
}

func (r *ArchiveRepo) get(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(userID)),
	})
	if err != nil {
		return nil, fmt.Errorf("get archive object: %w", err)
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read archive object: %w", err)
	}
	return b, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	switch apiCode(err) {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

func apiCode(err error) string {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae.ErrorCode()
	}
	return ""
}
