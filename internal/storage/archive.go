// Package storage archives audit results as JSON objects in S3.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jonathan/seo-auditor/internal/types"
)

// DefaultPrefix is the key prefix for archived results.
const DefaultPrefix = "audits"

// S3API is the subset of the S3 client used by Archive.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Error represents a failed archive operation.
type Error struct {
	Op      string
	Key     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("archive %s %s: %s: %v", e.Op, e.Key, e.Message, e.Cause)
	}
	return fmt.Sprintf("archive %s %s: %s", e.Op, e.Key, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Archive stores one JSON object per audit job.
type Archive struct {
	client S3API
	bucket string
	prefix string
}

// NewArchive creates an Archive writing under prefix in bucket.
func NewArchive(client S3API, bucket, prefix string) *Archive {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Archive{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// NewS3Client builds an S3 client from an AWS config.
func NewS3Client(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
}

// Key returns the object key for a job.
func (a *Archive) Key(jobID string) string {
	return fmt.Sprintf("%s/%s.json", a.prefix, jobID)
}

// SaveAuditResult uploads the result as JSON.
func (a *Archive) SaveAuditResult(ctx context.Context, result *types.AuditResult) error {
	key := a.Key(result.JobID)
	data, err := json.Marshal(result)
	if err != nil {
		return &Error{Op: "put", Key: key, Message: "failed to marshal result", Cause: err}
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"site-url":     result.SiteURL,
			"health-score": fmt.Sprintf("%d", result.Summary.HealthScore),
		},
	})
	if err != nil {
		return &Error{Op: "put", Key: key, Message: "upload failed", Cause: err}
	}
	return nil
}

// GetAuditResult downloads an archived result, returning nil if the object
// does not exist.
func (a *Archive) GetAuditResult(ctx context.Context, jobID string) (*types.AuditResult, error) {
	key := a.Key(jobID)
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, &Error{Op: "get", Key: key, Message: "download failed", Cause: err}
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Message: "failed to read object", Cause: err}
	}
	var result types.AuditResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &Error{Op: "get", Key: key, Message: "failed to parse result", Cause: err}
	}
	return &result, nil
}

// URI returns the s3:// location of a job's archived result.
func (a *Archive) URI(jobID string) string {
	return fmt.Sprintf("s3://%s/%s", a.bucket, a.Key(jobID))
}
