package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/seo-auditor/internal/types"
)

// mockS3Middleware short-circuits the S3 client with a fixed output or error.
func mockS3Middleware(output interface{}, err error) func(*middleware.Stack) error {
	return func(stack *middleware.Stack) error {
		return stack.Finalize.Add(
			middleware.FinalizeMiddlewareFunc("MockMiddleware", func(context.Context, middleware.FinalizeInput, middleware.FinalizeHandler) (middleware.FinalizeOutput, middleware.Metadata, error) {
				return middleware.FinalizeOutput{Result: output}, middleware.Metadata{}, err
			}),
			middleware.Before,
		)
	}
}

func mockClient(output interface{}, err error) *s3.Client {
	return s3.NewFromConfig(aws.Config{Region: "us-east-1"}, func(o *s3.Options) {
		o.APIOptions = append(o.APIOptions, mockS3Middleware(output, err))
	})
}

// recordingS3 captures PutObject inputs.
type recordingS3 struct {
	put *s3.PutObjectInput
}

func (r *recordingS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	r.put = in
	return &s3.PutObjectOutput{}, nil
}

func (r *recordingS3) GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, errors.New("not implemented")
}

func TestArchive_SaveAuditResult(t *testing.T) {
	rec := &recordingS3{}
	archive := NewArchive(rec, "seo-results", "/audits/")

	err := archive.SaveAuditResult(context.Background(), &types.AuditResult{
		JobID:   "job-1",
		SiteURL: "https://a.test",
		Summary: types.AuditSummary{HealthScore: 77},
	})
	require.NoError(t, err)

	require.NotNil(t, rec.put)
	assert.Equal(t, "seo-results", aws.ToString(rec.put.Bucket))
	assert.Equal(t, "audits/job-1.json", aws.ToString(rec.put.Key))
	assert.Equal(t, "application/json", aws.ToString(rec.put.ContentType))
	assert.Equal(t, "77", rec.put.Metadata["health-score"])

	body, err := io.ReadAll(rec.put.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"site_url":"https://a.test"`)
	assert.Equal(t, "s3://seo-results/audits/job-1.json", archive.URI("job-1"))
}

func TestArchive_SaveAuditResult_ClientError(t *testing.T) {
	archive := NewArchive(mockClient(nil, errors.New("access denied")), "bucket", "")

	err := archive.SaveAuditResult(context.Background(), &types.AuditResult{JobID: "job-1"})
	var aErr *Error
	require.ErrorAs(t, err, &aErr)
	assert.Equal(t, "put", aErr.Op)
	assert.Contains(t, err.Error(), "access denied")
}

func TestArchive_SaveAuditResult_Middleware(t *testing.T) {
	archive := NewArchive(mockClient(&s3.PutObjectOutput{}, nil), "bucket", "")
	assert.NoError(t, archive.SaveAuditResult(context.Background(), &types.AuditResult{JobID: "job-1"}))
}

func TestArchive_GetAuditResult(t *testing.T) {
	out := &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(`{"job_id":"job-1","site_url":"https://a.test","summary":{"health_score":64}}`)),
	}
	archive := NewArchive(mockClient(out, nil), "bucket", "")

	result, err := archive.GetAuditResult(context.Background(), "job-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 64, result.Summary.HealthScore)
}

func TestArchive_GetAuditResult_Missing(t *testing.T) {
	archive := NewArchive(mockClient(nil, &s3types.NoSuchKey{}), "bucket", "")

	result, err := archive.GetAuditResult(context.Background(), "job-404")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestArchive_GetAuditResult_Corrupt(t *testing.T) {
	out := &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(`not json`))}
	archive := NewArchive(mockClient(out, nil), "bucket", "")

	_, err := archive.GetAuditResult(context.Background(), "job-1")
	var aErr *Error
	require.ErrorAs(t, err, &aErr)
	assert.Equal(t, "failed to parse result", aErr.Message)
}
