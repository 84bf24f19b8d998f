package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/seo-auditor/internal/types"
)

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	job := &types.SiteAuditJob{ID: "j", Status: types.JobRunning}
	require.NoError(t, store.SaveJob(ctx, job))
	job.ProgressPercent = 50

	got, err := store.GetJob(ctx, "j")
	require.NoError(t, err)
	assert.Equal(t, 0, got.ProgressPercent)

	missing, err := store.GetJob(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMultiSink_StopsAtFirstFailure(t *testing.T) {
	first := NewMemoryStore()
	last := NewMemoryStore()
	sink := MultiSink{first, failingSink{}, last}

	err := sink.SaveAuditResult(context.Background(), &types.AuditResult{JobID: "j"})
	require.Error(t, err)

	got, _ := first.GetAuditResult(context.Background(), "j")
	assert.NotNil(t, got)
	got, _ = last.GetAuditResult(context.Background(), "j")
	assert.Nil(t, got)
}
