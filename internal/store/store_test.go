package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndListJobs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"job-a", "job-b", "job-c"} {
		err := s.RecordJob(ctx, JobRecord{
			JobName:     name,
			ImageURI:    "ghcr.io/acme/cruncher:1.2",
			Status:      "InProgress",
			SubmittedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	jobs, err := s.ListJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	// Most recent first.
	assert.Equal(t, "job-c", jobs[0].JobName)
	assert.Equal(t, "job-a", jobs[2].JobName)

	jobs, err = s.ListJobs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestUpdateStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordJob(ctx, JobRecord{
		JobName:     "job-a",
		ImageURI:    "img",
		Status:      "InProgress",
		SubmittedAt: time.Now(),
	}))
	require.NoError(t, s.UpdateStatus(ctx, "job-a", "Completed"))

	jobs, err := s.ListJobs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Completed", jobs[0].Status)
}

func TestRecordJobUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := JobRecord{JobName: "job-a", ImageURI: "img", Status: "InProgress", SubmittedAt: time.Now()}
	require.NoError(t, s.RecordJob(ctx, rec))
	rec.Status = "Failed"
	require.NoError(t, s.RecordJob(ctx, rec))

	jobs, err := s.ListJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Failed", jobs[0].Status)
}
