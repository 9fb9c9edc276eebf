package repository

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/offerscan/constants"
	"github.com/joseph-ayodele/offerscan/internal/common"
)

func openRepo(t *testing.T) ExtractJobRepository {
	t.Helper()
	db, err := Open(context.Background(), Config{}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, slog.Default()) })
	require.NoError(t, HealthCheck(context.Background(), db, time.Second))
	return NewExtractJobRepository(db, nil)
}

func TestJobLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)
	docID := uuid.New()

	job, err := repo.Start(ctx, docID, 2, constants.MethodPDFText)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusRunning, job.Status)

	require.NoError(t, repo.FinishText(ctx, job.ID, constants.MethodPDFOCR, "Dear Asha"))

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusTextOK, got.Status)
	assert.Equal(t, constants.MethodPDFOCR, got.Method)
	assert.Equal(t, "Dear Asha", got.Text)
	assert.Equal(t, 2, got.DocumentIndex)
	assert.Equal(t, docID, got.DocumentID)
	require.NotNil(t, got.FinishedAt)
}

func TestJobFailureAndSuperseded(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)
	docID := uuid.New()

	failed, err := repo.Start(ctx, docID, 0, constants.MethodPDFText)
	require.NoError(t, err)
	require.NoError(t, repo.FinishFailure(ctx, failed.ID, "pdftoppm: exit status 1"))

	stale, err := repo.Start(ctx, docID, 0, constants.MethodPDFText)
	require.NoError(t, err)
	require.NoError(t, repo.FinishSuperseded(ctx, stale.ID))

	other, err := repo.Start(ctx, uuid.New(), 1, constants.MethodCropOCR)
	require.NoError(t, err)

	jobs, err := repo.ListByDocument(ctx, docID)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, constants.JobStatusFailed, jobs[0].Status)
	assert.Equal(t, "pdftoppm: exit status 1", jobs[0].ErrorMessage)
	assert.Equal(t, constants.JobStatusSuperseded, jobs[1].Status)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, other.ID, all[2].ID)
	assert.Nil(t, all[2].FinishedAt)
}

func TestFinishUnknownJob(t *testing.T) {
	repo := openRepo(t)
	err := repo.FinishFailure(context.Background(), uuid.New(), "x")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}
