package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/offerscan/constants"
	"github.com/joseph-ayodele/offerscan/internal/common"
)

// ExtractJob is one extraction attempt for one document.
type ExtractJob struct {
	ID            uuid.UUID
	DocumentID    uuid.UUID
	DocumentIndex int
	Method        constants.ExtractMethod
	Status        constants.JobStatus
	Text          string
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

type ExtractJobRepository interface {
	Start(ctx context.Context, documentID uuid.UUID, index int, method constants.ExtractMethod) (*ExtractJob, error)
	FinishText(ctx context.Context, jobID uuid.UUID, method constants.ExtractMethod, text string) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	FinishSuperseded(ctx context.Context, jobID uuid.UUID) error
	Get(ctx context.Context, jobID uuid.UUID) (*ExtractJob, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]ExtractJob, error)
	List(ctx context.Context) ([]ExtractJob, error)
}

type extractJobRepo struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

func NewExtractJobRepository(db *sql.DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, log: log, now: time.Now}
}

func (r *extractJobRepo) Start(ctx context.Context, documentID uuid.UUID, index int, method constants.ExtractMethod) (*ExtractJob, error) {
	job := &ExtractJob{
		ID:            uuid.New(),
		DocumentID:    documentID,
		DocumentIndex: index,
		Method:        method,
		Status:        constants.JobStatusRunning,
		StartedAt:     r.now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extract_job (id, document_id, document_index, method, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID.String(), documentID.String(), index, string(method), string(job.Status), job.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		r.log.Error("extract_job start failed", "document_id", documentID, "err", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	r.log.Debug("extract_job started", "job_id", job.ID, "document_id", documentID, "method", method)
	return job, nil
}

func (r *extractJobRepo) FinishText(ctx context.Context, jobID uuid.UUID, method constants.ExtractMethod, text string) error {
	err := r.finish(ctx, jobID,
		`UPDATE extract_job SET status = ?, method = ?, text = ?, finished_at = ? WHERE id = ?`,
		string(constants.JobStatusTextOK), string(method), text, r.stamp(), jobID.String())
	if err != nil {
		r.log.Error("extract_job finish(TEXT_OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Debug("extract_job finished (TEXT_OK)", "job_id", jobID, "method", method, "bytes", len(text))
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	err := r.finish(ctx, jobID,
		`UPDATE extract_job SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		string(constants.JobStatusFailed), message, r.stamp(), jobID.String())
	if err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) FinishSuperseded(ctx context.Context, jobID uuid.UUID) error {
	err := r.finish(ctx, jobID,
		`UPDATE extract_job SET status = ?, finished_at = ? WHERE id = ?`,
		string(constants.JobStatusSuperseded), r.stamp(), jobID.String())
	if err != nil {
		r.log.Error("extract_job finish(SUPERSEDED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Debug("extract_job finished (SUPERSEDED)", "job_id", jobID)
	return nil
}

func (r *extractJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*ExtractJob, error) {
	row := r.db.QueryRowContext(ctx, selectJob+` WHERE id = ?`, jobID.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("extract_job %s: %w", jobID, common.ErrNotFound)
	}
	return job, err
}

func (r *extractJobRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]ExtractJob, error) {
	return r.query(ctx, selectJob+` WHERE document_id = ? ORDER BY started_at, rowid`, documentID.String())
}

func (r *extractJobRepo) List(ctx context.Context) ([]ExtractJob, error) {
	return r.query(ctx, selectJob+` ORDER BY started_at, rowid`)
}

const selectJob = `SELECT id, document_id, document_index, method, status, text, error_message, started_at, finished_at FROM extract_job`

func (r *extractJobRepo) query(ctx context.Context, q string, args ...any) ([]ExtractJob, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []ExtractJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

func (r *extractJobRepo) finish(ctx context.Context, jobID uuid.UUID, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("extract_job %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

func (r *extractJobRepo) stamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*ExtractJob, error) {
	var (
		job            ExtractJob
		id, docID      string
		method, status string
		started        string
		finished       sql.NullString
	)
	if err := s.Scan(&id, &docID, &job.DocumentIndex, &method, &status, &job.Text, &job.ErrorMessage, &started, &finished); err != nil {
		return nil, err
	}
	var err error
	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse job id: %w", err)
	}
	if job.DocumentID, err = uuid.Parse(docID); err != nil {
		return nil, fmt.Errorf("parse document id: %w", err)
	}
	job.Method = constants.ExtractMethod(method)
	job.Status = constants.JobStatus(status)
	if job.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if finished.Valid {
		t, err := time.Parse(time.RFC3339Nano, finished.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		job.FinishedAt = &t
	}
	return &job, nil
}
