package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Evalflow/internal/domain"
)

// StepRepo — репозиторий для работы со steps.
type StepRepo struct {
	pool *pgxpool.Pool
}

// NewStepRepo создаёт новый StepRepo.
func NewStepRepo(pool *pgxpool.Pool) *StepRepo {
	return &StepRepo{pool: pool}
}

// Upsert сохраняет состояние шага.
func (r *StepRepo) Upsert(ctx context.Context, step *domain.StepRecord) error {
	query := `
		INSERT INTO steps (job_id, name, status, total, succeeded, failed, started_at, finished_at, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (job_id, name) DO UPDATE
		SET status = EXCLUDED.status,
		    total = EXCLUDED.total,
		    succeeded = EXCLUDED.succeeded,
		    failed = EXCLUDED.failed,
		    started_at = COALESCE(EXCLUDED.started_at, steps.started_at),
		    finished_at = EXCLUDED.finished_at,
		    error = EXCLUDED.error
	`
	_, err := r.pool.Exec(ctx, query,
		step.JobID,
		step.Name,
		step.Status,
		step.Total,
		step.Succeeded,
		step.Failed,
		step.StartedAt,
		step.FinishedAt,
		nullString(step.Error),
	)
	if err != nil {
		return fmt.Errorf("upsert step: %w", err)
	}
	return nil
}

// ListByJobID возвращает шаги job в порядке запуска.
func (r *StepRepo) ListByJobID(ctx context.Context, jobID uuid.UUID) ([]domain.StepRecord, error) {
	query := `
		SELECT job_id, name, status, total, succeeded, failed, started_at, finished_at, error
		FROM steps
		WHERE job_id = $1
		ORDER BY started_at ASC NULLS LAST, name ASC
	`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("list steps by job_id: %w", err)
	}
	defer rows.Close()

	var steps []domain.StepRecord
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, *step)
	}
	return steps, rows.Err()
}

// Get возвращает шаг job по имени.
func (r *StepRepo) Get(ctx context.Context, jobID uuid.UUID, name string) (*domain.StepRecord, error) {
	query := `
		SELECT job_id, name, status, total, succeeded, failed, started_at, finished_at, error
		FROM steps
		WHERE job_id = $1 AND name = $2
	`
	step, err := scanStep(r.pool.QueryRow(ctx, query, jobID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return step, err
}

func scanStep(row pgx.Row) (*domain.StepRecord, error) {
	var (
		step   domain.StepRecord
		errMsg *string
	)
	err := row.Scan(
		&step.JobID,
		&step.Name,
		&step.Status,
		&step.Total,
		&step.Succeeded,
		&step.Failed,
		&step.StartedAt,
		&step.FinishedAt,
		&errMsg,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan step: %w", err)
	}
	step.Error = derefString(errMsg)
	return &step, nil
}
