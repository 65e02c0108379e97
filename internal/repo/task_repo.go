package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Evalflow/internal/domain"
)

// TaskRepo — репозиторий для работы с tasks.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRepo создаёт новый TaskRepo.
func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// Upsert сохраняет результат задачи.
func (r *TaskRepo) Upsert(ctx context.Context, task *domain.TaskRecord) error {
	query := `
		INSERT INTO tasks (job_id, step, idx, status, started_at, finished_at, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (job_id, step, idx) DO UPDATE
		SET status = EXCLUDED.status,
		    started_at = EXCLUDED.started_at,
		    finished_at = EXCLUDED.finished_at,
		    error = EXCLUDED.error
	`
	_, err := r.pool.Exec(ctx, query,
		task.JobID,
		task.Step,
		task.Index,
		task.Status,
		task.StartedAt,
		task.FinishedAt,
		nullString(task.Error),
	)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

// ListByJobID возвращает задачи job. Пустой step — все шаги.
func (r *TaskRepo) ListByJobID(ctx context.Context, jobID uuid.UUID, step string) ([]domain.TaskRecord, error) {
	query := `
		SELECT job_id, step, idx, status, started_at, finished_at, error
		FROM tasks
		WHERE job_id = $1
		  AND ($2::text IS NULL OR step = $2)
		ORDER BY step ASC, idx ASC
	`
	rows, err := r.pool.Query(ctx, query, jobID, nullString(step))
	if err != nil {
		return nil, fmt.Errorf("list tasks by job_id: %w", err)
	}
	defer rows.Close()

	var tasks []domain.TaskRecord
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (*domain.TaskRecord, error) {
	var (
		task   domain.TaskRecord
		errMsg *string
	)
	err := row.Scan(
		&task.JobID,
		&task.Step,
		&task.Index,
		&task.Status,
		&task.StartedAt,
		&task.FinishedAt,
		&errMsg,
	)
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.Error = derefString(errMsg)
	return &task, nil
}
