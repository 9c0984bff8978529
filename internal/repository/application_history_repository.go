package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gram-portal/internal/domain"
)

// ApplicationHistoryRepository stores audit entries.
type ApplicationHistoryRepository interface {
	Create(ctx context.Context, history *domain.ApplicationHistory) error
	ListByApplication(ctx context.Context, applicationID string) ([]domain.ApplicationHistory, error)
}

type applicationHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationHistoryRepository builds repository.
func NewApplicationHistoryRepository(pool *pgxpool.Pool) ApplicationHistoryRepository {
	return &applicationHistoryRepository{pool: pool}
}

func (r *applicationHistoryRepository) Create(ctx context.Context, history *domain.ApplicationHistory) error {
	return insertHistory(ctx, r.pool, history)
}

// queryRower is satisfied by both the pool and an open transaction.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertHistory(ctx context.Context, db queryRower, history *domain.ApplicationHistory) error {
	const query = `
        INSERT INTO application_history (application_id, changed_by, old_status, new_status, remarks)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := db.QueryRow(ctx, query,
		history.ApplicationID,
		history.ChangedBy,
		history.OldStatus,
		history.NewStatus,
		history.Remarks,
	).Scan(&history.ID, &history.CreatedAt)
	return translate(err)
}

func (r *applicationHistoryRepository) ListByApplication(ctx context.Context, applicationID string) ([]domain.ApplicationHistory, error) {
	const query = `
        SELECT id, application_id, changed_by, old_status, new_status, remarks, created_at
        FROM application_history WHERE application_id::text=$1 ORDER BY created_at ASC, id`
	rows, err := r.pool.Query(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.ApplicationHistory{}
	for rows.Next() {
		var history domain.ApplicationHistory
		if err := rows.Scan(
			&history.ID,
			&history.ApplicationID,
			&history.ChangedBy,
			&history.OldStatus,
			&history.NewStatus,
			&history.Remarks,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
