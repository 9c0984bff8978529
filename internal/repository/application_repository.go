package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gram-portal/internal/domain"
)

// ApplicationRepository encapsulates application persistence.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	Update(ctx context.Context, app *domain.Application) error
	// Transition writes app only while its stored status still equals from,
	// and appends entry (when non-nil) in the same unit of work. A status
	// mismatch yields ErrStaleStatus and leaves both tables untouched.
	Transition(ctx context.Context, app *domain.Application, from domain.ApplicationStatus, entry *domain.ApplicationHistory) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]domain.Application, int, error)
	CountByStatus(ctx context.Context, userID *string) (map[domain.ApplicationStatus]int, error)
	CountByService(ctx context.Context, serviceID string) (int, error)
	CountStale(ctx context.Context, status domain.ApplicationStatus, olderThan time.Time) (int, error)
}

type applicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository instantiates repository.
func NewApplicationRepository(pool *pgxpool.Pool) ApplicationRepository {
	return &applicationRepository{pool: pool}
}

const applicationSelect = `
        SELECT a.id, a.user_id, a.service_id, a.form_data, a.status, a.remarks, a.processed_by,
               a.created_at, a.updated_at, s.title
        FROM applications a
        JOIN services s ON s.id = a.service_id`

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	const query = `
        INSERT INTO applications (user_id, service_id, form_data, status, remarks, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,COALESCE($6, NOW()),COALESCE($6, NOW()))
        RETURNING id, created_at, updated_at`
	var createdAt *time.Time
	if !app.CreatedAt.IsZero() {
		createdAt = &app.CreatedAt
	}
	err := r.pool.QueryRow(ctx, query,
		app.UserID,
		app.ServiceID,
		formData(app.FormData),
		app.Status,
		app.Remarks,
		createdAt,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
	return translate(err)
}

func (r *applicationRepository) Update(ctx context.Context, app *domain.Application) error {
	const query = `
        UPDATE applications SET status=$1, remarks=$2, processed_by=$3, form_data=$4, updated_at=NOW()
        WHERE id::text=$5
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		app.Status,
		app.Remarks,
		app.ProcessedBy,
		formData(app.FormData),
		app.ID,
	).Scan(&app.UpdatedAt)
	return translate(err)
}

const transitionQuery = `
        UPDATE applications SET status=$1, remarks=$2, processed_by=$3, form_data=$4, updated_at=NOW()
        WHERE id::text=$5 AND status=$6
        RETURNING updated_at`

func (r *applicationRepository) Transition(ctx context.Context, app *domain.Application, from domain.ApplicationStatus, entry *domain.ApplicationHistory) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, transitionQuery,
			app.Status,
			app.Remarks,
			app.ProcessedBy,
			formData(app.FormData),
			app.ID,
			from,
		).Scan(&app.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE id::text=$1)`, app.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrStaleStatus
		}
		if err != nil {
			return translate(err)
		}
		if entry == nil {
			return nil
		}
		return insertHistory(ctx, tx, entry)
	})
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	return scanApplication(r.pool.QueryRow(ctx, applicationSelect+` WHERE a.id::text=$1`, id))
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]domain.Application, int, error) {
	where := applicationWhere(filter)
	countQuery := `SELECT COUNT(*) FROM applications a JOIN services s ON s.id = a.service_id` + where.String()
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := applicationListQuery(where, filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []domain.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *app)
	}
	return result, total, rows.Err()
}

func applicationWhere(filter ApplicationFilter) *whereBuilder {
	where := &whereBuilder{}
	if filter.UserID != nil {
		where.add("a.user_id::text=%s", *filter.UserID)
	}
	if filter.ServiceID != nil {
		where.add("a.service_id::text=%s", *filter.ServiceID)
	}
	if filter.Status != "" {
		where.add("a.status=%s", filter.Status)
	}
	if filter.term() != "" {
		if filter.SearchByID {
			where.add("(LOWER(s.title) LIKE %s OR a.id::text LIKE %s)", likePattern(filter.Search))
		} else {
			where.add("LOWER(s.title) LIKE %s", likePattern(filter.Search))
		}
	}
	return where
}

// applicationListQuery renders the page query for where, newest first.
func applicationListQuery(where *whereBuilder, limit, offset int) string {
	return applicationSelect + where.String() +
		` ORDER BY a.created_at DESC, a.id` + limitOffset(limit, offset)
}

func (r *applicationRepository) CountByStatus(ctx context.Context, userID *string) (map[domain.ApplicationStatus]int, error) {
	var where whereBuilder
	if userID != nil {
		where.add("user_id::text=%s", *userID)
	}
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM applications`+where.String()+` GROUP BY status`, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ApplicationStatus]int, len(domain.ApplicationStatuses))
	for _, status := range domain.ApplicationStatuses {
		counts[status] = 0
	}
	for rows.Next() {
		var (
			status domain.ApplicationStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *applicationRepository) CountByService(ctx context.Context, serviceID string) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE service_id::text=$1`, serviceID).Scan(&total)
	return total, err
}

func (r *applicationRepository) CountStale(ctx context.Context, status domain.ApplicationStatus, olderThan time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM applications WHERE status=$1 AND created_at < $2`
	var total int
	err := r.pool.QueryRow(ctx, query, status, olderThan).Scan(&total)
	return total, err
}

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var app domain.Application
	if err := row.Scan(
		&app.ID,
		&app.UserID,
		&app.ServiceID,
		&app.FormData,
		&app.Status,
		&app.Remarks,
		&app.ProcessedBy,
		&app.CreatedAt,
		&app.UpdatedAt,
		&app.ServiceTitle,
	); err != nil {
		return nil, translate(err)
	}
	if app.FormData == nil {
		app.FormData = map[string]string{}
	}
	return &app, nil
}

// formData drops blank keys so the JSONB document never carries empty names.
func formData(data map[string]string) map[string]string {
	out := make(map[string]string, len(data))
	for key, value := range data {
		if key = strings.TrimSpace(key); key != "" {
			out[key] = value
		}
	}
	return out
}
