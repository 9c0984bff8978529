package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gram-portal/internal/domain"
)

// ServiceRepository persists the service catalogue.
type ServiceRepository interface {
	Create(ctx context.Context, svc *domain.Service) error
	Update(ctx context.Context, svc *domain.Service) error
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ServiceFilter) ([]domain.Service, int, error)
	Count(ctx context.Context, activeOnly bool) (int, error)
	CountByCategory(ctx context.Context, activeOnly bool) (map[string]int, error)
	Categories(ctx context.Context, activeOnly bool) ([]string, error)
}

type serviceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository returns a Postgres-backed catalogue.
func NewServiceRepository(pool *pgxpool.Pool) ServiceRepository {
	return &serviceRepository{pool: pool}
}

const serviceColumns = `id, title, description, category, eligibility, required_documents,
               is_active, created_by, created_at, updated_at`

func (r *serviceRepository) Create(ctx context.Context, svc *domain.Service) error {
	const query = `
        INSERT INTO services (title, description, category, eligibility, required_documents, is_active, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		svc.Title,
		svc.Description,
		svc.Category,
		svc.Eligibility,
		documents(svc.RequiredDocuments),
		svc.IsActive,
		nullIfEmpty(svc.CreatedBy),
	).Scan(&svc.ID, &svc.CreatedAt, &svc.UpdatedAt)
	return translate(err)
}

func (r *serviceRepository) Update(ctx context.Context, svc *domain.Service) error {
	const query = `
        UPDATE services SET title=$1, description=$2, category=$3, eligibility=$4,
            required_documents=$5, is_active=$6, updated_at=NOW()
        WHERE id::text=$7
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		svc.Title,
		svc.Description,
		svc.Category,
		svc.Eligibility,
		documents(svc.RequiredDocuments),
		svc.IsActive,
		svc.ID,
	).Scan(&svc.UpdatedAt)
	return translate(err)
}

func (r *serviceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id::text=$1`
	return scanService(r.pool.QueryRow(ctx, query, id))
}

func (r *serviceRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id::text=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *serviceRepository) List(ctx context.Context, filter ServiceFilter) ([]domain.Service, int, error) {
	where := serviceWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM services`+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + serviceColumns + ` FROM services` + where.String() +
		` ORDER BY created_at DESC, id` + limitOffset(filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []domain.Service{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *svc)
	}
	return result, total, rows.Err()
}

func serviceWhere(filter ServiceFilter) *whereBuilder {
	where := &whereBuilder{}
	if filter.ActiveOnly {
		where.addRaw("is_active")
	}
	if cat := filter.category(); cat != "" {
		where.add("category=%s", cat)
	}
	if filter.term() != "" {
		if filter.SearchCategory {
			where.add("(LOWER(title) LIKE %s OR LOWER(category) LIKE %s)", likePattern(filter.Search))
		} else {
			where.add("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", likePattern(filter.Search))
		}
	}
	return where
}

func (r *serviceRepository) Count(ctx context.Context, activeOnly bool) (int, error) {
	where := serviceWhere(ServiceFilter{ActiveOnly: activeOnly})
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM services`+where.String()).Scan(&total)
	return total, err
}

func (r *serviceRepository) CountByCategory(ctx context.Context, activeOnly bool) (map[string]int, error) {
	where := serviceWhere(ServiceFilter{ActiveOnly: activeOnly})
	rows, err := r.pool.Query(ctx, `SELECT category, COUNT(*) FROM services`+where.String()+` GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

func (r *serviceRepository) Categories(ctx context.Context, activeOnly bool) ([]string, error) {
	where := serviceWhere(ServiceFilter{ActiveOnly: activeOnly})
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM services`+where.String()+` ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}

func scanService(row pgx.Row) (*domain.Service, error) {
	var (
		svc       domain.Service
		createdBy *string
	)
	if err := row.Scan(
		&svc.ID,
		&svc.Title,
		&svc.Description,
		&svc.Category,
		&svc.Eligibility,
		&svc.RequiredDocuments,
		&svc.IsActive,
		&createdBy,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	svc.CreatedBy = deref(createdBy)
	if svc.RequiredDocuments == nil {
		svc.RequiredDocuments = []string{}
	}
	return &svc, nil
}

// documents keeps the column NOT NULL for services without requirements.
func documents(docs []string) []string {
	if docs == nil {
		return []string{}
	}
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc = strings.TrimSpace(doc); doc != "" {
			out = append(out, doc)
		}
	}
	return out
}
