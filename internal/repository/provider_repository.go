package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opencourse/proctor-backend/internal/model"
)

const providerColumns = `id, name, display_name, lti_config_id, support_email, created_at`

// ProviderRepository handles proctoring provider data access.
type ProviderRepository struct {
	pool *pgxpool.Pool
}

// NewProviderRepository creates a new ProviderRepository.
func NewProviderRepository(pool *pgxpool.Pool) *ProviderRepository {
	return &ProviderRepository{pool: pool}
}

// GetByID retrieves a provider.
func (r *ProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ProctoringProvider, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+providerColumns+` FROM proctoring_providers WHERE id = $1`, id)
	return scanProvider(row)
}

// GetByName retrieves a provider by its unique name.
func (r *ProviderRepository) GetByName(ctx context.Context, name string) (*model.ProctoringProvider, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+providerColumns+` FROM proctoring_providers WHERE name = $1`, name)
	return scanProvider(row)
}

// List retrieves all providers ordered by name.
func (r *ProviderRepository) List(ctx context.Context) ([]model.ProctoringProvider, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+providerColumns+` FROM proctoring_providers ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []model.ProctoringProvider
	for rows.Next() {
		var p model.ProctoringProvider
		if err := rows.Scan(&p.ID, &p.Name, &p.DisplayName, &p.LTIConfigID, &p.SupportEmail, &p.CreatedAt); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

// Create inserts a new provider.
func (r *ProviderRepository) Create(ctx context.Context, p *model.ProctoringProvider) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO proctoring_providers (id, name, display_name, lti_config_id, support_email)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		p.ID, p.Name, p.DisplayName, p.LTIConfigID, p.SupportEmail,
	).Scan(&p.CreatedAt)
}

func scanProvider(row pgx.Row) (*model.ProctoringProvider, error) {
	p := &model.ProctoringProvider{}
	err := row.Scan(&p.ID, &p.Name, &p.DisplayName, &p.LTIConfigID, &p.SupportEmail, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
