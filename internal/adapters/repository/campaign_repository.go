package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/ports"
)

// CampaignRepositoryImpl implements the CampaignRepository interface on
// Postgres
type CampaignRepositoryImpl struct {
	db *sqlx.DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *sqlx.DB) ports.CampaignRepository {
	return &CampaignRepositoryImpl{db: db}
}

func (r *CampaignRepositoryImpl) Create(ctx context.Context, campaign *entities.Campaign) error {
	query := `
		INSERT INTO campaigns (name, client, platform, status, budget, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		campaign.Name, campaign.Client, campaign.Platform, campaign.Status,
		campaign.Budget, campaign.StartDate, campaign.EndDate,
	).Scan(&campaign.ID, &campaign.CreatedAt, &campaign.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}

	return nil
}

func (r *CampaignRepositoryImpl) GetByID(ctx context.Context, id int) (*entities.Campaign, error) {
	query := `
		SELECT id, name, client, platform, status, budget, start_date, end_date,
			created_at, updated_at, deleted_at
		FROM campaigns
		WHERE id = $1 AND deleted_at IS NULL`

	var campaign entities.Campaign
	err := r.db.GetContext(ctx, &campaign, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("get campaign by id: %w", err)
	}

	return &campaign, nil
}

func (r *CampaignRepositoryImpl) Update(ctx context.Context, campaign *entities.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $2, client = $3, platform = $4, status = $5, budget = $6,
			start_date = $7, end_date = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		campaign.ID, campaign.Name, campaign.Client, campaign.Platform,
		campaign.Status, campaign.Budget, campaign.StartDate, campaign.EndDate,
	).Scan(&campaign.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrCampaignNotFound
		}
		return fmt.Errorf("update campaign: %w", err)
	}

	return nil
}

func (r *CampaignRepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `UPDATE campaigns SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrCampaignNotFound
	}

	return nil
}

func (r *CampaignRepositoryImpl) List(ctx context.Context, filter ports.CampaignFilter) ([]*entities.Campaign, error) {
	query := `
		SELECT id, name, client, platform, status, budget, start_date, end_date,
			created_at, updated_at
		FROM campaigns
		WHERE deleted_at IS NULL`
	args := []interface{}{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Client != nil {
		args = append(args, *filter.Client)
		query += fmt.Sprintf(" AND client = $%d", len(args))
	}

	query += " ORDER BY created_at ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	var campaigns []*entities.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query, args...); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	return campaigns, nil
}

func (r *CampaignRepositoryImpl) Count(ctx context.Context, filter ports.CampaignFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM campaigns WHERE deleted_at IS NULL`
	args := []interface{}{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Client != nil {
		args = append(args, *filter.Client)
		query += fmt.Sprintf(" AND client = $%d", len(args))
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count campaigns: %w", err)
	}

	return count, nil
}
