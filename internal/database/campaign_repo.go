package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/paralleldialer/paralleldialer/internal/campaign"
)

// campaignRepo implements CampaignRepository.
type campaignRepo struct {
	db *DB
}

// NewCampaignRepository creates a new CampaignRepository.
func NewCampaignRepository(db *DB) CampaignRepository {
	return &campaignRepo{db: db}
}

const campaignColumns = `id, name, description, status, dial_ratio, caller_id,
	created_at, updated_at, started_at, completed_at`

// Create inserts a new campaign.
func (r *campaignRepo) Create(ctx context.Context, c *campaign.Campaign) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, string(c.Status), c.DialRatio, c.CallerID,
		c.CreatedAt, c.UpdatedAt, nullableTime(c.StartedAt), nullableTime(c.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting campaign: %w", err)
	}
	return nil
}

// GetByID returns a campaign by ID.
func (r *campaignRepo) GetByID(ctx context.Context, id string) (*campaign.Campaign, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying campaign by id: %w", err)
	}
	return c, nil
}

// List returns all campaigns, newest first.
func (r *campaignRepo) List(ctx context.Context) ([]campaign.Campaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []campaign.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning campaign row: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

// Update replaces the mutable columns of an existing campaign.
func (r *campaignRepo) Update(ctx context.Context, c *campaign.Campaign) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE campaigns SET name = ?, description = ?, status = ?, dial_ratio = ?,
		 caller_id = ?, updated_at = ?, started_at = ?, completed_at = ?
		 WHERE id = ?`,
		c.Name, c.Description, string(c.Status), c.DialRatio,
		c.CallerID, c.UpdatedAt, nullableTime(c.StartedAt), nullableTime(c.CompletedAt),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating campaign: %w", err)
	}
	return nil
}

// Delete removes a campaign; leads cascade.
func (r *campaignRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting campaign: %w", err)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanCampaign(s scanner) (*campaign.Campaign, error) {
	var (
		c         campaign.Campaign
		status    string
		started   sql.NullTime
		completed sql.NullTime
	)
	err := s.Scan(&c.ID, &c.Name, &c.Description, &status, &c.DialRatio, &c.CallerID,
		&c.CreatedAt, &c.UpdatedAt, &started, &completed)
	if err != nil {
		return nil, err
	}
	c.Status = campaign.CampaignStatus(status)
	c.StartedAt = timePtr(started)
	c.CompletedAt = timePtr(completed)
	return &c, nil
}
