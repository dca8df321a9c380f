package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/paralleldialer/paralleldialer/internal/campaign"
)

// leadRepo implements LeadRepository.
type leadRepo struct {
	db *DB
}

// NewLeadRepository creates a new LeadRepository.
func NewLeadRepository(db *DB) LeadRepository {
	return &leadRepo{db: db}
}

const leadColumns = `id, campaign_id, phone_number, name, company, email, notes,
	status, outcome, fail_reason, retry_count, max_retries,
	created_at, updated_at, last_called_at, call_history`

// Create inserts a new lead. A (campaign_id, phone_number) collision is
// reported as campaign.DuplicatePhoneError.
func (r *leadRepo) Create(ctx context.Context, l *campaign.Lead) error {
	history, err := json.Marshal(historyOrEmpty(l.CallHistory))
	if err != nil {
		return fmt.Errorf("encoding call history: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.CampaignID, l.PhoneNumber, l.Name, l.Company, l.Email, l.Notes,
		string(l.Status), l.Outcome, l.FailReason, l.RetryCount, l.MaxRetries,
		l.CreatedAt, l.UpdatedAt, nullableTime(l.LastCalledAt), string(history),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return &campaign.DuplicatePhoneError{PhoneNumber: l.PhoneNumber}
		}
		return fmt.Errorf("inserting lead: %w", err)
	}
	return nil
}

// GetByID returns a lead by ID.
func (r *leadRepo) GetByID(ctx context.Context, id string) (*campaign.Lead, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	l, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying lead by id: %w", err)
	}
	return l, nil
}

// ListByCampaign returns all leads of a campaign in creation order.
func (r *leadRepo) ListByCampaign(ctx context.Context, campaignID string) ([]campaign.Lead, error) {
	return r.list(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE campaign_id = ? ORDER BY created_at, id`,
		campaignID)
}

// ListCallable returns up to limit PENDING leads in creation order.
func (r *leadRepo) ListCallable(ctx context.Context, campaignID string, limit int) ([]campaign.Lead, error) {
	return r.list(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE campaign_id = ? AND status = ? ORDER BY created_at, id LIMIT ?`,
		campaignID, string(campaign.LeadPending), limit)
}

func (r *leadRepo) list(ctx context.Context, query string, args ...any) ([]campaign.Lead, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying leads: %w", err)
	}
	defer rows.Close()

	var leads []campaign.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lead row: %w", err)
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

// Update replaces the mutable columns of an existing lead, including the
// serialized call history.
func (r *leadRepo) Update(ctx context.Context, l *campaign.Lead) error {
	history, err := json.Marshal(historyOrEmpty(l.CallHistory))
	if err != nil {
		return fmt.Errorf("encoding call history: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE leads SET name = ?, company = ?, email = ?, notes = ?,
		 status = ?, outcome = ?, fail_reason = ?, retry_count = ?, max_retries = ?,
		 updated_at = ?, last_called_at = ?, call_history = ?
		 WHERE id = ?`,
		l.Name, l.Company, l.Email, l.Notes,
		string(l.Status), l.Outcome, l.FailReason, l.RetryCount, l.MaxRetries,
		l.UpdatedAt, nullableTime(l.LastCalledAt), string(history),
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("updating lead: %w", err)
	}
	return nil
}

func (r *leadRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting lead: %w", err)
	}
	return nil
}

// CountByCampaign returns the number of leads in a campaign.
func (r *leadRepo) CountByCampaign(ctx context.Context, campaignID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE campaign_id = ?`, campaignID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting leads: %w", err)
	}
	return count, nil
}

// CountByStatus returns lead counts grouped by status. Absent statuses map
// to zero.
func (r *leadRepo) CountByStatus(ctx context.Context, campaignID string) (map[campaign.LeadStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM leads WHERE campaign_id = ? GROUP BY status`,
		campaignID)
	if err != nil {
		return nil, fmt.Errorf("counting leads by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[campaign.LeadStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning lead count row: %w", err)
		}
		counts[campaign.LeadStatus(status)] = n
	}
	return counts, rows.Err()
}

// PhoneNumbers returns the set of phone numbers already in the campaign.
func (r *leadRepo) PhoneNumbers(ctx context.Context, campaignID string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT phone_number FROM leads WHERE campaign_id = ?`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("querying lead phone numbers: %w", err)
	}
	defer rows.Close()

	phones := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning phone number row: %w", err)
		}
		phones[p] = struct{}{}
	}
	return phones, rows.Err()
}

func scanLead(s scanner) (*campaign.Lead, error) {
	var (
		l          campaign.Lead
		status     string
		lastCalled sql.NullTime
		history    string
	)
	err := s.Scan(&l.ID, &l.CampaignID, &l.PhoneNumber, &l.Name, &l.Company, &l.Email, &l.Notes,
		&status, &l.Outcome, &l.FailReason, &l.RetryCount, &l.MaxRetries,
		&l.CreatedAt, &l.UpdatedAt, &lastCalled, &history)
	if err != nil {
		return nil, err
	}
	l.Status = campaign.LeadStatus(status)
	l.LastCalledAt = timePtr(lastCalled)
	if err := json.Unmarshal([]byte(history), &l.CallHistory); err != nil {
		return nil, fmt.Errorf("decoding call history: %w", err)
	}
	return &l, nil
}

// historyOrEmpty keeps the stored column a JSON array even for nil slices.
func historyOrEmpty(h []campaign.CallAttempt) []campaign.CallAttempt {
	if h == nil {
		return []campaign.CallAttempt{}
	}
	return h
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
