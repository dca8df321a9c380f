package database

import (
	"context"

	"github.com/paralleldialer/paralleldialer/internal/campaign"
	"github.com/paralleldialer/paralleldialer/internal/database/models"
)

// CampaignRepository manages campaign rows. Get methods return (nil, nil)
// when no row matches.
type CampaignRepository interface {
	Create(ctx context.Context, c *campaign.Campaign) error
	GetByID(ctx context.Context, id string) (*campaign.Campaign, error)
	List(ctx context.Context) ([]campaign.Campaign, error)
	Update(ctx context.Context, c *campaign.Campaign) error
	Delete(ctx context.Context, id string) error
}

// LeadRepository manages lead rows within campaigns.
type LeadRepository interface {
	Create(ctx context.Context, l *campaign.Lead) error
	GetByID(ctx context.Context, id string) (*campaign.Lead, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]campaign.Lead, error)
	// ListCallable returns up to limit PENDING leads in creation order.
	ListCallable(ctx context.Context, campaignID string, limit int) ([]campaign.Lead, error)
	Update(ctx context.Context, l *campaign.Lead) error
	Delete(ctx context.Context, id string) error
	CountByCampaign(ctx context.Context, campaignID string) (int, error)
	CountByStatus(ctx context.Context, campaignID string) (map[campaign.LeadStatus]int, error)
	// PhoneNumbers returns the set of phone numbers already present in the
	// campaign, for bulk-import duplicate screening.
	PhoneNumbers(ctx context.Context, campaignID string) (map[string]struct{}, error)
}

// UserRepository manages user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}
