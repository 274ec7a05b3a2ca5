package agent

import (
	"context"
	"errors"

	"github.com/aiexpress/campaignctl/internal/models"
)

// ErrNotFound is returned by Get when no record matches the id.
var ErrNotFound = errors.New("campaign not found")

// Store persists campaign records for the local agent. Two implementations
// exist: an in-memory store for tests and quick runs, and PostgreSQL for a
// longer-lived local setup.
type Store interface {
	CreatePending(ctx context.Context, producto, publicoObjetivo string) (*models.CampaignRecord, error)
	MarkCompleted(ctx context.Context, id string, result models.CampaignResult) (*models.CampaignRecord, error)
	MarkFailed(ctx context.Context, id string, reason string) (*models.CampaignRecord, error)
	Get(ctx context.Context, id string) (*models.CampaignRecord, error)
	List(ctx context.Context, limit int) ([]models.CampaignRecord, error)
	Latest(ctx context.Context, status models.CampaignStatus) (*models.CampaignRecord, error)
	Close() error
}
