package campaign

import (
	"context"
	"errors"
	"sync"

	"github.com/aiexpress/campaignctl/internal/models"
	"go.uber.org/zap"
)

// ErrSuperseded marks a load whose response arrived after a newer load was
// already issued; its outcome was discarded.
var ErrSuperseded = errors.New("la consulta fue reemplazada por una mas nueva")

const validationMessage = "Completa los campos antes de guardar."

// Service is the slice of the agent API the campaign components need.
// The api.Client satisfies this.
type Service interface {
	CreateCampaign(ctx context.Context, payload models.CampaignPayload) (*models.CampaignRecord, error)
	LatestCampaign(ctx context.Context, status string) (*models.CampaignRecord, error)
	ListCampaigns(ctx context.Context, limit int) ([]models.CampaignRecord, error)
}

// TrackerState is a snapshot of the tracker for rendering.
type TrackerState struct {
	Record       *models.CampaignRecord
	Loading      bool
	ForceLoading bool
	Err          string
	RefreshToken uint64
}

// Tracker drives the create -> poll -> display cycle for one campaign at a
// time. Submissions bump a monotonic refresh token so a results view can
// re-fetch exactly once per submit, decoupled from the submit itself.
type Tracker struct {
	mu      sync.Mutex
	record  *models.CampaignRecord
	loading bool
	force   bool
	err     string
	token   uint64
	loadSeq uint64

	svc    Service
	logger *zap.Logger
}

func NewTracker(svc Service, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{svc: svc, logger: logger}
}

// Submit validates the payload locally and, when valid, creates the
// campaign. Validation failure never reaches the network. On success the
// new record is stored, the refresh token is incremented and the results
// view is held in a loading state until its next load lands.
func (t *Tracker) Submit(ctx context.Context, payload models.CampaignPayload) (*models.CampaignRecord, error) {
	payload = payload.Normalized()
	if err := payload.Validate(); err != nil {
		t.mu.Lock()
		t.err = validationMessage
		t.mu.Unlock()
		return nil, err
	}

	record, err := t.svc.CreateCampaign(ctx, payload)
	if err != nil {
		t.mu.Lock()
		t.err = err.Error()
		t.mu.Unlock()
		return nil, err
	}

	t.mu.Lock()
	t.record = record
	t.err = ""
	t.force = true
	t.token++
	t.mu.Unlock()

	t.logger.Debug("campaign submitted",
		zap.String("id", record.ID),
		zap.String("status", string(record.Status)))
	return record, nil
}

// LoadLatest fetches the most recent record, optionally filtered by status
// (a results view passes "completed" so stale pending data never shows).
// No record at all is a normal empty state, not an error. Each call gets a
// monotonic id; a call that finishes after a newer one was issued discards
// its outcome and returns ErrSuperseded. A fetch failure keeps the prior
// record on display and only sets the error text.
func (t *Tracker) LoadLatest(ctx context.Context, status string) (*models.CampaignRecord, error) {
	t.mu.Lock()
	t.loadSeq++
	seq := t.loadSeq
	t.loading = true
	t.err = ""
	t.mu.Unlock()

	record, err := t.svc.LatestCampaign(ctx, status)

	t.mu.Lock()
	defer t.mu.Unlock()
	if seq != t.loadSeq {
		t.logger.Debug("dropping stale latest-campaign response")
		return nil, ErrSuperseded
	}
	t.loading = false
	t.force = false
	if err != nil {
		t.err = err.Error()
		return nil, err
	}
	t.record = record
	return record, nil
}

// RefreshToken returns the current submit counter. Each increment should
// drive exactly one re-fetch by whoever displays results.
func (t *Tracker) RefreshToken() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

// State returns a snapshot for rendering.
func (t *Tracker) State() TrackerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	var record *models.CampaignRecord
	if t.record != nil {
		copied := *t.record
		record = &copied
	}
	return TrackerState{
		Record:       record,
		Loading:      t.loading,
		ForceLoading: t.force,
		Err:          t.err,
		RefreshToken: t.token,
	}
}
