package campaign

import (
	"context"
	"sync"

	"github.com/aiexpress/campaignctl/internal/models"
	"go.uber.org/zap"
)

// HistoryState is a snapshot of the history view.
type HistoryState struct {
	Items    []models.CampaignRecord
	Expanded string
	Loading  bool
	Err      string
}

// History fetches a bounded list of past campaigns and manages a single
// expanded selection over it. Refresh is manual; there is no polling.
type History struct {
	mu       sync.Mutex
	items    []models.CampaignRecord
	expanded string
	loading  bool
	err      string
	loadSeq  uint64

	limit  int
	svc    Service
	logger *zap.Logger
}

func NewHistory(svc Service, limit int, logger *zap.Logger) *History {
	if limit <= 0 {
		limit = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{limit: limit, svc: svc, logger: logger}
}

// Load re-fetches the list. If the currently expanded record no longer
// appears in the fresh list the selection is cleared, so the view never
// keeps an expansion over rotated-out data. Responses that land after a
// newer Load was issued are dropped.
func (h *History) Load(ctx context.Context) error {
	h.mu.Lock()
	h.loadSeq++
	seq := h.loadSeq
	h.loading = true
	h.err = ""
	h.mu.Unlock()

	items, err := h.svc.ListCampaigns(ctx, h.limit)

	h.mu.Lock()
	defer h.mu.Unlock()
	if seq != h.loadSeq {
		h.logger.Debug("dropping stale campaign-list response")
		return ErrSuperseded
	}
	h.loading = false
	if err != nil {
		h.err = err.Error()
		return err
	}
	h.items = items
	if h.expanded != "" && !contains(items, h.expanded) {
		h.expanded = ""
	}
	return nil
}

// Toggle expands id, or collapses it when it is already the expanded one.
// At most one record is expanded at a time.
func (h *History) Toggle(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.expanded == id {
		h.expanded = ""
		return
	}
	h.expanded = id
}

// Expanded returns the id of the expanded record, or "".
func (h *History) Expanded() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.expanded
}

// State returns a snapshot for rendering.
func (h *History) State() HistoryState {
	h.mu.Lock()
	defer h.mu.Unlock()
	items := make([]models.CampaignRecord, len(h.items))
	copy(items, h.items)
	return HistoryState{
		Items:    items,
		Expanded: h.expanded,
		Loading:  h.loading,
		Err:      h.err,
	}
}

func contains(items []models.CampaignRecord, id string) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}
