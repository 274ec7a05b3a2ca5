package agent

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aiexpress/campaignctl/internal/models"
	"github.com/google/uuid"
)

// MemoryStore keeps campaign records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.CampaignRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.CampaignRecord),
		now:     time.Now,
	}
}

func (s *MemoryStore) CreatePending(ctx context.Context, producto, publicoObjetivo string) (*models.CampaignRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	record := &models.CampaignRecord{
		ID:              uuid.New().String(),
		Producto:        producto,
		PublicoObjetivo: publicoObjetivo,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.records[record.ID] = record
	return copyRecord(record), nil
}

func (s *MemoryStore) MarkCompleted(ctx context.Context, id string, result models.CampaignResult) (*models.CampaignRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[id]
	if !exists {
		return nil, ErrNotFound
	}
	record.Status = models.StatusCompleted
	record.Result = &result
	record.Error = nil
	record.UpdatedAt = s.now().UTC()
	return copyRecord(record), nil
}

func (s *MemoryStore) MarkFailed(ctx context.Context, id string, reason string) (*models.CampaignRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[id]
	if !exists {
		return nil, ErrNotFound
	}
	record.Status = models.StatusFailed
	record.Error = &reason
	record.UpdatedAt = s.now().UTC()
	return copyRecord(record), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.CampaignRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if record, exists := s.records[id]; exists {
		return copyRecord(record), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]models.CampaignRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := make([]models.CampaignRecord, 0, len(s.records))
	for _, record := range s.records {
		ordered = append(ordered, *copyRecord(record))
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered, nil
}

func (s *MemoryStore) Latest(ctx context.Context, status models.CampaignStatus) (*models.CampaignRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.CampaignRecord
	for _, record := range s.records {
		if status != "" && record.Status != status {
			continue
		}
		if latest == nil || record.CreatedAt.After(latest.CreatedAt) {
			latest = record
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyRecord(latest), nil
}

func (s *MemoryStore) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

func copyRecord(record *models.CampaignRecord) *models.CampaignRecord {
	copied := *record
	if record.Result != nil {
		result := *record.Result
		result.Tweets = append([]string(nil), record.Result.Tweets...)
		copied.Result = &result
	}
	if record.Error != nil {
		reason := *record.Error
		copied.Error = &reason
	}
	return &copied
}
