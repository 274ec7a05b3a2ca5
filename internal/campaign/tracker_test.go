package campaign

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aiexpress/campaignctl/internal/models"
)

type fakeService struct {
	createCalls int32
	latestCalls int32
	listCalls   int32

	createFn func(payload models.CampaignPayload) (*models.CampaignRecord, error)
	latestFn func(status string) (*models.CampaignRecord, error)
	listFn   func(limit int) ([]models.CampaignRecord, error)
}

func (f *fakeService) CreateCampaign(ctx context.Context, payload models.CampaignPayload) (*models.CampaignRecord, error) {
	atomic.AddInt32(&f.createCalls, 1)
	return f.createFn(payload)
}

func (f *fakeService) LatestCampaign(ctx context.Context, status string) (*models.CampaignRecord, error) {
	atomic.AddInt32(&f.latestCalls, 1)
	return f.latestFn(status)
}

func (f *fakeService) ListCampaigns(ctx context.Context, limit int) ([]models.CampaignRecord, error) {
	atomic.AddInt32(&f.listCalls, 1)
	return f.listFn(limit)
}

func pendingRecord(id string) *models.CampaignRecord {
	return &models.CampaignRecord{
		ID:              id,
		Producto:        "Relojes antiguos",
		PublicoObjetivo: "Coleccionistas",
		Status:          models.StatusPending,
	}
}

func TestSubmitBlankFieldNeverHitsTheNetwork(t *testing.T) {
	svc := &fakeService{}
	tracker := NewTracker(svc, nil)

	_, err := tracker.Submit(context.Background(), models.CampaignPayload{
		Producto:        "   ",
		PublicoObjetivo: "Coleccionistas",
	})
	require.Error(t, err)
	require.Zero(t, atomic.LoadInt32(&svc.createCalls))
	require.Equal(t, validationMessage, tracker.State().Err)
}

func TestSubmitTrimsAndBumpsRefreshToken(t *testing.T) {
	var got models.CampaignPayload
	svc := &fakeService{
		createFn: func(payload models.CampaignPayload) (*models.CampaignRecord, error) {
			got = payload
			return pendingRecord("camp-1"), nil
		},
	}
	tracker := NewTracker(svc, nil)
	require.Zero(t, tracker.RefreshToken())

	record, err := tracker.Submit(context.Background(), models.CampaignPayload{
		Producto:        "  Relojes antiguos  ",
		PublicoObjetivo: " Coleccionistas ",
	})
	require.NoError(t, err)
	require.Equal(t, "Relojes antiguos", got.Producto)
	require.Equal(t, "Coleccionistas", got.PublicoObjetivo)
	require.Equal(t, models.StatusPending, record.Status)

	state := tracker.State()
	require.Equal(t, uint64(1), state.RefreshToken)
	require.True(t, state.ForceLoading)
	require.Empty(t, state.Err)
}

func TestSubmitFailureSurfacesTheServerMessage(t *testing.T) {
	svc := &fakeService{
		createFn: func(models.CampaignPayload) (*models.CampaignRecord, error) {
			return nil, errors.New("No se pudo guardar la campana.")
		},
	}
	tracker := NewTracker(svc, nil)

	_, err := tracker.Submit(context.Background(), models.CampaignPayload{
		Producto:        "Relojes antiguos",
		PublicoObjetivo: "Coleccionistas",
	})
	require.Error(t, err)
	require.Equal(t, "No se pudo guardar la campana.", tracker.State().Err)
	require.Zero(t, tracker.RefreshToken())
}

func TestLoadLatestNotFoundIsEmptyState(t *testing.T) {
	svc := &fakeService{
		latestFn: func(string) (*models.CampaignRecord, error) { return nil, nil },
	}
	tracker := NewTracker(svc, nil)

	record, err := tracker.LoadLatest(context.Background(), "completed")
	require.NoError(t, err)
	require.Nil(t, record)

	state := tracker.State()
	require.Nil(t, state.Record)
	require.Empty(t, state.Err)
	require.False(t, state.Loading)
}

func TestLoadLatestFailureKeepsPriorRecord(t *testing.T) {
	failing := false
	svc := &fakeService{
		latestFn: func(string) (*models.CampaignRecord, error) {
			if failing {
				return nil, errors.New("se corto")
			}
			return pendingRecord("camp-1"), nil
		},
	}
	tracker := NewTracker(svc, nil)

	_, err := tracker.LoadLatest(context.Background(), "")
	require.NoError(t, err)

	failing = true
	_, err = tracker.LoadLatest(context.Background(), "")
	require.Error(t, err)

	state := tracker.State()
	require.NotNil(t, state.Record)
	require.Equal(t, "camp-1", state.Record.ID)
	require.Equal(t, "se corto", state.Err)
}

func TestLoadLatestClearsForceLoading(t *testing.T) {
	svc := &fakeService{
		createFn: func(models.CampaignPayload) (*models.CampaignRecord, error) {
			return pendingRecord("camp-1"), nil
		},
		latestFn: func(string) (*models.CampaignRecord, error) { return pendingRecord("camp-1"), nil },
	}
	tracker := NewTracker(svc, nil)

	_, err := tracker.Submit(context.Background(), models.CampaignPayload{
		Producto:        "Relojes antiguos",
		PublicoObjetivo: "Coleccionistas",
	})
	require.NoError(t, err)
	require.True(t, tracker.State().ForceLoading)

	_, err = tracker.LoadLatest(context.Background(), "")
	require.NoError(t, err)
	require.False(t, tracker.State().ForceLoading)
}

func TestOverlappingLoadsKeepTheNewest(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	var call int32
	svc := &fakeService{
		latestFn: func(string) (*models.CampaignRecord, error) {
			if atomic.AddInt32(&call, 1) == 1 {
				close(firstStarted)
				<-releaseFirst
				return pendingRecord("vieja"), nil
			}
			return pendingRecord("nueva"), nil
		},
	}
	tracker := NewTracker(svc, nil)

	firstDone := make(chan error, 1)
	go func() {
		_, err := tracker.LoadLatest(context.Background(), "")
		firstDone <- err
	}()

	<-firstStarted
	_, err := tracker.LoadLatest(context.Background(), "")
	require.NoError(t, err)

	close(releaseFirst)
	require.ErrorIs(t, <-firstDone, ErrSuperseded)
	require.Equal(t, "nueva", tracker.State().Record.ID)
}
