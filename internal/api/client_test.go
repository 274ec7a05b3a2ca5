package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aiexpress/campaignctl/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, nil)
}

func TestCreateCampaign(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/campaigns", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload models.CampaignPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "Relojes antiguos", payload.Producto)

		json.NewEncoder(w).Encode(models.CampaignRecord{
			ID:              "camp-1",
			Producto:        payload.Producto,
			PublicoObjetivo: payload.PublicoObjetivo,
			Status:          models.StatusPending,
		})
	})

	record, err := client.CreateCampaign(context.Background(), models.CampaignPayload{
		Producto:        "Relojes antiguos",
		PublicoObjetivo: "Coleccionistas",
	})
	require.NoError(t, err)
	require.Equal(t, "camp-1", record.ID)
	require.Equal(t, models.StatusPending, record.Status)
}

func TestCreateCampaignErrorMessages(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"detail field", http.StatusInternalServerError, `{"detail":"No se pudo generar la campana."}`, "No se pudo generar la campana."},
		{"error field", http.StatusBadRequest, `{"error":"cuerpo invalido"}`, "cuerpo invalido"},
		{"error wins over detail", http.StatusBadRequest, `{"error":"uno","detail":"otro"}`, "uno"},
		{"malformed body", http.StatusBadGateway, `<html>boom</html>`, genericErrorMessage},
		{"empty body", http.StatusInternalServerError, ``, genericErrorMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			_, err := client.CreateCampaign(context.Background(), models.CampaignPayload{
				Producto:        "Producto",
				PublicoObjetivo: "Publico",
			})
			require.Error(t, err)

			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			require.Equal(t, tc.status, reqErr.StatusCode)
			require.Equal(t, tc.message, reqErr.Message)
		})
	}
}

func TestLatestCampaignNotFoundIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"No hay campanas disponibles."}`))
	})

	record, err := client.LatestCampaign(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestLatestCampaignStatusFilter(t *testing.T) {
	var gotStatus string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotStatus = r.URL.Query().Get("status")
		json.NewEncoder(w).Encode(models.CampaignRecord{ID: "camp-2", Status: models.StatusCompleted})
	})

	record, err := client.LatestCampaign(context.Background(), "completed")
	require.NoError(t, err)
	require.Equal(t, "camp-2", record.ID)
	require.Equal(t, "completed", gotStatus)
}

func TestListCampaignsDefaultLimit(t *testing.T) {
	var gotLimit string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		json.NewEncoder(w).Encode([]models.CampaignRecord{{ID: "a"}, {ID: "b"}})
	})

	records, err := client.ListCampaigns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "20", gotLimit)
}

func TestSendChatTurnIsRaw(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat", r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
	})

	resp, err := client.SendChatTurn(context.Background(), models.ChatRequest{
		Messages: []models.ChatTurn{{Role: models.RoleUser, Content: "hola"}},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	// status handling belongs to the caller
	require.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestLegacyEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/datos-campania":
			if r.Method == http.MethodPost {
				var payload models.CampaignPayload
				json.NewDecoder(r.Body).Decode(&payload)
				json.NewEncoder(w).Encode(payload)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case "/resultados-campania":
			json.NewEncoder(w).Encode(models.CampaignResult{Tweets: []string{"t1"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	data, err := client.CampaignData(ctx)
	require.NoError(t, err)
	require.Nil(t, data)

	saved, err := client.SaveCampaignData(ctx, models.CampaignPayload{Producto: "P", PublicoObjetivo: "Q"})
	require.NoError(t, err)
	require.Equal(t, "P", saved.Producto)

	result, err := client.CampaignResults(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, result.Tweets)
}

func TestTransportErrorGetsGenericMessage(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", time.Second, nil)

	_, err := client.LatestCampaign(context.Background(), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), genericErrorMessage)
}
