package console

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aiexpress/campaignctl/internal/campaign"
	"github.com/aiexpress/campaignctl/internal/chat"
	"github.com/aiexpress/campaignctl/internal/models"
)

type scriptedAgent struct {
	reply  string
	latest *models.CampaignRecord
	items  []models.CampaignRecord
}

func (a *scriptedAgent) SendChatTurn(ctx context.Context, body models.ChatRequest) (*http.Response, error) {
	payload, err := json.Marshal(models.ChatResponse{
		Messages: []models.Message{{Role: models.RoleAssistant, Content: a.reply}},
	})
	if err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(payload)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func (a *scriptedAgent) CreateCampaign(ctx context.Context, payload models.CampaignPayload) (*models.CampaignRecord, error) {
	return &models.CampaignRecord{
		ID:              "c-1",
		Producto:        payload.Producto,
		PublicoObjetivo: payload.PublicoObjetivo,
		Status:          models.StatusPending,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func (a *scriptedAgent) LatestCampaign(ctx context.Context, status string) (*models.CampaignRecord, error) {
	return a.latest, nil
}

func (a *scriptedAgent) ListCampaigns(ctx context.Context, limit int) ([]models.CampaignRecord, error) {
	return a.items, nil
}

func runSession(t *testing.T, agent *scriptedAgent, input string) string {
	t.Helper()

	var out bytes.Buffer
	con := New(
		chat.NewStore(agent, nil),
		campaign.NewTracker(agent, nil),
		campaign.NewHistory(agent, 0, nil),
		strings.NewReader(input),
		&out,
		nil,
	)
	require.NoError(t, con.Run(context.Background()))
	return out.String()
}

func TestPlainLinesBecomeChatTurns(t *testing.T) {
	agent := &scriptedAgent{reply: "Contame mas sobre el producto."}

	out := runSession(t, agent, "quiero lanzar relojes antiguos\n/quit\n")

	require.Contains(t, out, "vos: quiero lanzar relojes antiguos")
	require.Contains(t, out, "agente: Contame mas sobre el producto.")
	require.Contains(t, out, "Hasta luego!")
}

func TestCampaignCommandSubmitsAndRefreshes(t *testing.T) {
	agent := &scriptedAgent{reply: "ok"}

	out := runSession(t, agent, "/campaign Relojes antiguos | Coleccionistas\n/quit\n")

	require.Contains(t, out, "Campana enviada (estado: pending)")
	require.Contains(t, out, "Generando resultados")
}

func TestCampaignCommandRequiresBothFields(t *testing.T) {
	agent := &scriptedAgent{reply: "ok"}

	out := runSession(t, agent, "/campaign Relojes antiguos\n/quit\n")

	require.Contains(t, out, "uso: /campaign")
}

func TestHistoryAndToggle(t *testing.T) {
	resumen := "Campana lista."
	agent := &scriptedAgent{items: []models.CampaignRecord{
		{
			ID:              "c-9",
			Producto:        "Relojes antiguos",
			PublicoObjetivo: "Coleccionistas",
			Status:          models.StatusCompleted,
			CreatedAt:       time.Now().UTC(),
			Result:          &models.CampaignResult{Resumen: &resumen},
		},
	}}

	out := runSession(t, agent, "/history\n/toggle 1\n/quit\n")

	require.Contains(t, out, "+ 1. [COMPLETED] Relojes antiguos -> Coleccionistas")
	require.Contains(t, out, "- 1. [COMPLETED] Relojes antiguos -> Coleccionistas")
	require.Contains(t, out, resumen)
}

func TestToggleOutOfRange(t *testing.T) {
	agent := &scriptedAgent{}

	out := runSession(t, agent, "/history\n/toggle 3\n/quit\n")

	require.Contains(t, out, "El historial esta vacio.")
	require.Contains(t, out, "no hay una campana 3 en el historial")
}

func TestUnknownCommand(t *testing.T) {
	agent := &scriptedAgent{}

	out := runSession(t, agent, "/nope\n/quit\n")

	require.Contains(t, out, "Comando desconocido")
}

func TestResetRestartsRendering(t *testing.T) {
	agent := &scriptedAgent{reply: "primera respuesta"}

	out := runSession(t, agent, "hola\n/reset\nhola de nuevo\n/quit\n")

	require.Contains(t, out, "Conversacion reiniciada.")
	require.Contains(t, out, "vos: hola de nuevo")
}
