package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aiexpress/campaignctl/internal/models"
	"go.uber.org/zap"
)

// DefaultListLimit bounds campaign listings when the caller passes no limit.
const DefaultListLimit = 20

const genericErrorMessage = "No pudimos completar la solicitud. Proba de nuevo en unos segundos."

// RequestError is a non-success response from the agent service, with the
// human-readable message extracted from its body.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Client performs HTTP calls against the campaign agent service. Every call
// is a fresh request; there is no retry and no caching.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CreateCampaign submits a product/audience pair and returns the freshly
// created record, normally still in pending state.
func (c *Client) CreateCampaign(ctx context.Context, payload models.CampaignPayload) (*models.CampaignRecord, error) {
	resp, err := c.do(ctx, http.MethodPost, "/campaigns", nil, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return nil, c.errorFromResponse(resp)
	}

	var record models.CampaignRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decoding campaign record: %w", err)
	}
	return &record, nil
}

// LatestCampaign fetches the most recent record, optionally filtered by
// status. A 404 means there is no record yet and yields (nil, nil).
func (c *Client) LatestCampaign(ctx context.Context, status string) (*models.CampaignRecord, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	resp, err := c.do(ctx, http.MethodGet, "/campaigns/latest", query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if !success(resp.StatusCode) {
		return nil, c.errorFromResponse(resp)
	}

	var record models.CampaignRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decoding campaign record: %w", err)
	}
	return &record, nil
}

// ListCampaigns returns up to limit records, most recent first. A limit of
// zero or less falls back to DefaultListLimit.
func (c *Client) ListCampaigns(ctx context.Context, limit int) ([]models.CampaignRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	resp, err := c.do(ctx, http.MethodGet, "/campaigns", query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return nil, c.errorFromResponse(resp)
	}

	var records []models.CampaignRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding campaign list: %w", err)
	}
	return records, nil
}

// SendChatTurn posts one conversational turn and hands back the raw
// response. Status and body validation belong to the caller; the chat
// endpoint predates the richer campaign contract and stays low-level.
func (c *Client) SendChatTurn(ctx context.Context, body models.ChatRequest) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, "/chat", nil, body)
}

// CampaignData reads the stored product/audience pair from the legacy
// data-only endpoint. 404 yields (nil, nil).
func (c *Client) CampaignData(ctx context.Context) (*models.CampaignPayload, error) {
	resp, err := c.do(ctx, http.MethodGet, "/datos-campania", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if !success(resp.StatusCode) {
		return nil, c.errorFromResponse(resp)
	}

	var payload models.CampaignPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding campaign data: %w", err)
	}
	return &payload, nil
}

// SaveCampaignData stores a product/audience pair through the legacy
// endpoint and echoes back what the service kept.
func (c *Client) SaveCampaignData(ctx context.Context, payload models.CampaignPayload) (*models.CampaignPayload, error) {
	resp, err := c.do(ctx, http.MethodPost, "/datos-campania", nil, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return nil, c.errorFromResponse(resp)
	}

	var saved models.CampaignPayload
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		return nil, fmt.Errorf("decoding campaign data: %w", err)
	}
	return &saved, nil
}

// CampaignResults reads generated copy from the legacy results-only
// endpoint. 404 yields (nil, nil).
func (c *Client) CampaignResults(ctx context.Context) (*models.CampaignResult, error) {
	resp, err := c.do(ctx, http.MethodGet, "/resultados-campania", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if !success(resp.StatusCode) {
		return nil, c.errorFromResponse(resp)
	}

	var result models.CampaignResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding campaign result: %w", err)
	}
	return &result, nil
}

// Health pings the agent service.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return c.errorFromResponse(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", genericErrorMessage, err)
	}
	return resp, nil
}

// errorFromResponse turns a non-success response into a RequestError,
// pulling the message from a recognized "error" or "detail" body field.
func (c *Client) errorFromResponse(resp *http.Response) error {
	message := genericErrorMessage

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil {
		var body struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if json.Unmarshal(raw, &body) == nil {
			switch {
			case body.Error != "":
				message = body.Error
			case body.Detail != "":
				message = body.Detail
			}
		}
	}

	c.logger.Debug("agent service returned an error",
		zap.Int("status", resp.StatusCode),
		zap.String("message", message))

	return &RequestError{StatusCode: resp.StatusCode, Message: message}
}

func success(status int) bool {
	return status >= 200 && status < 300
}
