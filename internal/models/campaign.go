package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CampaignStatus is the lifecycle state of a campaign record. The agent
// service owns the transitions; clients only ever re-fetch.
type CampaignStatus string

const (
	StatusPending   CampaignStatus = "pending"
	StatusCompleted CampaignStatus = "completed"
	StatusFailed    CampaignStatus = "failed"
)

// Terminal reports whether the status will no longer change.
func (s CampaignStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s CampaignStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CampaignPayload is the input for creating a campaign.
type CampaignPayload struct {
	Producto        string `json:"producto"`
	PublicoObjetivo string `json:"publico_objetivo"`
}

// Normalized returns a copy with both fields trimmed.
func (p CampaignPayload) Normalized() CampaignPayload {
	return CampaignPayload{
		Producto:        strings.TrimSpace(p.Producto),
		PublicoObjetivo: strings.TrimSpace(p.PublicoObjetivo),
	}
}

// Validate enforces the agent service's input contract: both fields
// required, 3 to 280 characters.
func (p CampaignPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Producto, validation.Required, validation.Length(3, 280)),
		validation.Field(&p.PublicoObjetivo, validation.Required, validation.Length(3, 280)),
	)
}

// CampaignResult is the copy produced by the agent. Clients never build
// one of these; it only arrives inside a completed record.
type CampaignResult struct {
	Producto        string     `json:"producto"`
	PublicoObjetivo string     `json:"publico_objetivo"`
	Tweets          []string   `json:"tweets"`
	LinkedinPost    *string    `json:"linkedin_post,omitempty"`
	InstagramPost   *string    `json:"instagram_post,omitempty"`
	Resumen         *string    `json:"resumen,omitempty"`
	GeneratedAt     *time.Time `json:"generated_at,omitempty"`
}

// Empty reports whether the result carries no generated content at all.
func (r *CampaignResult) Empty() bool {
	if r == nil {
		return true
	}
	return len(r.Tweets) == 0 && r.LinkedinPost == nil && r.InstagramPost == nil && r.Resumen == nil
}

// CampaignRecord is the persisted representation of one campaign and its
// lifecycle status.
type CampaignRecord struct {
	ID              string          `json:"id"`
	Producto        string          `json:"producto"`
	PublicoObjetivo string          `json:"publico_objetivo"`
	Status          CampaignStatus  `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Result          *CampaignResult `json:"result"`
	Error           *string         `json:"error"`
}
