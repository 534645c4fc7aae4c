package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CampaignStatus defines the current status of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusRunning   CampaignStatus = "running"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// MessageKind is the tagged variant discriminator for outbound campaign content
type MessageKind string

const (
	MessageKindText     MessageKind = "text"
	MessageKindTemplate MessageKind = "template"
)

// Campaign is a bulk-send job targeting a list of contacts with one message.
// Counters are approximate progress indicators, not an exact partition of
// total_contacts: FAILED and REPLIED transitions do not always decrement the
// counter they displaced (see StatsService).
type Campaign struct {
	ID                uuid.UUID      `json:"id"`
	Name              string         `json:"name"`
	MessageKind       MessageKind    `json:"message_kind"`
	MessageBody       string         `json:"message_body,omitempty"`
	TemplateName      string         `json:"template_name,omitempty"`
	TemplateLanguage  string         `json:"template_language,omitempty"`
	Status            CampaignStatus `json:"status"`
	ScheduledAt       *time.Time     `json:"scheduled_at,omitempty"`
	StartedAt         *time.Time     `json:"started_at,omitempty"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	TotalContacts     int            `json:"total_contacts"`
	SentCount         int            `json:"sent_count"`
	DeliveredCount    int            `json:"delivered_count"`
	ReadCount         int            `json:"read_count"`
	FailedCount       int            `json:"failed_count"`
	RepliedCount      int            `json:"replied_count"`
	MessagesPerSecond int            `json:"messages_per_second"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// IsActive returns true while the campaign still owns sendable work
func (c *Campaign) IsActive() bool {
	return c.Status == CampaignStatusRunning || c.Status == CampaignStatusPaused
}

// ValidateStart checks the start preconditions
func (c *Campaign) ValidateStart() error {
	if c.Status != CampaignStatusDraft && c.Status != CampaignStatusScheduled {
		return &CampaignStateError{CampaignID: c.ID, Status: c.Status, Operation: "start"}
	}
	if c.TotalContacts == 0 {
		return NewValidationError("cannot start campaign with no contacts")
	}
	return nil
}

// ValidatePause checks the pause precondition
func (c *Campaign) ValidatePause() error {
	if c.Status != CampaignStatusRunning {
		return &CampaignStateError{CampaignID: c.ID, Status: c.Status, Operation: "pause"}
	}
	return nil
}

// ValidateResume checks the resume precondition
func (c *Campaign) ValidateResume() error {
	if c.Status != CampaignStatusPaused {
		return &CampaignStateError{CampaignID: c.ID, Status: c.Status, Operation: "resume"}
	}
	return nil
}

// Progress returns the sent progress as a percentage (0-100)
func (c *Campaign) Progress() float64 {
	if c.TotalContacts <= 0 {
		return 100.0
	}
	progress := float64(c.SentCount) / float64(c.TotalContacts) * 100.0
	if progress > 100.0 {
		progress = 100.0
	}
	return progress
}

//go:generate mockgen -destination mocks/mock_campaign_repository.go -package mocks github.com/waplane/waplane/internal/domain CampaignRepository

// CampaignRepository provides access to campaign storage
type CampaignRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	Create(ctx context.Context, campaign *Campaign) error
	Update(ctx context.Context, campaign *Campaign) error

	// ListByStatus returns all campaigns currently in one of the given statuses
	ListByStatus(ctx context.Context, statuses ...CampaignStatus) ([]*Campaign, error)

	// GetScheduled returns scheduled campaigns whose scheduled_at is due at now
	GetScheduled(ctx context.Context, now time.Time) ([]*Campaign, error)
}
