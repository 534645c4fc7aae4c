package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is the per-recipient delivery state within a campaign.
// Status only moves forward along QUEUED -> SENT -> DELIVERED -> READ;
// FAILED and REPLIED are absorbing side-branches. SCHEDULED marks a
// recipient deferred by the 24-hour messaging window.
type DeliveryStatus string

const (
	DeliveryStatusQueued    DeliveryStatus = "queued"
	DeliveryStatusScheduled DeliveryStatus = "scheduled"
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusRead      DeliveryStatus = "read"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusReplied   DeliveryStatus = "replied"
)

// deliveryWeights orders the forward lattice. FAILED and REPLIED are not part
// of the forward progression and are handled by explicit business rules.
var deliveryWeights = map[DeliveryStatus]int{
	DeliveryStatusQueued:    0,
	DeliveryStatusScheduled: 1,
	DeliveryStatusSent:      2,
	DeliveryStatusDelivered: 3,
	DeliveryStatusRead:      4,
}

// AtLeastSent reports whether the status is a terminal forward state for a
// send attempt. A link in one of these states must never be sent again.
func (s DeliveryStatus) AtLeastSent() bool {
	if s == DeliveryStatusFailed || s == DeliveryStatusReplied {
		return true
	}
	return deliveryWeights[s] >= deliveryWeights[DeliveryStatusSent]
}

// MaxErrorMessageLength bounds the stored per-recipient error text
const MaxErrorMessageLength = 500

// CampaignContact is the delivery link between a Campaign and a Contact.
// Exactly one exists per (campaign_id, contact_id) pair.
type CampaignContact struct {
	ID           uuid.UUID      `json:"id"`
	CampaignID   uuid.UUID      `json:"campaign_id"`
	ContactID    uuid.UUID      `json:"contact_id"`
	MessageID    *uuid.UUID     `json:"message_id,omitempty"`
	Status       DeliveryStatus `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	RetryCount   int            `json:"retry_count"`
	CanSendAfter *time.Time     `json:"can_send_after,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// SetError records a truncated failure reason on the link
func (cc *CampaignContact) SetError(msg string) {
	if len(msg) > MaxErrorMessageLength {
		msg = msg[:MaxErrorMessageLength]
	}
	cc.ErrorMessage = msg
}

//go:generate mockgen -destination mocks/mock_campaign_contact_repository.go -package mocks github.com/waplane/waplane/internal/domain CampaignContactRepository

// CampaignContactRepository provides access to campaign delivery links
type CampaignContactRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*CampaignContact, error)
	GetByMessageID(ctx context.Context, messageID uuid.UUID) (*CampaignContact, error)
	CreateBatch(ctx context.Context, links []*CampaignContact) error
	Update(ctx context.Context, link *CampaignContact) error

	// GetSendable pages through links still eligible for a send attempt:
	// QUEUED, FAILED with retry_count = 0, or SCHEDULED with an elapsed
	// can_send_after.
	GetSendable(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*CampaignContact, error)

	// CountRemaining counts links that still block campaign completion
	CountRemaining(ctx context.Context, campaignID uuid.UUID) (int, error)

	// GetLatestSentForContact returns the most recently sent link for a
	// contact across all campaigns, if any. Used to attribute inbound
	// replies to a campaign.
	GetLatestSentForContact(ctx context.Context, contactID uuid.UUID) (*CampaignContact, error)
}
