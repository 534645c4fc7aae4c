package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessagingWindow is the WhatsApp 24-hour messaging window. A contact
// messaged within this window is deferred rather than sent to again.
const MessagingWindow = 24 * time.Hour

// Contact is a WhatsApp recipient identified by phone number
type Contact struct {
	ID            uuid.UUID      `json:"id"`
	PhoneNumber   string         `json:"phone_number"`
	Status        DeliveryStatus `json:"status,omitempty"`
	LastMessageAt *time.Time     `json:"last_message_at,omitempty"`
	UnreadCount   int            `json:"unread_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// InMessagingWindow reports whether the contact was messaged within the
// 24-hour window as of now.
func (c *Contact) InMessagingWindow(now time.Time) bool {
	if c.LastMessageAt == nil {
		return false
	}
	return now.Sub(*c.LastMessageAt) < MessagingWindow
}

// NextSendTime returns the earliest time a deferred send may be retried
func (c *Contact) NextSendTime() time.Time {
	if c.LastMessageAt == nil {
		return time.Time{}
	}
	return c.LastMessageAt.Add(MessagingWindow)
}

//go:generate mockgen -destination mocks/mock_contact_repository.go -package mocks github.com/waplane/waplane/internal/domain ContactRepository

// ContactRepository provides access to contact storage
type ContactRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Contact, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*Contact, error)
	Create(ctx context.Context, contact *Contact) error
	Update(ctx context.Context, contact *Contact) error
}
