package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageDirection distinguishes inbound from outbound messages
type MessageDirection string

const (
	MessageDirectionInbound  MessageDirection = "in"
	MessageDirectionOutbound MessageDirection = "out"
)

// MessageStatus is the provider-reported lifecycle of a single message
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

var messageWeights = map[MessageStatus]int{
	MessageStatusPending:   0,
	MessageStatusSent:      1,
	MessageStatusDelivered: 2,
	MessageStatusRead:      3,
	MessageStatusFailed:    4,
}

// IsNewerThan reports whether s is a progression from old. Out-of-order
// webhook deliveries (e.g. read before delivered) are dropped by this
// check rather than relying on arrival order.
func (s MessageStatus) IsNewerThan(old MessageStatus) bool {
	newWeight, ok := messageWeights[s]
	if !ok {
		return false
	}
	return newWeight > messageWeights[old]
}

// Message is one outbound or inbound WhatsApp message. Outbound campaign
// messages carry the provider-assigned wamid once accepted, used to
// correlate later status webhooks.
type Message struct {
	ID           uuid.UUID        `json:"id"`
	WabaPhoneID  uuid.UUID        `json:"waba_phone_id"`
	ContactID    uuid.UUID        `json:"contact_id"`
	Direction    MessageDirection `json:"direction"`
	Status       MessageStatus    `json:"status"`
	Kind         MessageKind      `json:"kind"`
	Body         string           `json:"body,omitempty"`
	TemplateName string           `json:"template_name,omitempty"`
	Wamid        string           `json:"wamid,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

//go:generate mockgen -destination mocks/mock_message_repository.go -package mocks github.com/waplane/waplane/internal/domain MessageRepository

// MessageRepository provides access to message storage
type MessageRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Message, error)
	GetByWamid(ctx context.Context, wamid string) (*Message, error)
	Create(ctx context.Context, message *Message) error
	Update(ctx context.Context, message *Message) error
}

// WabaPhone is an outbound provider phone identity for the account
type WabaPhone struct {
	ID            uuid.UUID `json:"id"`
	PhoneNumber   string    `json:"phone_number"`
	PhoneNumberID string    `json:"phone_number_id"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}

//go:generate mockgen -destination mocks/mock_waba_phone_repository.go -package mocks github.com/waplane/waplane/internal/domain WabaPhoneRepository

// WabaPhoneRepository provides access to the account's provider phones
type WabaPhoneRepository interface {
	// GetDefault returns the default outbound phone, or ErrNotFound when
	// none is configured.
	GetDefault(ctx context.Context) (*WabaPhone, error)
	List(ctx context.Context) ([]*WabaPhone, error)
}
