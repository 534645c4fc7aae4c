package domain

import "context"

// Event names published to the real-time notification sink
const (
	EventCampaignStatus   = "campaign_status"
	EventCampaignProgress = "campaign_progress"
	EventMessageSent      = "message_sent"
	EventMessageStatus    = "message_status"
	EventMessageReceived  = "message_received"
)

//go:generate mockgen -destination mocks/mock_event_sink.go -package mocks github.com/waplane/waplane/internal/domain EventSink

// EventSink delivers fire-and-forget events to a real-time transport for
// connected clients. Never on the critical path of a commit: callers
// notify strictly after their transaction commits, and delivery failures
// are logged, not propagated.
type EventSink interface {
	Notify(ctx context.Context, event string, data map[string]interface{})
}
