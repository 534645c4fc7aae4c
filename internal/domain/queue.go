package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CampaignSendSubject returns the per-campaign delivery subject
func CampaignSendSubject(campaignID uuid.UUID) string {
	return fmt.Sprintf("campaigns.send.%s", campaignID)
}

// Delivery is one queued work item handed to a consumer. It must be
// acknowledged exactly once regardless of processing outcome.
type Delivery struct {
	ID      string
	Payload []byte
}

// SendTask is the payload of one campaign delivery work item
type SendTask struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	LinkID     uuid.UUID `json:"link_id"`
	ContactID  uuid.UUID `json:"contact_id"`
}

// Encode serializes the task for queue publication
func (t SendTask) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// DecodeSendTask parses a queued delivery payload
func DecodeSendTask(payload []byte) (SendTask, error) {
	var task SendTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return SendTask{}, fmt.Errorf("failed to decode send task: %w", err)
	}
	return task, nil
}

//go:generate mockgen -destination mocks/mock_queue.go -package mocks github.com/waplane/waplane/internal/domain Queue

// Queue is a durable work queue with at-least-once delivery and no
// ordering guarantee across subjects. Redelivery of unacknowledged
// items is possible; consumers defeat it deliberately by acking every
// item, leaving the sender's idempotency check as the correctness
// backstop against duplicate processing.
type Queue interface {
	Publish(ctx context.Context, subject string, payload []byte) error

	// Fetch pulls up to batch items, blocking up to timeout when the
	// subject is empty. An empty result and a nil error means the
	// timeout elapsed without work.
	Fetch(ctx context.Context, subject string, batch int, timeout time.Duration) ([]Delivery, error)

	Ack(ctx context.Context, subject string, delivery Delivery) error
}
