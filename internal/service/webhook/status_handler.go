package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/waplane/waplane/internal/domain"
	"github.com/waplane/waplane/internal/service/campaign"
	"github.com/waplane/waplane/pkg/logger"
)

// StatusHandler consumes provider webhook events: message status echoes
// and inbound replies. Message rows only ever move forward through the
// status weights, so out-of-order webhook arrival cannot corrupt
// counters.
type StatusHandler struct {
	store    domain.Store
	stats    *campaign.StatsService
	notifier domain.EventSink
	logger   logger.Logger
}

func NewStatusHandler(store domain.Store, stats *campaign.StatsService, notifier domain.EventSink, logger logger.Logger) *StatusHandler {
	return &StatusHandler{
		store:    store,
		stats:    stats,
		notifier: notifier,
		logger:   logger,
	}
}

// HandleStatusEvent applies one provider status event to the message
// identified by wamid, then reconciles the owning campaign's counters in
// the same transaction. Events for unknown messages and events that
// would move a message backwards are dropped.
func (h *StatusHandler) HandleStatusEvent(ctx context.Context, wamid string, status domain.MessageStatus) error {
	var messageID uuid.UUID
	applied := false

	err := h.store.WithTx(ctx, func(tx domain.Store) error {
		message, err := tx.Messages().GetByWamid(ctx, wamid)
		if err != nil {
			if domain.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("failed to find message: %w", err)
		}

		if !status.IsNewerThan(message.Status) {
			return nil
		}

		message.Status = status
		message.UpdatedAt = time.Now().UTC()
		if err := tx.Messages().Update(ctx, message); err != nil {
			return fmt.Errorf("failed to update message: %w", err)
		}

		if err := h.stats.UpdateOnStatusChange(ctx, tx, message.ID, status); err != nil {
			return err
		}

		messageID = message.ID
		applied = true
		return nil
	})
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	h.notifier.Notify(ctx, domain.EventMessageStatus, map[string]interface{}{
		"message_id": messageID.String(),
		"wamid":      wamid,
		"status":     string(status),
	})
	return nil
}

// HandleInboundMessage records an inbound reply: a new inbound Message
// row, the contact's messaging-window anchor and unread counter, and the
// reply absorption on the contact's latest campaign send.
func (h *StatusHandler) HandleInboundMessage(ctx context.Context, fromPhone, wamid, body string) error {
	var contactID uuid.UUID

	err := h.store.WithTx(ctx, func(tx domain.Store) error {
		now := time.Now().UTC()

		contact, err := tx.Contacts().GetByPhoneNumber(ctx, fromPhone)
		if err != nil {
			if !domain.IsNotFound(err) {
				return fmt.Errorf("failed to find contact: %w", err)
			}
			contact = &domain.Contact{
				ID:          uuid.New(),
				PhoneNumber: fromPhone,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Contacts().Create(ctx, contact); err != nil {
				return fmt.Errorf("failed to create contact: %w", err)
			}
		}

		phone, err := tx.WabaPhones().GetDefault(ctx)
		if err != nil {
			return fmt.Errorf("failed to get default phone: %w", err)
		}

		message := &domain.Message{
			ID:          uuid.New(),
			WabaPhoneID: phone.ID,
			ContactID:   contact.ID,
			Direction:   domain.MessageDirectionInbound,
			Status:      domain.MessageStatusDelivered,
			Kind:        domain.MessageKindText,
			Body:        body,
			Wamid:       wamid,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Messages().Create(ctx, message); err != nil {
			return fmt.Errorf("failed to create inbound message: %w", err)
		}

		contact.LastMessageAt = &now
		contact.UnreadCount++
		contact.UpdatedAt = now
		if err := tx.Contacts().Update(ctx, contact); err != nil {
			return fmt.Errorf("failed to update contact: %w", err)
		}

		if err := h.stats.MarkReplied(ctx, tx, contact.ID); err != nil {
			return err
		}

		contactID = contact.ID
		return nil
	})
	if err != nil {
		return err
	}

	h.notifier.Notify(ctx, domain.EventMessageReceived, map[string]interface{}{
		"contact_id": contactID.String(),
		"wamid":      wamid,
		"direction":  string(domain.MessageDirectionInbound),
	})
	return nil
}
