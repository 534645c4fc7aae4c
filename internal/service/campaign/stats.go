package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/waplane/waplane/internal/domain"
	"github.com/waplane/waplane/pkg/logger"
)

// StatsService reconciles provider delivery statuses into delivery links
// and campaign counters. Every method runs inside the caller's
// transaction and never commits on its own.
type StatsService struct {
	logger logger.Logger
}

func NewStatsService(logger logger.Logger) *StatsService {
	return &StatsService{logger: logger}
}

func clampDecrement(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}

// UpdateOnStatusChange moves the delivery link owning messageID through
// the status transition table, adjusting campaign counters. Messages
// without a campaign link are not campaign sends and are ignored. A link
// already REPLIED absorbs all later provider echoes.
//
// Each transition moves one displaced counter down and one counter up,
// clamped at zero to tolerate ordering anomalies. FAILED does not
// decrement: the displaced state is no longer known once the enum value
// is overwritten, an accepted approximation.
func (s *StatsService) UpdateOnStatusChange(ctx context.Context, store domain.Store, messageID uuid.UUID, newStatus domain.MessageStatus) error {
	link, err := store.CampaignContacts().GetByMessageID(ctx, messageID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to find delivery link: %w", err)
	}

	if link.Status == domain.DeliveryStatusReplied {
		return nil
	}

	campaign, err := store.Campaigns().GetByID(ctx, link.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to get campaign: %w", err)
	}

	switch newStatus {
	case domain.MessageStatusDelivered:
		// No downgrade from READ, no resurrection from FAILED
		if link.Status == domain.DeliveryStatusRead || link.Status == domain.DeliveryStatusFailed {
			return nil
		}
		link.Status = domain.DeliveryStatusDelivered
		campaign.DeliveredCount++
		campaign.SentCount = clampDecrement(campaign.SentCount)

	case domain.MessageStatusRead:
		link.Status = domain.DeliveryStatusRead
		campaign.ReadCount++
		campaign.DeliveredCount = clampDecrement(campaign.DeliveredCount)

	case domain.MessageStatusFailed:
		link.Status = domain.DeliveryStatusFailed
		campaign.FailedCount++

	default:
		return nil
	}

	now := time.Now().UTC()
	link.UpdatedAt = now
	if err := store.CampaignContacts().Update(ctx, link); err != nil {
		return fmt.Errorf("failed to update delivery link: %w", err)
	}

	campaign.UpdatedAt = now
	if err := store.Campaigns().Update(ctx, campaign); err != nil {
		return fmt.Errorf("failed to update campaign counters: %w", err)
	}
	return nil
}

// MarkReplied absorbs an inbound reply into the contact's most recent
// campaign send. The displaced sent/delivered/read counter is
// decremented (clamped) and replied_count incremented; a link already
// REPLIED is left alone.
func (s *StatsService) MarkReplied(ctx context.Context, store domain.Store, contactID uuid.UUID) error {
	link, err := store.CampaignContacts().GetLatestSentForContact(ctx, contactID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to find latest campaign send: %w", err)
	}

	if link.Status == domain.DeliveryStatusReplied {
		return nil
	}

	campaign, err := store.Campaigns().GetByID(ctx, link.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to get campaign: %w", err)
	}

	switch link.Status {
	case domain.DeliveryStatusSent:
		campaign.SentCount = clampDecrement(campaign.SentCount)
	case domain.DeliveryStatusDelivered:
		campaign.DeliveredCount = clampDecrement(campaign.DeliveredCount)
	case domain.DeliveryStatusRead:
		campaign.ReadCount = clampDecrement(campaign.ReadCount)
	}
	campaign.RepliedCount++

	now := time.Now().UTC()
	link.Status = domain.DeliveryStatusReplied
	link.UpdatedAt = now
	if err := store.CampaignContacts().Update(ctx, link); err != nil {
		return fmt.Errorf("failed to update delivery link: %w", err)
	}

	campaign.UpdatedAt = now
	if err := store.Campaigns().Update(ctx, campaign); err != nil {
		return fmt.Errorf("failed to update campaign counters: %w", err)
	}
	return nil
}
