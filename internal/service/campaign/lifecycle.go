package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/waplane/waplane/internal/domain"
	"github.com/waplane/waplane/pkg/logger"
)

// LifecycleService drives campaign state transitions. State changes
// commit first; notifications and tracker bookkeeping happen strictly
// after commit.
type LifecycleService struct {
	store    domain.Store
	trackers *TrackerRegistry
	notifier domain.EventSink
	logger   logger.Logger
}

func NewLifecycleService(store domain.Store, trackers *TrackerRegistry, notifier domain.EventSink, logger logger.Logger) *LifecycleService {
	return &LifecycleService{
		store:    store,
		trackers: trackers,
		notifier: notifier,
		logger:   logger,
	}
}

// Start moves a DRAFT or SCHEDULED campaign to RUNNING. Requires at
// least one recipient.
func (s *LifecycleService) Start(ctx context.Context, campaignID uuid.UUID) error {
	var campaign *domain.Campaign
	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		var err error
		campaign, err = tx.Campaigns().GetByID(ctx, campaignID)
		if err != nil {
			return err
		}
		if err := campaign.ValidateStart(); err != nil {
			return err
		}

		now := time.Now().UTC()
		campaign.Status = domain.CampaignStatusRunning
		campaign.StartedAt = &now
		campaign.UpdatedAt = now
		return tx.Campaigns().Update(ctx, campaign)
	})
	if err != nil {
		return err
	}

	s.trackers.GetOrCreate(campaignID)
	s.logger.WithFields(map[string]interface{}{
		"campaign_id":    campaignID.String(),
		"total_contacts": campaign.TotalContacts,
	}).Info("Campaign started")

	s.notifier.Notify(ctx, domain.EventCampaignStatus, map[string]interface{}{
		"campaign_id":    campaignID.String(),
		"status":         string(domain.CampaignStatusRunning),
		"total_contacts": campaign.TotalContacts,
		"message_kind":   string(campaign.MessageKind),
	})
	return nil
}

// Pause moves a RUNNING campaign to PAUSED. The campaign's consumer
// observes the new status on its next fresh read and stops.
func (s *LifecycleService) Pause(ctx context.Context, campaignID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		campaign, err := tx.Campaigns().GetByID(ctx, campaignID)
		if err != nil {
			return err
		}
		if err := campaign.ValidatePause(); err != nil {
			return err
		}

		campaign.Status = domain.CampaignStatusPaused
		campaign.UpdatedAt = time.Now().UTC()
		return tx.Campaigns().Update(ctx, campaign)
	})
	if err != nil {
		return err
	}

	s.logger.WithField("campaign_id", campaignID.String()).Info("Campaign paused")
	s.notifier.Notify(ctx, domain.EventCampaignStatus, map[string]interface{}{
		"campaign_id": campaignID.String(),
		"status":      string(domain.CampaignStatusPaused),
	})
	return nil
}

// Resume moves a PAUSED campaign back to RUNNING. The caller restarts
// the feeder and consumer afterwards; the enumeration pass starts over.
func (s *LifecycleService) Resume(ctx context.Context, campaignID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		campaign, err := tx.Campaigns().GetByID(ctx, campaignID)
		if err != nil {
			return err
		}
		if err := campaign.ValidateResume(); err != nil {
			return err
		}

		campaign.Status = domain.CampaignStatusRunning
		campaign.UpdatedAt = time.Now().UTC()
		return tx.Campaigns().Update(ctx, campaign)
	})
	if err != nil {
		return err
	}

	s.logger.WithField("campaign_id", campaignID.String()).Info("Campaign resumed")
	s.notifier.Notify(ctx, domain.EventCampaignStatus, map[string]interface{}{
		"campaign_id": campaignID.String(),
		"status":      string(domain.CampaignStatusRunning),
	})
	return nil
}

// Complete moves an active campaign to COMPLETED. Returns true when this
// call performed the transition; a campaign already terminal is left
// untouched so completion is observed exactly once under concurrent
// checks.
func (s *LifecycleService) Complete(ctx context.Context, campaignID uuid.UUID) (bool, error) {
	var campaign *domain.Campaign
	completed := false

	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		var err error
		campaign, err = tx.Campaigns().GetByID(ctx, campaignID)
		if err != nil {
			return err
		}
		if !campaign.IsActive() {
			return nil
		}

		now := time.Now().UTC()
		campaign.Status = domain.CampaignStatusCompleted
		campaign.CompletedAt = &now
		campaign.UpdatedAt = now
		completed = true
		return tx.Campaigns().Update(ctx, campaign)
	})
	if err != nil {
		return false, err
	}
	if !completed {
		return false, nil
	}

	data := map[string]interface{}{
		"campaign_id":     campaignID.String(),
		"status":          string(domain.CampaignStatusCompleted),
		"total_contacts":  campaign.TotalContacts,
		"sent_count":      campaign.SentCount,
		"delivered_count": campaign.DeliveredCount,
		"read_count":      campaign.ReadCount,
		"failed_count":    campaign.FailedCount,
		"replied_count":   campaign.RepliedCount,
	}
	if tracker, ok := s.trackers.Get(campaignID); ok {
		data["duration_seconds"] = tracker.Elapsed().Seconds()
	}
	s.trackers.Remove(campaignID)

	s.logger.WithFields(map[string]interface{}{
		"campaign_id": campaignID.String(),
		"sent_count":  campaign.SentCount,
	}).Info("Campaign completed")

	s.notifier.Notify(ctx, domain.EventCampaignStatus, data)
	return true, nil
}

// MarkFailed records an unrecoverable campaign-level error. Used by the
// outermost task boundaries; per-recipient failures never reach here.
func (s *LifecycleService) MarkFailed(ctx context.Context, campaignID uuid.UUID, reason string) error {
	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		campaign, err := tx.Campaigns().GetByID(ctx, campaignID)
		if err != nil {
			return err
		}

		campaign.Status = domain.CampaignStatusFailed
		campaign.UpdatedAt = time.Now().UTC()
		return tx.Campaigns().Update(ctx, campaign)
	})
	if err != nil {
		return err
	}

	s.trackers.Remove(campaignID)
	s.logger.WithFields(map[string]interface{}{
		"campaign_id": campaignID.String(),
		"reason":      reason,
	}).Error("Campaign failed")

	s.notifier.Notify(ctx, domain.EventCampaignStatus, map[string]interface{}{
		"campaign_id": campaignID.String(),
		"status":      string(domain.CampaignStatusFailed),
		"reason":      reason,
	})
	return nil
}

// CheckAndCompleteIfDone completes the campaign when no delivery link
// still blocks completion. No-op unless the campaign is RUNNING or
// PAUSED.
func (s *LifecycleService) CheckAndCompleteIfDone(ctx context.Context, campaignID uuid.UUID) error {
	campaign, err := s.store.Campaigns().GetByID(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to get campaign: %w", err)
	}
	if !campaign.IsActive() {
		return nil
	}

	remaining, err := s.store.CampaignContacts().CountRemaining(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to count remaining contacts: %w", err)
	}
	if remaining > 0 {
		return nil
	}

	_, err = s.Complete(ctx, campaignID)
	return err
}
