package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/waplane/waplane/internal/domain"
	"github.com/waplane/waplane/pkg/logger"
)

// SendOutcome classifies a single send attempt
type SendOutcome string

const (
	// OutcomeSent means a Message was created and the provider accepted it
	OutcomeSent SendOutcome = "sent"
	// OutcomeSkipped means the attempt was an idempotent no-op: the link
	// was already sent-or-later, or the campaign is no longer running
	OutcomeSkipped SendOutcome = "skipped"
	// OutcomeDeferred means the contact is inside the 24-hour messaging
	// window and the link was rescheduled
	OutcomeDeferred SendOutcome = "deferred"
	// OutcomeFailed means the attempt failed and was recorded on the link
	OutcomeFailed SendOutcome = "failed"
)

// SenderService performs single-recipient campaign sends. Failures are
// absorbed into the delivery link: a failing send never aborts the batch
// or the campaign, and never propagates past the task boundary.
type SenderService struct {
	store     domain.Store
	provider  domain.ProviderClient
	lifecycle *LifecycleService
	trackers  *TrackerRegistry
	notifier  domain.EventSink
	logger    logger.Logger
}

func NewSenderService(store domain.Store, provider domain.ProviderClient, lifecycle *LifecycleService, trackers *TrackerRegistry, notifier domain.EventSink, logger logger.Logger) *SenderService {
	return &SenderService{
		store:     store,
		provider:  provider,
		lifecycle: lifecycle,
		trackers:  trackers,
		notifier:  notifier,
		logger:    logger,
	}
}

// SendToContact attempts delivery of one campaign message. All state
// mutations of the attempt commit in one transaction; notifications go
// out strictly after commit, and every attempt ends with a completion
// check. The returned error is reserved for infrastructure faults (the
// transaction itself failing); send failures surface as OutcomeFailed.
func (s *SenderService) SendToContact(ctx context.Context, campaignID, linkID, contactID uuid.UUID) (SendOutcome, error) {
	outcome := OutcomeSkipped
	var message *domain.Message
	var wamid string

	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		campaign, err := tx.Campaigns().GetByID(ctx, campaignID)
		if err != nil {
			return err
		}
		if campaign.Status != domain.CampaignStatusRunning {
			return nil
		}

		link, err := tx.CampaignContacts().GetByID(ctx, linkID)
		if err != nil {
			return err
		}
		// Idempotency backstop: the queue may deliver a task twice, a
		// link already sent-or-later must never produce a second send
		if link.Status.AtLeastSent() {
			return nil
		}

		contact, err := tx.Contacts().GetByID(ctx, contactID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		phone, err := tx.WabaPhones().GetDefault(ctx)
		if err != nil {
			if domain.IsNotFound(err) {
				outcome = OutcomeFailed
				return s.recordFailure(ctx, tx, campaign, link, now,
					domain.NewConfigurationError("no outbound phone configured"))
			}
			return err
		}

		// Contacts messaged within the last 24 hours are deferred, not
		// sent to: the link reschedules to the end of the window
		if contact.InMessagingWindow(now) {
			next := contact.NextSendTime()
			link.Status = domain.DeliveryStatusScheduled
			link.CanSendAfter = &next
			link.UpdatedAt = now
			if err := tx.CampaignContacts().Update(ctx, link); err != nil {
				return err
			}
			outcome = OutcomeDeferred
			return nil
		}

		payload, err := domain.BuildSendPayload(campaign, contact.PhoneNumber)
		if err != nil {
			outcome = OutcomeFailed
			return s.recordFailure(ctx, tx, campaign, link, now, err)
		}

		wamid, err = s.provider.SendMessage(ctx, phone.PhoneNumberID, payload)
		if err != nil {
			outcome = OutcomeFailed
			return s.recordFailure(ctx, tx, campaign, link, now, err)
		}

		message = &domain.Message{
			ID:           uuid.New(),
			WabaPhoneID:  phone.ID,
			ContactID:    contact.ID,
			Direction:    domain.MessageDirectionOutbound,
			Status:       domain.MessageStatusSent,
			Kind:         campaign.MessageKind,
			Body:         campaign.OutboundBody(),
			TemplateName: campaign.TemplateName,
			Wamid:        wamid,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Messages().Create(ctx, message); err != nil {
			return err
		}

		link.MessageID = &message.ID
		link.Status = domain.DeliveryStatusSent
		link.ErrorMessage = ""
		link.UpdatedAt = now
		if err := tx.CampaignContacts().Update(ctx, link); err != nil {
			return err
		}

		contact.Status = domain.DeliveryStatusSent
		contact.LastMessageAt = &now
		contact.UpdatedAt = now
		if err := tx.Contacts().Update(ctx, contact); err != nil {
			return err
		}

		campaign.SentCount++
		campaign.UpdatedAt = now
		if err := tx.Campaigns().Update(ctx, campaign); err != nil {
			return err
		}

		outcome = OutcomeSent
		return nil
	})
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("send transaction failed: %w", err)
	}

	s.afterAttempt(ctx, campaignID, contactID, message, wamid, outcome)
	return outcome, nil
}

// recordFailure marks the link FAILED with a truncated error and bumps
// the campaign's failed counter. Runs inside the send transaction so the
// failure record commits atomically.
func (s *SenderService) recordFailure(ctx context.Context, tx domain.Store, campaign *domain.Campaign, link *domain.CampaignContact, now time.Time, cause error) error {
	s.logger.WithFields(map[string]interface{}{
		"campaign_id": campaign.ID.String(),
		"link_id":     link.ID.String(),
	}).Warn(fmt.Sprintf("Send failed: %v", cause))

	link.Status = domain.DeliveryStatusFailed
	link.SetError(cause.Error())
	link.RetryCount++
	link.UpdatedAt = now
	if err := tx.CampaignContacts().Update(ctx, link); err != nil {
		return err
	}

	campaign.FailedCount++
	campaign.UpdatedAt = now
	return tx.Campaigns().Update(ctx, campaign)
}

// afterAttempt runs the strictly-post-commit tail of a send attempt:
// tracker bookkeeping, notifications and the completion check.
func (s *SenderService) afterAttempt(ctx context.Context, campaignID, contactID uuid.UUID, message *domain.Message, wamid string, outcome SendOutcome) {
	tracker, hasTracker := s.trackers.Get(campaignID)

	switch outcome {
	case OutcomeSent:
		if hasTracker {
			tracker.RecordSent()
		}
		s.notifier.Notify(ctx, domain.EventMessageSent, map[string]interface{}{
			"campaign_id": campaignID.String(),
			"contact_id":  contactID.String(),
			"message_id":  message.ID.String(),
			"wamid":       wamid,
		})
		s.notifyProgress(ctx, campaignID, tracker, hasTracker)
	case OutcomeFailed:
		if hasTracker {
			tracker.RecordFailed()
		}
		s.notifyProgress(ctx, campaignID, tracker, hasTracker)
	}

	if err := s.lifecycle.CheckAndCompleteIfDone(ctx, campaignID); err != nil {
		s.logger.WithField("campaign_id", campaignID.String()).
			Error(fmt.Sprintf("Completion check failed: %v", err))
	}
}

func (s *SenderService) notifyProgress(ctx context.Context, campaignID uuid.UUID, tracker *ProgressTracker, hasTracker bool) {
	campaign, err := s.store.Campaigns().GetByID(ctx, campaignID)
	if err != nil {
		s.logger.WithField("campaign_id", campaignID.String()).
			Error(fmt.Sprintf("Failed to load campaign for progress: %v", err))
		return
	}

	data := map[string]interface{}{
		"campaign_id":    campaignID.String(),
		"sent_count":     campaign.SentCount,
		"failed_count":   campaign.FailedCount,
		"total_contacts": campaign.TotalContacts,
		"progress":       campaign.Progress(),
	}
	if hasTracker {
		data["rate_per_minute"] = tracker.Rate()
		data["elapsed_seconds"] = tracker.Elapsed().Seconds()
	}
	s.notifier.Notify(ctx, domain.EventCampaignProgress, data)
}
