package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/waplane/waplane/internal/domain"
	"github.com/waplane/waplane/pkg/logger"
)

// FeederService enumerates a running campaign's sendable recipients and
// publishes one durable work item per recipient to the campaign's send
// subject. Enumeration pages through the list exactly once per pass;
// resume starts a fresh pass.
type FeederService struct {
	store    domain.Store
	queue    domain.Queue
	pageSize int
	logger   logger.Logger
}

func NewFeederService(store domain.Store, queue domain.Queue, pageSize int, logger logger.Logger) *FeederService {
	return &FeederService{
		store:    store,
		queue:    queue,
		pageSize: pageSize,
		logger:   logger,
	}
}

// FeedCampaign publishes send tasks for every sendable link, page by
// page. The campaign status is re-read from the database before every
// page so a concurrent pause stops publication within one page interval.
// Returns the number of tasks published.
func (s *FeederService) FeedCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	subject := domain.CampaignSendSubject(campaignID)
	published := 0
	offset := 0

	for {
		// Fresh status read, never a cached flag
		campaign, err := s.store.Campaigns().GetByID(ctx, campaignID)
		if err != nil {
			return published, fmt.Errorf("failed to get campaign: %w", err)
		}
		if campaign.Status != domain.CampaignStatusRunning {
			s.logger.WithFields(map[string]interface{}{
				"campaign_id": campaignID.String(),
				"status":      string(campaign.Status),
			}).Info("Campaign no longer running, stopping enumeration")
			return published, nil
		}

		links, err := s.store.CampaignContacts().GetSendable(ctx, campaignID, s.pageSize, offset)
		if err != nil {
			return published, fmt.Errorf("failed to list sendable contacts: %w", err)
		}
		if len(links) == 0 {
			break
		}

		for _, link := range links {
			payload, err := domain.SendTask{
				CampaignID: campaignID,
				LinkID:     link.ID,
				ContactID:  link.ContactID,
			}.Encode()
			if err != nil {
				return published, fmt.Errorf("failed to encode send task: %w", err)
			}
			if err := s.queue.Publish(ctx, subject, payload); err != nil {
				return published, fmt.Errorf("failed to publish send task: %w", err)
			}
			published++
		}

		if len(links) < s.pageSize {
			break
		}
		offset += len(links)
	}

	s.logger.WithFields(map[string]interface{}{
		"campaign_id": campaignID.String(),
		"published":   published,
	}).Info("Campaign enumeration finished")
	return published, nil
}
