package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/waplane/waplane/pkg/logger"
)

// Service is the caller-facing surface of the delivery engine: start,
// pause and resume wire the lifecycle transition to the feeder and the
// consumer registry.
type Service struct {
	lifecycle *LifecycleService
	feeder    *FeederService
	consumers *ConsumerManager
	logger    logger.Logger
}

func NewService(lifecycle *LifecycleService, feeder *FeederService, consumers *ConsumerManager, logger logger.Logger) *Service {
	return &Service{
		lifecycle: lifecycle,
		feeder:    feeder,
		consumers: consumers,
		logger:    logger,
	}
}

// StartCampaign transitions the campaign to RUNNING, then enumerates its
// recipients onto the queue and starts its consumer. The enumeration
// completes before the consumer comes up: a consumer mutating link
// statuses mid-pass would shift rows out of the offset-paged sendable
// query and strand recipients. Validation errors surface synchronously;
// a failure while feeding is a campaign-level error that marks the
// campaign FAILED instead of crashing the worker.
func (s *Service) StartCampaign(ctx context.Context, campaignID uuid.UUID) error {
	if err := s.lifecycle.Start(ctx, campaignID); err != nil {
		return err
	}

	go s.feedThenConsume(context.WithoutCancel(ctx), campaignID)
	return nil
}

// PauseCampaign transitions the campaign to PAUSED and cancels its
// consumer. In-flight sends finish and commit.
func (s *Service) PauseCampaign(ctx context.Context, campaignID uuid.UUID) error {
	if err := s.lifecycle.Pause(ctx, campaignID); err != nil {
		return err
	}
	s.consumers.StopConsumer(campaignID)
	return nil
}

// ResumeCampaign transitions the campaign back to RUNNING and starts a
// fresh enumeration pass plus a fresh consumer.
func (s *Service) ResumeCampaign(ctx context.Context, campaignID uuid.UUID) error {
	if err := s.lifecycle.Resume(ctx, campaignID); err != nil {
		return err
	}

	go s.feedThenConsume(context.WithoutCancel(ctx), campaignID)
	return nil
}

// EnsureConsumer restarts the delivery machinery for a campaign found
// RUNNING without a live consumer, e.g. after a worker restart. The
// re-enumeration only publishes still-sendable links and the sender's
// idempotency check absorbs any queue duplicates.
func (s *Service) EnsureConsumer(ctx context.Context, campaignID uuid.UUID) {
	if s.consumers.Running(campaignID) {
		return
	}
	go s.feedThenConsume(context.WithoutCancel(ctx), campaignID)
}

// feedThenConsume runs one full enumeration pass and only then brings
// the consumer up. While the pass runs, nothing on this worker mutates
// link statuses, so the offset-paged enumeration sees a stable result
// set; links that become sendable later are picked up by the consumer's
// idle re-enumeration.
func (s *Service) feedThenConsume(ctx context.Context, campaignID uuid.UUID) {
	if _, err := s.feeder.FeedCampaign(ctx, campaignID); err != nil {
		s.failCampaign(ctx, campaignID, err)
		return
	}
	s.consumers.StartConsumer(ctx, campaignID)
}

// failCampaign is the outermost task boundary of the feed path
func (s *Service) failCampaign(ctx context.Context, campaignID uuid.UUID, cause error) {
	s.logger.WithField("campaign_id", campaignID.String()).
		Error(fmt.Sprintf("Campaign feed failed: %v", cause))
	s.consumers.StopConsumer(campaignID)
	if err := s.lifecycle.MarkFailed(ctx, campaignID, cause.Error()); err != nil {
		s.logger.WithField("campaign_id", campaignID.String()).
			Error(fmt.Sprintf("Failed to mark campaign failed: %v", err))
	}
}
