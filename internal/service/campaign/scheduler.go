package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/waplane/waplane/internal/domain"
	"github.com/waplane/waplane/pkg/logger"
)

// SweepService is the periodic background sweep: it starts scheduled
// campaigns whose time has come, makes sure running campaigns have a
// live consumer, and runs completion checks over every active campaign
// so a drained campaign completes even when no send attempt triggers
// the check.
type SweepService struct {
	store     domain.Store
	service   *Service
	lifecycle *LifecycleService
	interval  time.Duration
	logger    logger.Logger
}

func NewSweepService(store domain.Store, service *Service, lifecycle *LifecycleService, interval time.Duration, logger logger.Logger) *SweepService {
	return &SweepService{
		store:     store,
		service:   service,
		lifecycle: lifecycle,
		interval:  interval,
		logger:    logger,
	}
}

// Run sweeps on the configured interval until the context is cancelled
func (s *SweepService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep executes one pass. Every per-campaign failure is isolated: one
// broken campaign never stops the sweep.
func (s *SweepService) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	due, err := s.store.Campaigns().GetScheduled(ctx, now)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to list scheduled campaigns: %v", err))
	} else {
		for _, campaign := range due {
			if err := s.service.StartCampaign(ctx, campaign.ID); err != nil {
				s.logger.WithField("campaign_id", campaign.ID.String()).
					Error(fmt.Sprintf("Failed to start scheduled campaign: %v", err))
			}
		}
	}

	active, err := s.store.Campaigns().ListByStatus(ctx, domain.CampaignStatusRunning, domain.CampaignStatusPaused)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to list active campaigns: %v", err))
		return
	}

	for _, campaign := range active {
		if campaign.Status == domain.CampaignStatusRunning {
			s.service.EnsureConsumer(ctx, campaign.ID)
		}
		if err := s.lifecycle.CheckAndCompleteIfDone(ctx, campaign.ID); err != nil {
			s.logger.WithField("campaign_id", campaign.ID.String()).
				Error(fmt.Sprintf("Completion check failed: %v", err))
		}
	}
}
