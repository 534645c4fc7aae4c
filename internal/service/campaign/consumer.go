package campaign

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/waplane/waplane/internal/domain"
	"github.com/waplane/waplane/pkg/logger"
)

// emptyFetchLimit is the number of consecutive empty queue fetches after
// which the consumer runs a completion check
const emptyFetchLimit = 3

// ConsumerManager owns one cancellable consumer goroutine per running
// campaign. Each consumer pulls small batches from the campaign's send
// subject, throttles through the global limiter and the campaign's
// advisory limiter, invokes the sender, and acks every item exactly once
// regardless of outcome.
type ConsumerManager struct {
	store           domain.Store
	queue           domain.Queue
	sender          *SenderService
	feeder          *FeederService
	lifecycle       *LifecycleService
	trackers        *TrackerRegistry
	globalLimiter   *rate.Limiter
	campaignLimiter *CampaignRateLimiter
	batchSize       int
	fetchTimeout    time.Duration
	logger          logger.Logger

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
}

func NewConsumerManager(store domain.Store, queue domain.Queue, sender *SenderService, feeder *FeederService, lifecycle *LifecycleService, trackers *TrackerRegistry, globalLimiter *rate.Limiter, campaignLimiter *CampaignRateLimiter, batchSize int, fetchTimeout time.Duration, logger logger.Logger) *ConsumerManager {
	return &ConsumerManager{
		store:           store,
		queue:           queue,
		sender:          sender,
		feeder:          feeder,
		lifecycle:       lifecycle,
		trackers:        trackers,
		globalLimiter:   globalLimiter,
		campaignLimiter: campaignLimiter,
		batchSize:       batchSize,
		fetchTimeout:    fetchTimeout,
		logger:          logger,
		cancels:         make(map[uuid.UUID]context.CancelFunc),
	}
}

// StartConsumer launches the campaign's consumer goroutine. A campaign
// that already has a live consumer is left alone.
func (m *ConsumerManager) StartConsumer(ctx context.Context, campaignID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, running := m.cancels[campaignID]; running {
		return
	}

	consumerCtx, cancel := context.WithCancel(ctx)
	m.cancels[campaignID] = cancel
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer m.removeConsumer(campaignID)
		m.run(consumerCtx, campaignID)
	}()

	m.logger.WithField("campaign_id", campaignID.String()).Info("Consumer started")
}

// StopConsumer cancels the campaign's consumer. Cancellation is
// cooperative: an in-flight send finishes and commits before the
// consumer observes it.
func (m *ConsumerManager) StopConsumer(campaignID uuid.UUID) {
	m.mu.Lock()
	cancel, ok := m.cancels[campaignID]
	m.mu.Unlock()
	if ok {
		cancel()
	}
}

// StopAll cancels every consumer and waits for them to drain
func (m *ConsumerManager) StopAll() {
	m.mu.Lock()
	for _, cancel := range m.cancels {
		cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// Running reports whether the campaign currently has a live consumer
func (m *ConsumerManager) Running(campaignID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cancels[campaignID]
	return ok
}

func (m *ConsumerManager) removeConsumer(campaignID uuid.UUID) {
	m.mu.Lock()
	if cancel, ok := m.cancels[campaignID]; ok {
		cancel()
		delete(m.cancels, campaignID)
	}
	m.mu.Unlock()

	m.campaignLimiter.Forget(campaignID)
	m.logger.WithField("campaign_id", campaignID.String()).Info("Consumer stopped")
}

func (m *ConsumerManager) run(ctx context.Context, campaignID uuid.UUID) {
	subject := domain.CampaignSendSubject(campaignID)
	emptyFetches := 0

	// The campaign may have been paused or failed between the decision
	// to start this consumer and now
	if campaign, err := m.store.Campaigns().GetByID(ctx, campaignID); err == nil {
		if campaign.Status != domain.CampaignStatusRunning {
			return
		}
	}

	for ctx.Err() == nil {
		deliveries, err := m.queue.Fetch(ctx, subject, m.batchSize, m.fetchTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.WithField("campaign_id", campaignID.String()).
				Error(fmt.Sprintf("Fetch failed: %v", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if len(deliveries) == 0 {
			emptyFetches++
			if emptyFetches >= emptyFetchLimit {
				emptyFetches = 0
				if done := m.checkIdle(ctx, campaignID); done {
					return
				}
			}
			continue
		}
		emptyFetches = 0

		if tracker, ok := m.trackers.Get(campaignID); ok {
			tracker.RecordBatch()
		}

		if stop := m.processBatch(ctx, campaignID, subject, deliveries); stop {
			return
		}
	}
}

// checkIdle runs after repeated empty fetches: complete the campaign if
// it drained, and stop the consumer once the campaign is terminal. A
// campaign still RUNNING with a drained queue gets a fresh enumeration
// pass, which picks up deferred links whose can_send_after elapsed and
// any link an earlier pass missed.
func (m *ConsumerManager) checkIdle(ctx context.Context, campaignID uuid.UUID) bool {
	if err := m.lifecycle.CheckAndCompleteIfDone(ctx, campaignID); err != nil {
		m.logger.WithField("campaign_id", campaignID.String()).
			Error(fmt.Sprintf("Completion check failed: %v", err))
		return false
	}

	campaign, err := m.store.Campaigns().GetByID(ctx, campaignID)
	if err != nil {
		m.logger.WithField("campaign_id", campaignID.String()).
			Error(fmt.Sprintf("Status read failed: %v", err))
		return false
	}
	if campaign.Status != domain.CampaignStatusRunning {
		return true
	}

	if _, err := m.feeder.FeedCampaign(ctx, campaignID); err != nil {
		m.logger.WithField("campaign_id", campaignID.String()).
			Error(fmt.Sprintf("Re-enumeration failed: %v", err))
	}
	return false
}

// processBatch handles one fetched batch. Every delivery is acked
// exactly once whatever its outcome; queue redelivery is deliberately
// defeated, the sender's idempotency check is the backstop. Returns true
// when the consumer must stop.
func (m *ConsumerManager) processBatch(ctx context.Context, campaignID uuid.UUID, subject string, deliveries []domain.Delivery) bool {
	for i, delivery := range deliveries {
		task, err := domain.DecodeSendTask(delivery.Payload)
		if err != nil {
			m.logger.WithField("campaign_id", campaignID.String()).
				Warn(fmt.Sprintf("Dropping malformed task: %v", err))
			m.ack(ctx, subject, delivery)
			continue
		}

		// Fresh status read per message so a pause issued elsewhere is
		// observed mid-batch
		campaign, err := m.store.Campaigns().GetByID(ctx, campaignID)
		if err != nil {
			m.logger.WithField("campaign_id", campaignID.String()).
				Error(fmt.Sprintf("Status read failed: %v", err))
			m.ack(ctx, subject, delivery)
			continue
		}

		if campaign.Status == domain.CampaignStatusPaused {
			// Ack the rest of the batch and stop pulling
			for _, rest := range deliveries[i:] {
				m.ack(ctx, subject, rest)
			}
			return true
		}
		if campaign.Status != domain.CampaignStatusRunning {
			m.ack(ctx, subject, delivery)
			continue
		}

		// Global account-level limiter first, then the campaign's
		// advisory throughput. A wait aborted by cancellation acks the
		// whole remainder so nothing lingers unacknowledged.
		if err := m.globalLimiter.Wait(ctx); err != nil {
			for _, rest := range deliveries[i:] {
				m.ack(ctx, subject, rest)
			}
			return true
		}
		if err := m.campaignLimiter.Wait(ctx, campaignID, campaign.MessagesPerSecond); err != nil {
			for _, rest := range deliveries[i:] {
				m.ack(ctx, subject, rest)
			}
			return true
		}

		// Cancellation is observed at suspension points only; a send in
		// flight here runs to commit even if a pause lands meanwhile
		if _, err := m.sender.SendToContact(context.WithoutCancel(ctx), task.CampaignID, task.LinkID, task.ContactID); err != nil {
			m.logger.WithFields(map[string]interface{}{
				"campaign_id": campaignID.String(),
				"link_id":     task.LinkID.String(),
			}).Error(fmt.Sprintf("Send attempt errored: %v", err))
		}
		m.ack(ctx, subject, delivery)
	}
	return false
}

func (m *ConsumerManager) ack(ctx context.Context, subject string, delivery domain.Delivery) {
	if err := m.queue.Ack(context.WithoutCancel(ctx), subject, delivery); err != nil {
		m.logger.Warn(fmt.Sprintf("Ack failed for %s: %v", delivery.ID, err))
	}
}
