package campaign

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// CampaignRateLimiter manages advisory per-campaign send limiters. Each
// campaign throttles to its own messages_per_second on top of the
// worker-wide global limiter.
type CampaignRateLimiter struct {
	limiters sync.Map // map[uuid.UUID]*rate.Limiter
}

func NewCampaignRateLimiter() *CampaignRateLimiter {
	return &CampaignRateLimiter{}
}

// GetOrCreateLimiter returns the campaign's limiter, creating one if
// needed. The limit is updated in place when the campaign's rate changed.
func (rl *CampaignRateLimiter) GetOrCreateLimiter(campaignID uuid.UUID, perSecond int) *rate.Limiter {
	// Guard against unset rates, at least 1 message per second
	if perSecond < 1 {
		perSecond = 1
	}

	if existing, ok := rl.limiters.Load(campaignID); ok {
		limiter := existing.(*rate.Limiter)
		// Update rate if changed (SetLimit is thread-safe)
		if limiter.Limit() != rate.Limit(perSecond) {
			limiter.SetLimit(rate.Limit(perSecond))
		}
		return limiter
	}

	// Burst of 1 keeps sends evenly spaced rather than clustered
	limiter := rate.NewLimiter(rate.Limit(perSecond), 1)
	actual, _ := rl.limiters.LoadOrStore(campaignID, limiter)
	return actual.(*rate.Limiter)
}

// Wait blocks until the campaign's limiter allows a send. Returns an
// error only if the context is cancelled.
func (rl *CampaignRateLimiter) Wait(ctx context.Context, campaignID uuid.UUID, perSecond int) error {
	return rl.GetOrCreateLimiter(campaignID, perSecond).Wait(ctx)
}

// Forget drops the campaign's limiter once it no longer sends
func (rl *CampaignRateLimiter) Forget(campaignID uuid.UUID) {
	rl.limiters.Delete(campaignID)
}
