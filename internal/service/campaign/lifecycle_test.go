package campaign

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waplane/waplane/internal/domain"
)

func TestLifecycle_Start(t *testing.T) {
	store := newFakeStore()
	campaign, _, _ := seedCampaign(store, domain.CampaignStatusDraft, 2)
	eng := newEngine(store)

	require.NoError(t, eng.lifecycle.Start(context.Background(), campaign.ID))

	got := store.campaign(campaign.ID)
	assert.Equal(t, domain.CampaignStatusRunning, got.Status)
	require.NotNil(t, got.StartedAt)

	_, hasTracker := eng.trackers.Get(campaign.ID)
	assert.True(t, hasTracker)

	events := eng.notifier.byName(domain.EventCampaignStatus)
	require.Len(t, events, 1)
	assert.Equal(t, string(domain.CampaignStatusRunning), events[0].data["status"])
	assert.Equal(t, 2, events[0].data["total_contacts"])
}

func TestLifecycle_StartRejectsRunning(t *testing.T) {
	store := newFakeStore()
	campaign, _, _ := seedCampaign(store, domain.CampaignStatusRunning, 2)
	eng := newEngine(store)

	err := eng.lifecycle.Start(context.Background(), campaign.ID)
	require.Error(t, err)

	var stateErr *domain.CampaignStateError
	assert.True(t, errors.As(err, &stateErr))
}

func TestLifecycle_StartRejectsEmptyCampaign(t *testing.T) {
	store := newFakeStore()
	campaign, _, _ := seedCampaign(store, domain.CampaignStatusDraft, 0)
	eng := newEngine(store)

	err := eng.lifecycle.Start(context.Background(), campaign.ID)
	require.Error(t, err)

	var validationErr domain.ValidationError
	assert.True(t, errors.As(err, &validationErr))
	// A rejected start commits nothing
	assert.Equal(t, domain.CampaignStatusDraft, store.campaign(campaign.ID).Status)
}

func TestLifecycle_PauseAndResume(t *testing.T) {
	store := newFakeStore()
	campaign, _, _ := seedCampaign(store, domain.CampaignStatusRunning, 2)
	eng := newEngine(store)
	ctx := context.Background()

	require.NoError(t, eng.lifecycle.Pause(ctx, campaign.ID))
	assert.Equal(t, domain.CampaignStatusPaused, store.campaign(campaign.ID).Status)

	// Pause is only valid from RUNNING
	require.Error(t, eng.lifecycle.Pause(ctx, campaign.ID))

	require.NoError(t, eng.lifecycle.Resume(ctx, campaign.ID))
	assert.Equal(t, domain.CampaignStatusRunning, store.campaign(campaign.ID).Status)

	// Resume is only valid from PAUSED
	require.Error(t, eng.lifecycle.Resume(ctx, campaign.ID))
}

func TestLifecycle_CompleteExactlyOnce(t *testing.T) {
	store := newFakeStore()
	campaign, _, _ := seedCampaign(store, domain.CampaignStatusRunning, 2)
	eng := newEngine(store)
	ctx := context.Background()

	completed, err := eng.lifecycle.Complete(ctx, campaign.ID)
	require.NoError(t, err)
	assert.True(t, completed)

	got := store.campaign(campaign.ID)
	assert.Equal(t, domain.CampaignStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	// Second call observes the terminal state and does nothing
	completed, err = eng.lifecycle.Complete(ctx, campaign.ID)
	require.NoError(t, err)
	assert.False(t, completed)

	assert.Len(t, eng.notifier.byName(domain.EventCampaignStatus), 1)
}

func TestLifecycle_CheckAndCompleteIfDone(t *testing.T) {
	store := newFakeStore()
	campaign, links, _ := seedCampaign(store, domain.CampaignStatusRunning, 2)
	eng := newEngine(store)
	ctx := context.Background()

	// Both links still QUEUED, campaign must stay running
	require.NoError(t, eng.lifecycle.CheckAndCompleteIfDone(ctx, campaign.ID))
	assert.Equal(t, domain.CampaignStatusRunning, store.campaign(campaign.ID).Status)

	// One sent, one failed-but-attempted: nothing remains
	links[0].Status = domain.DeliveryStatusSent
	store.addLink(links[0])
	links[1].Status = domain.DeliveryStatusFailed
	links[1].RetryCount = 1
	store.addLink(links[1])

	require.NoError(t, eng.lifecycle.CheckAndCompleteIfDone(ctx, campaign.ID))
	assert.Equal(t, domain.CampaignStatusCompleted, store.campaign(campaign.ID).Status)
}

func TestLifecycle_FailedNeverAttemptedBlocksCompletion(t *testing.T) {
	store := newFakeStore()
	campaign, links, _ := seedCampaign(store, domain.CampaignStatusRunning, 1)
	eng := newEngine(store)

	// Enqueued but never attempted: retry_count stays 0
	links[0].Status = domain.DeliveryStatusFailed
	links[0].RetryCount = 0
	store.addLink(links[0])

	require.NoError(t, eng.lifecycle.CheckAndCompleteIfDone(context.Background(), campaign.ID))
	assert.Equal(t, domain.CampaignStatusRunning, store.campaign(campaign.ID).Status)
}

func TestLifecycle_CheckIgnoresTerminalCampaigns(t *testing.T) {
	store := newFakeStore()
	campaign, _, _ := seedCampaign(store, domain.CampaignStatusCompleted, 0)
	eng := newEngine(store)

	require.NoError(t, eng.lifecycle.CheckAndCompleteIfDone(context.Background(), campaign.ID))
	assert.Empty(t, eng.notifier.byName(domain.EventCampaignStatus))
}

func TestLifecycle_MarkFailed(t *testing.T) {
	store := newFakeStore()
	campaign, _, _ := seedCampaign(store, domain.CampaignStatusRunning, 2)
	eng := newEngine(store)

	require.NoError(t, eng.lifecycle.MarkFailed(context.Background(), campaign.ID, "enumeration blew up"))

	assert.Equal(t, domain.CampaignStatusFailed, store.campaign(campaign.ID).Status)
	events := eng.notifier.byName(domain.EventCampaignStatus)
	require.Len(t, events, 1)
	assert.Equal(t, "enumeration blew up", events[0].data["reason"])
}
