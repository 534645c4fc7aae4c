package campaign

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waplane/waplane/internal/domain"
	"github.com/waplane/waplane/internal/domain/mocks"
	"github.com/waplane/waplane/pkg/logger"
)

func TestFeedCampaign_PublishesOneTaskPerSendableLink(t *testing.T) {
	store := newFakeStore()
	campaign, links, _ := seedCampaign(store, domain.CampaignStatusRunning, 5)

	// One already sent, one failed-and-attempted: neither is sendable
	links[0].Status = domain.DeliveryStatusSent
	store.addLink(links[0])
	links[1].Status = domain.DeliveryStatusFailed
	links[1].RetryCount = 1
	store.addLink(links[1])
	// Failed but never attempted stays sendable
	links[2].Status = domain.DeliveryStatusFailed
	store.addLink(links[2])

	queue := newFakeQueue()
	feeder := NewFeederService(store, queue, 100, logger.NewLogger("disabled"))

	published, err := feeder.FeedCampaign(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, published)

	subject := domain.CampaignSendSubject(campaign.ID)
	assert.Equal(t, 3, queue.published(subject))

	deliveries, err := queue.Fetch(context.Background(), subject, 10, 0)
	require.NoError(t, err)
	require.Len(t, deliveries, 3)
	task, err := domain.DecodeSendTask(deliveries[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, campaign.ID, task.CampaignID)
}

func TestFeedCampaign_PagesThroughLargeCampaigns(t *testing.T) {
	store := newFakeStore()
	campaign, _, _ := seedCampaign(store, domain.CampaignStatusRunning, 7)

	queue := newFakeQueue()
	// Page size 3: enumeration needs three pages
	feeder := NewFeederService(store, queue, 3, logger.NewLogger("disabled"))

	published, err := feeder.FeedCampaign(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, published)
	assert.Equal(t, 7, queue.published(domain.CampaignSendSubject(campaign.ID)))
}

func TestFeedCampaign_StopsWhenCampaignLeavesRunning(t *testing.T) {
	store := newFakeStore()
	campaign, _, _ := seedCampaign(store, domain.CampaignStatusPaused, 5)

	queue := newFakeQueue()
	feeder := NewFeederService(store, queue, 100, logger.NewLogger("disabled"))

	published, err := feeder.FeedCampaign(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, published)
}

// pausingStore flips the campaign to PAUSED after the first sendable
// page has been read, simulating a concurrent pause from another process
type pausingStore struct {
	*fakeStore
	pages int
}

func (s *pausingStore) CampaignContacts() domain.CampaignContactRepository {
	return &pausingLinkRepo{fakeLinkRepo{s.fakeStore}, s}
}

type pausingLinkRepo struct {
	fakeLinkRepo
	owner *pausingStore
}

func (r *pausingLinkRepo) GetSendable(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*domain.CampaignContact, error) {
	links, err := r.fakeLinkRepo.GetSendable(ctx, campaignID, limit, offset)
	r.owner.pages++
	if r.owner.pages == 1 {
		campaign := r.owner.fakeStore.campaign(campaignID)
		campaign.Status = domain.CampaignStatusPaused
		r.owner.fakeStore.addCampaign(campaign)
	}
	return links, err
}

func TestFeedCampaign_ObservesConcurrentPauseBetweenPages(t *testing.T) {
	base := newFakeStore()
	campaign, _, _ := seedCampaign(base, domain.CampaignStatusRunning, 6)
	store := &pausingStore{fakeStore: base}

	queue := newFakeQueue()
	feeder := NewFeederService(store, queue, 3, logger.NewLogger("disabled"))

	published, err := feeder.FeedCampaign(context.Background(), campaign.ID)
	require.NoError(t, err)

	// First page published, second page never read
	assert.Equal(t, 3, published)
	assert.Equal(t, 3, queue.published(domain.CampaignSendSubject(campaign.ID)))
}

func TestFeedCampaign_PublishErrorStopsEnumeration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := newFakeStore()
	campaign, _, _ := seedCampaign(store, domain.CampaignStatusRunning, 3)

	queue := mocks.NewMockQueue(ctrl)
	queue.EXPECT().
		Publish(gomock.Any(), domain.CampaignSendSubject(campaign.ID), gomock.Any()).
		Return(errors.New("stream unavailable"))

	feeder := NewFeederService(store, queue, 100, logger.NewLogger("disabled"))
	published, err := feeder.FeedCampaign(context.Background(), campaign.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream unavailable")
	assert.Equal(t, 0, published)
}
