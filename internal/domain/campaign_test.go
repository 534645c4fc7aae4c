package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaign_ValidateStart(t *testing.T) {
	tests := []struct {
		name     string
		status   CampaignStatus
		contacts int
		wantErr  bool
	}{
		{"draft with contacts", CampaignStatusDraft, 10, false},
		{"scheduled with contacts", CampaignStatusScheduled, 10, false},
		{"running", CampaignStatusRunning, 10, true},
		{"paused", CampaignStatusPaused, 10, true},
		{"completed", CampaignStatusCompleted, 10, true},
		{"failed", CampaignStatusFailed, 10, true},
		{"draft without contacts", CampaignStatusDraft, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaign := &Campaign{
				ID:            uuid.New(),
				Status:        tt.status,
				TotalContacts: tt.contacts,
			}
			err := campaign.ValidateStart()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCampaign_ValidatePauseResume(t *testing.T) {
	campaign := &Campaign{ID: uuid.New(), Status: CampaignStatusRunning}
	require.NoError(t, campaign.ValidatePause())
	require.Error(t, campaign.ValidateResume())

	campaign.Status = CampaignStatusPaused
	require.Error(t, campaign.ValidatePause())
	require.NoError(t, campaign.ValidateResume())

	campaign.Status = CampaignStatusCompleted
	assert.Error(t, campaign.ValidatePause())
	assert.Error(t, campaign.ValidateResume())
}

func TestCampaign_Progress(t *testing.T) {
	campaign := &Campaign{TotalContacts: 200, SentCount: 50}
	assert.InDelta(t, 25.0, campaign.Progress(), 0.001)

	campaign.SentCount = 400
	assert.Equal(t, 100.0, campaign.Progress())

	empty := &Campaign{}
	assert.Equal(t, 100.0, empty.Progress())
}

func TestCampaign_IsActive(t *testing.T) {
	for status, active := range map[CampaignStatus]bool{
		CampaignStatusDraft:     false,
		CampaignStatusScheduled: false,
		CampaignStatusRunning:   true,
		CampaignStatusPaused:    true,
		CampaignStatusCompleted: false,
		CampaignStatusFailed:    false,
	} {
		campaign := &Campaign{Status: status}
		assert.Equal(t, active, campaign.IsActive(), "status %s", status)
	}
}

func TestDeliveryStatus_AtLeastSent(t *testing.T) {
	assert.False(t, DeliveryStatusQueued.AtLeastSent())
	assert.False(t, DeliveryStatusScheduled.AtLeastSent())
	assert.True(t, DeliveryStatusSent.AtLeastSent())
	assert.True(t, DeliveryStatusDelivered.AtLeastSent())
	assert.True(t, DeliveryStatusRead.AtLeastSent())
	assert.True(t, DeliveryStatusFailed.AtLeastSent())
	assert.True(t, DeliveryStatusReplied.AtLeastSent())
}

func TestCampaignContact_SetError(t *testing.T) {
	link := &CampaignContact{}
	link.SetError("boom")
	assert.Equal(t, "boom", link.ErrorMessage)

	long := make([]byte, 2*MaxErrorMessageLength)
	for i := range long {
		long[i] = 'x'
	}
	link.SetError(string(long))
	assert.Len(t, link.ErrorMessage, MaxErrorMessageLength)
}

func TestMessageStatus_IsNewerThan(t *testing.T) {
	assert.True(t, MessageStatusSent.IsNewerThan(MessageStatusPending))
	assert.True(t, MessageStatusDelivered.IsNewerThan(MessageStatusSent))
	assert.True(t, MessageStatusRead.IsNewerThan(MessageStatusDelivered))
	assert.True(t, MessageStatusFailed.IsNewerThan(MessageStatusRead))

	// out-of-order webhooks must be dropped
	assert.False(t, MessageStatusDelivered.IsNewerThan(MessageStatusRead))
	assert.False(t, MessageStatusSent.IsNewerThan(MessageStatusSent))
	assert.False(t, MessageStatus("bogus").IsNewerThan(MessageStatusPending))
}

func TestContact_MessagingWindow(t *testing.T) {
	now := time.Now().UTC()

	fresh := &Contact{}
	assert.False(t, fresh.InMessagingWindow(now))
	assert.True(t, fresh.NextSendTime().IsZero())

	tenHoursAgo := now.Add(-10 * time.Hour)
	recent := &Contact{LastMessageAt: &tenHoursAgo}
	assert.True(t, recent.InMessagingWindow(now))
	assert.Equal(t, tenHoursAgo.Add(24*time.Hour), recent.NextSendTime())

	twoDaysAgo := now.Add(-48 * time.Hour)
	stale := &Contact{LastMessageAt: &twoDaysAgo}
	assert.False(t, stale.InMessagingWindow(now))
}

func TestDecodeSendTask(t *testing.T) {
	task := SendTask{
		CampaignID: uuid.New(),
		LinkID:     uuid.New(),
		ContactID:  uuid.New(),
	}

	raw, err := task.Encode()
	require.NoError(t, err)

	decoded, err := DecodeSendTask(raw)
	require.NoError(t, err)
	assert.Equal(t, task, decoded)

	_, err = DecodeSendTask([]byte("{not json"))
	assert.Error(t, err)
}
