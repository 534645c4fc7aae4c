package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/waplane/waplane/pkg/logger"
)

// Channel is the pub/sub channel real-time clients subscribe to
const Channel = "waplane:events"

// RedisNotifier broadcasts events over Redis pub/sub. Delivery is best
// effort: subscribers that are offline simply miss the event.
type RedisNotifier struct {
	client redis.UniversalClient
	logger logger.Logger
}

func NewRedisNotifier(client redis.UniversalClient, logger logger.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		logger: logger,
	}
}

type envelope struct {
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// Notify publishes the event on the shared channel. Failures are logged
// and swallowed so notification can never fail a caller's operation.
func (n *RedisNotifier) Notify(ctx context.Context, event string, data map[string]interface{}) {
	payload, err := json.Marshal(envelope{
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		n.logger.WithField("event", event).Error("Failed to marshal event: " + err.Error())
		return
	}

	if err := n.client.Publish(ctx, Channel, payload).Err(); err != nil {
		n.logger.WithField("event", event).Error("Failed to publish event: " + err.Error())
	}
}
