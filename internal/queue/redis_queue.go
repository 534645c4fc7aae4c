package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/waplane/waplane/internal/domain"
)

const payloadField = "payload"

// RedisQueue implements domain.Queue on Redis Streams with consumer
// groups. Each subject maps to one stream; every worker in the group
// receives a disjoint share of its entries.
type RedisQueue struct {
	client   redis.UniversalClient
	group    string
	consumer string

	mu     sync.Mutex
	groups map[string]bool
}

func NewRedisQueue(client redis.UniversalClient, group, consumer string) *RedisQueue {
	return &RedisQueue{
		client:   client,
		group:    group,
		consumer: consumer,
		groups:   make(map[string]bool),
	}
}

// Publish appends the payload to the subject's stream
func (q *RedisQueue) Publish(ctx context.Context, subject string, payload []byte) error {
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: subject,
		Values: map[string]interface{}{payloadField: payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// ensureGroup creates the consumer group on the subject's stream if it
// doesn't exist yet. MKSTREAM makes publish and fetch order-independent.
func (q *RedisQueue) ensureGroup(ctx context.Context, subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.groups[subject] {
		return nil
	}

	err := q.client.XGroupCreateMkStream(ctx, subject, q.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group on %s: %w", subject, err)
	}

	q.groups[subject] = true
	return nil
}

// Fetch pulls up to batch entries for this consumer, blocking up to
// timeout when the stream is empty
func (q *RedisQueue) Fetch(ctx context.Context, subject string, batch int, timeout time.Duration) ([]domain.Delivery, error) {
	if err := q.ensureGroup(ctx, subject); err != nil {
		return nil, err
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumer,
		Streams:  []string{subject, ">"},
		Count:    int64(batch),
		Block:    timeout,
	}).Result()
	if err == redis.Nil {
		// Timeout elapsed without work
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from %s: %w", subject, err)
	}

	var deliveries []domain.Delivery
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			raw, ok := msg.Values[payloadField].(string)
			if !ok {
				// Malformed entry, ack it away so it doesn't pin the PEL
				q.client.XAck(ctx, subject, q.group, msg.ID)
				continue
			}
			deliveries = append(deliveries, domain.Delivery{
				ID:      msg.ID,
				Payload: []byte(raw),
			})
		}
	}
	return deliveries, nil
}

// Ack removes the delivery from the group's pending entries
func (q *RedisQueue) Ack(ctx context.Context, subject string, delivery domain.Delivery) error {
	err := q.client.XAck(ctx, subject, q.group, delivery.ID).Err()
	if err != nil {
		return fmt.Errorf("failed to ack %s on %s: %w", delivery.ID, subject, err)
	}
	return nil
}
