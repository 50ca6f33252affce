package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"homestay-service/internal/metrics"
	"homestay-service/internal/workflow"
)

// Dispatcher delivers notification events to the downstream notification
// service. Delivery is fire-and-forget: it happens after the state
// transition commits and is never awaited for correctness.
type Dispatcher interface {
	Enqueue(ctx context.Context, event workflow.Event)
}

// RedisDispatcher pushes events onto a redis list consumed by the
// notification workers.
type RedisDispatcher struct {
	client  *redis.Client
	queue   string
	timeout time.Duration
	log     zerolog.Logger
}

func NewRedisDispatcher(client *redis.Client, queue string, log zerolog.Logger) *RedisDispatcher {
	return &RedisDispatcher{
		client:  client,
		queue:   queue,
		timeout: 2 * time.Second,
		log:     log,
	}
}

// Enqueue serializes and pushes the event. Failures are logged and dropped;
// a lost notification never rolls back a committed transition. The push is
// bounded by a short timeout detached from the request context so a slow
// queue cannot stall or cancel the response.
func (d *RedisDispatcher) Enqueue(_ context.Context, event workflow.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	payload, err := json.Marshal(event)
	if err != nil {
		d.log.Error().Err(err).Str("event", event.Name).Msg("notification marshal failed")
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return
	}
	if err := d.client.LPush(ctx, d.queue, payload).Err(); err != nil {
		d.log.Warn().Err(err).Str("event", event.Name).Msg("notification enqueue failed")
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return
	}
	metrics.NotificationsTotal.WithLabelValues("queued").Inc()
}

// NopDispatcher drops every event. Used when no redis endpoint is
// configured and in tests.
type NopDispatcher struct{}

func (NopDispatcher) Enqueue(context.Context, workflow.Event) {}
