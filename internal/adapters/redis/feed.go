package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"marketscope/internal/domain/research"
	"marketscope/pkg/errors"
	"marketscope/pkg/logger"
)

// statusChannel returns the pub/sub channel name for a query
func statusChannel(queryID uuid.UUID) string {
	return fmt.Sprintf("research:status:%s", queryID)
}

// StatusFeed publishes and delivers query status transitions over Redis pub/sub
type StatusFeed struct {
	client *Client
	log    *logger.Logger
}

var _ research.Feed = (*StatusFeed)(nil)

// NewStatusFeed creates a status feed backed by Redis pub/sub
func NewStatusFeed(client *Client) *StatusFeed {
	return &StatusFeed{
		client: client,
		log:    logger.Get().With("component", "status_feed"),
	}
}

// PublishStatus broadcasts a status event to subscribers of the query channel
func (f *StatusFeed) PublishStatus(ctx context.Context, event research.StatusEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal status event")
	}

	if err := f.client.Client().Publish(ctx, statusChannel(event.QueryID), payload).Err(); err != nil {
		return errors.Wrap(err, "failed to publish status event")
	}

	f.log.Debugw("Published status event",
		"query_id", event.QueryID,
		"status", event.Status)
	return nil
}

// SubscribeStatus subscribes to status events for a single query. The returned
// cancel function must be called to release the subscription. The channel is
// closed when the subscription ends or ctx is cancelled.
func (f *StatusFeed) SubscribeStatus(ctx context.Context, queryID uuid.UUID) (<-chan research.StatusEvent, func(), error) {
	sub := f.client.Client().Subscribe(ctx, statusChannel(queryID))

	// Wait for subscription confirmation
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, errors.Wrap(err, "failed to subscribe to status channel")
	}

	events := make(chan research.StatusEvent, 16)
	done := make(chan struct{})

	go func() {
		defer close(events)
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event research.StatusEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					f.log.Warnw("Dropping malformed status event", "error", err)
					continue
				}
				select {
				case events <- event:
				default:
					f.log.Warnw("Subscriber too slow, dropping status event",
						"query_id", event.QueryID)
				}
			}
		}
	}()

	cancel := func() {
		close(done)
		_ = sub.Close()
	}
	return events, cancel, nil
}

// NoopFeed is used when Redis is not configured. Publishes succeed silently
// and subscriptions deliver no events.
type NoopFeed struct{}

var _ research.Feed = (*NoopFeed)(nil)

// NewNoopFeed creates a feed that discards all events
func NewNoopFeed() *NoopFeed {
	return &NoopFeed{}
}

// PublishStatus discards the event
func (f *NoopFeed) PublishStatus(_ context.Context, _ research.StatusEvent) error {
	return nil
}

// SubscribeStatus returns a channel that closes when the context is done
func (f *NoopFeed) SubscribeStatus(ctx context.Context, _ uuid.UUID) (<-chan research.StatusEvent, func(), error) {
	events := make(chan research.StatusEvent)
	done := make(chan struct{})
	go func() {
		defer close(events)
		select {
		case <-ctx.Done():
		case <-done:
		}
	}()
	return events, func() { close(done) }, nil
}
