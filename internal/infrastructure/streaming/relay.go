package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/pkg/messaging"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// RedisRelay republishes the events of one run on a per-user channel so
// other instances can follow it.
type RedisRelay struct {
	client  messaging.RedisClient
	channel string
	logger  *zap.Logger
}

func NewRedisRelay(client messaging.RedisClient, channel string, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, logger: logger}
}

// RunChannel is the channel carrying the events of runID for userID.
func (r *RedisRelay) RunChannel(userID, runID string) string {
	return fmt.Sprintf("%s:%s:%s", r.channel, userID, runID)
}

// Sink returns an event sink publishing to the run channel. Publish
// failures are logged and never fail the run.
func (r *RedisRelay) Sink(userID, runID string) *RelaySink {
	return &RelaySink{relay: r, userID: userID, runID: runID}
}

// UserSink publishes each event on the channel of the run it belongs to.
func (r *RedisRelay) UserSink(userID string) *RelaySink {
	return &RelaySink{relay: r, userID: userID}
}

// Follow forwards the run's events to dst until a terminal run event
// arrives or ctx is done.
func (r *RedisRelay) Follow(ctx context.Context, userID, runID string, dst *SSEWriter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, err := r.client.Subscribe(ctx, r.RunChannel(userID, runID))
	if err != nil {
		return err
	}

	for msg := range messages {
		var head struct {
			Name entity.EventName `json:"event"`
		}
		if err := json.Unmarshal(msg.Payload, &head); err != nil || head.Name == "" {
			r.logger.Warn("Dropping malformed relayed event", zap.String("channel", msg.Channel))
			continue
		}
		if err := dst.SendRaw(head.Name, msg.Payload); err != nil {
			return err
		}
		if head.Name == entity.EventComplete || head.Name == entity.EventCancelled {
			return nil
		}
	}
	return ctx.Err()
}

type RelaySink struct {
	relay  *RedisRelay
	userID string
	runID  string
}

func (s *RelaySink) Send(event entity.Event) error {
	runID := s.runID
	if runID == "" {
		runID = event.SyncID
	}
	channel := s.relay.RunChannel(s.userID, runID)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.relay.client.Publish(ctx, channel, event); err != nil {
		s.relay.logger.Warn("Failed to relay sync event",
			zap.String("channel", channel),
			zap.String("event", string(event.Name)),
			zap.Error(err),
		)
	}
	return nil
}
