package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSummaryProcessing EventType = "summary.processing"
	EventTypeSummaryCompleted  EventType = "summary.completed"
	EventTypeSummaryFailed     EventType = "summary.failed"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType              `json:"type"`
	RequestID string                 `json:"request_id,omitempty"`
	NPCID     string                 `json:"npc_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Broadcaster publishes worker lifecycle events to Redis Pub/Sub so
// operators can watch the summarization pipeline.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishSummaryProcessing publishes a summary.processing event
func (b *Broadcaster) PublishSummaryProcessing(ctx context.Context, npcID string, requestID string) error {
	return b.publish(ctx, Event{
		Type:      EventTypeSummaryProcessing,
		RequestID: requestID,
		NPCID:     npcID,
	})
}

// PublishSummaryCompleted publishes a summary.completed event
func (b *Broadcaster) PublishSummaryCompleted(ctx context.Context, npcID string, requestID string, summary string) error {
	return b.publish(ctx, Event{
		Type:      EventTypeSummaryCompleted,
		RequestID: requestID,
		NPCID:     npcID,
		Data: map[string]interface{}{
			"summary": summary,
		},
	})
}

// PublishSummaryFailed publishes a summary.failed event
func (b *Broadcaster) PublishSummaryFailed(ctx context.Context, npcID string, requestID string, errorMsg string) error {
	return b.publish(ctx, Event{
		Type:      EventTypeSummaryFailed,
		RequestID: requestID,
		NPCID:     npcID,
		Data: map[string]interface{}{
			"error": errorMsg,
		},
	})
}

func (b *Broadcaster) publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := "events:npc:" + event.NPCID
	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Published event", "type", event.Type, "npc_id", event.NPCID, "channel", channel)
	return nil
}
