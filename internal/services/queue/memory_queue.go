package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	queuePkg "github.com/projectbackdoor/game-server/pkg/queue"
)

// memoryQueueKey is the single shared work queue for NPC memory summaries.
const memoryQueueKey = "npc-memory-queue"

// MemoryQueue manages the queue of NPC memory summarization requests.
// The dialogue path enqueues interactions that fell out of short-term
// memory; the worker drains the queue and writes medium-term summaries.
type MemoryQueue struct {
	client *Client
}

func NewMemoryQueue(client *Client) *MemoryQueue {
	return &MemoryQueue{
		client: client,
	}
}

// EnqueueSummary queues an evicted interaction for summarization.
func (q *MemoryQueue) EnqueueSummary(ctx context.Context, npcID string, interaction string) error {
	req := &queuePkg.SummaryRequest{
		RequestID:   uuid.New().String(),
		NPCID:       npcID,
		Interaction: interaction,
		EnqueuedAt:  time.Now(),
	}
	return q.EnqueueRequest(ctx, req)
}

// EnqueueRequest adds a summary request to the end of the queue.
func (q *MemoryQueue) EnqueueRequest(ctx context.Context, req *queuePkg.SummaryRequest) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal summary request: %w", err)
	}

	if err := q.client.rdb.RPush(ctx, memoryQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue summary request: %w", err)
	}
	return nil
}

// BlockingDequeueRequest waits up to timeout for the next request.
// Returns (nil, nil) when the queue stays empty for the full timeout.
func (q *MemoryQueue) BlockingDequeueRequest(ctx context.Context, timeout time.Duration) (*queuePkg.SummaryRequest, error) {
	result, err := q.client.rdb.BLPop(ctx, timeout, memoryQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue summary request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) < 2 {
		return nil, nil
	}

	req, err := queuePkg.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary request: %w", err)
	}
	return req, nil
}

// Depth returns the number of queued requests.
func (q *MemoryQueue) Depth(ctx context.Context) (int, error) {
	depth, err := q.client.rdb.LLen(ctx, memoryQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(depth), nil
}
