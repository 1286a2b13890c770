package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/projectbackdoor/game-server/internal/services/events"
	"github.com/projectbackdoor/game-server/internal/services/queue"
	queuePkg "github.com/projectbackdoor/game-server/pkg/queue"
)

const (
	workerTimeout = 5 * time.Second
)

// Worker drains the NPC memory summarization queue.
type Worker struct {
	id          string
	queue       *queue.MemoryQueue
	summarizer  *Summarizer
	broadcaster *events.Broadcaster
	redisClient *redis.Client
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(memoryQueue *queue.MemoryQueue, summarizer *Summarizer, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	broadcaster := events.NewBroadcaster(redisClient, log)

	return &Worker{
		id:          workerID,
		queue:       memoryQueue,
		summarizer:  summarizer,
		broadcaster: broadcaster,
		redisClient: redisClient,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins processing requests from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	// Block waiting for next request (timeout after 5 seconds to check for shutdown)
	ctx, cancel := context.WithTimeout(w.ctx, workerTimeout+time.Second)
	defer cancel()

	req, err := w.queue.BlockingDequeueRequest(ctx, workerTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}

	if req == nil {
		// Queue is empty or timeout occurred - this is normal
		return nil
	}

	w.log.Info("Received request from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"npc_id", req.NPCID,
	)

	// Serialize writes per NPC across workers
	locked, err := w.acquireNPCLock(req.NPCID)
	if err != nil {
		return fmt.Errorf("failed to acquire npc lock: %w", err)
	}
	if !locked {
		// Another worker is updating this NPC. Re-queue and move on.
		w.log.Info("NPC already locked, re-queueing request",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"npc_id", req.NPCID,
		)
		if err := w.queue.EnqueueRequest(w.ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue request: %w", err)
		}
		return nil
	}

	defer w.releaseNPCLock(req.NPCID)
	return w.processRequest(req)
}

// acquireNPCLock attempts to acquire a lock for an NPC.
// Returns true if lock was acquired, false if already locked.
func (w *Worker) acquireNPCLock(npcID string) (bool, error) {
	lockKey := "npc-lock:" + npcID

	result, err := w.redisClient.SetNX(w.ctx, lockKey, w.id, 30*time.Second).Result()
	if err != nil {
		return false, err
	}

	return result, nil
}

// releaseNPCLock releases the lock for an NPC
func (w *Worker) releaseNPCLock(npcID string) {
	lockKey := "npc-lock:" + npcID

	// Only delete if we own the lock
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	if err := script.Run(w.ctx, w.redisClient, []string{lockKey}, w.id).Err(); err != nil {
		w.log.Error("Failed to release npc lock", "error", err, "npc_id", npcID)
	}
}

// processRequest summarizes a single evicted interaction
func (w *Worker) processRequest(req *queuePkg.SummaryRequest) error {
	start := time.Now()

	if err := w.broadcaster.PublishSummaryProcessing(w.ctx, req.NPCID, req.RequestID); err != nil {
		w.log.Error("Failed to publish processing event", "error", err)
		// Don't fail the request just because event publishing failed
	}

	summary, err := w.summarizer.Process(w.ctx, req)
	if err != nil {
		if pubErr := w.broadcaster.PublishSummaryFailed(w.ctx, req.NPCID, req.RequestID, err.Error()); pubErr != nil {
			w.log.Error("Failed to publish failure event", "error", pubErr)
		}
		return fmt.Errorf("failed to process summary request: %w", err)
	}

	if err := w.broadcaster.PublishSummaryCompleted(w.ctx, req.NPCID, req.RequestID, summary); err != nil {
		w.log.Error("Failed to publish completion event", "error", err)
	}

	w.log.Info("Request processed",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"npc_id", req.NPCID,
		"duration", time.Since(start),
	)
	return nil
}
