package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/projectbackdoor/game-server/pkg/queue"
)

func main() {
	// Connect to Redis
	redisOpts, err := redis.ParseURL("redis://localhost:6379")
	if err != nil {
		log.Fatal("Failed to parse Redis URL:", err)
	}
	client := redis.NewClient(redisOpts)
	defer client.Close()

	ctx := context.Background()

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	fmt.Println("Connected to Redis successfully!")

	// Create a test memory summary request
	req := &queue.SummaryRequest{
		RequestID:   uuid.New().String(),
		NPCID:       "npc_clippy",
		Interaction: `Player said: "Do you know what happened to the antenna on the roof?". You replied: "Oh! THAT old thing? Between you and me, it hasn't broadcast anything legal in years."`,
		EnqueuedAt:  time.Now(),
	}

	data, err := json.Marshal(req)
	if err != nil {
		log.Fatal("Failed to marshal request:", err)
	}

	if err := client.RPush(ctx, "npc-memory-queue", data).Err(); err != nil {
		log.Fatal("Failed to enqueue request:", err)
	}

	fmt.Printf("✅ Enqueued summary request: %s\n", req.RequestID)

	// Check queue depth
	depth, err := client.LLen(ctx, "npc-memory-queue").Result()
	if err != nil {
		log.Fatal("Failed to get queue depth:", err)
	}

	fmt.Printf("\n📊 Queue depth: %d requests\n", depth)
	fmt.Println("\n💡 Now start the worker to see it process these requests!")
	fmt.Println("   Run: go run cmd/worker/main.go")
}
