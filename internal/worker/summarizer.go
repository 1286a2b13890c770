package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/projectbackdoor/game-server/internal/services"
	"github.com/projectbackdoor/game-server/internal/storage"
	"github.com/projectbackdoor/game-server/pkg/prompts"
	"github.com/projectbackdoor/game-server/pkg/textfilter"
	queuePkg "github.com/projectbackdoor/game-server/pkg/queue"
)

// Summarizer compresses interactions that fell out of an NPC's
// short-term memory into medium-term summaries.
type Summarizer struct {
	storage    storage.Storage
	llmService services.LLMService
	modelName  string
	logger     *slog.Logger
}

// NewSummarizer creates a new memory summarizer
func NewSummarizer(storage storage.Storage, llmService services.LLMService, modelName string, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		storage:    storage,
		llmService: llmService,
		modelName:  modelName,
		logger:     logger,
	}
}

// Process summarizes one evicted interaction and appends the result to
// the NPC's medium-term memory. Returns the stored summary.
func (s *Summarizer) Process(ctx context.Context, req *queuePkg.SummaryRequest) (string, error) {
	npc, err := s.storage.GetNPC(ctx, req.NPCID)
	if err != nil {
		return "", fmt.Errorf("failed to load npc: %w", err)
	}
	if npc == nil {
		return "", fmt.Errorf("npc not found: %s", req.NPCID)
	}

	prompt := prompts.BuildSummaryPrompt(req.NPCID, req.Interaction)

	summary, err := s.llmService.Generate(ctx, services.GenerateRequest{
		Prompt:      prompt,
		Model:       s.modelName,
		Temperature: services.ClassifierTemperature,
		MaxTokens:   services.ClassifierMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	summary = textfilter.CleanNarrative(summary)
	if summary == "" {
		// Keep the raw interaction rather than losing the memory.
		s.logger.Warn("Empty summary, storing raw interaction", "npc_id", req.NPCID)
		summary = req.Interaction
	}

	npc.Memory.Summarize(summary)
	if err := s.storage.PutNPC(ctx, npc); err != nil {
		return "", fmt.Errorf("failed to save npc memory: %w", err)
	}

	s.logger.Debug("Stored medium-term summary", "npc_id", req.NPCID, "summary", summary)
	return summary, nil
}
