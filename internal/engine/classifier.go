package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/projectbackdoor/game-server/internal/services"
	"github.com/projectbackdoor/game-server/pkg/intent"
	"github.com/projectbackdoor/game-server/pkg/prompts"
	"github.com/projectbackdoor/game-server/pkg/world"
)

// ClassifierTimeout bounds a single classification call.
const ClassifierTimeout = 30 * time.Second

// Classifier turns free-text player input into a structured intent by
// asking the model for a constrained JSON object at temperature zero.
type Classifier struct {
	llm    services.LLMService
	model  string
	logger *slog.Logger
}

// NewClassifier creates an intent classifier using the given LLM service.
func NewClassifier(llm services.LLMService, model string, logger *slog.Logger) *Classifier {
	return &Classifier{
		llm:    llm,
		model:  model,
		logger: logger,
	}
}

// Classify resolves one player input against the current snapshot.
// Empty and malformed model output are distinct failures so the
// dispatcher can log them apart, though the player sees the same
// apology for both.
func (c *Classifier) Classify(ctx context.Context, snapshot *world.WorldSnapshot, input string) (*intent.Resolved, error) {
	prompt, err := prompts.BuildIntentPrompt(snapshot, input)
	if err != nil {
		return nil, NewFailure(FailureContextUnavailable, fmt.Errorf("failed to build intent prompt: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, ClassifierTimeout)
	defer cancel()

	raw, err := c.llm.Generate(ctx, services.GenerateRequest{
		Prompt:      prompt,
		Model:       c.model,
		Temperature: services.ClassifierTemperature,
		MaxTokens:   services.ClassifierMaxTokens,
		SchemaName:  prompts.IntentSchemaName,
		JSONSchema:  prompts.IntentJSONSchema(),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewFailure(FailureClassifierTimeout, err)
		}
		return nil, NewFailure(FailureClassifierUnavailable, fmt.Errorf("classifier call failed: %w", err))
	}

	resolved, err := intent.Parse(raw)
	if err != nil {
		if errors.Is(err, intent.ErrEmpty) {
			return nil, NewFailure(FailureClassifierEmpty, err)
		}
		c.logger.Warn("Classifier returned malformed output", "raw", raw)
		return nil, NewFailure(FailureClassifierMalformed, err)
	}

	c.logger.Debug("Classified input", "action", resolved.Action, "target", resolved.Target)
	return resolved, nil
}
