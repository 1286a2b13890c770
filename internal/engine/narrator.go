package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/projectbackdoor/game-server/internal/services"
	"github.com/projectbackdoor/game-server/pkg/intent"
	"github.com/projectbackdoor/game-server/pkg/protocol"
	"github.com/projectbackdoor/game-server/pkg/prompts"
	"github.com/projectbackdoor/game-server/pkg/textfilter"
	"github.com/projectbackdoor/game-server/pkg/world"
)

// NarratorResponder handles every non-movement, non-dialogue intent
// (LOOK, GET, USE, UNKNOWN) by narrating the outcome of the player's
// action against the snapshot. It never mutates world state.
type NarratorResponder struct {
	llm    services.LLMService
	model  string
	logger *slog.Logger
}

// NewNarratorResponder creates a world-simulation narrator.
func NewNarratorResponder(llm services.LLMService, model string, logger *slog.Logger) *NarratorResponder {
	return &NarratorResponder{
		llm:    llm,
		model:  model,
		logger: logger,
	}
}

// Respond narrates the outcome of the player's action.
func (n *NarratorResponder) Respond(ctx context.Context, snapshot *world.WorldSnapshot, in *intent.Resolved, rawInput string) (protocol.Outbound, error) {
	prompt, err := prompts.BuildNarratorPrompt(snapshot, in, rawInput)
	if err != nil {
		return protocol.Outbound{}, NewFailure(FailureContextUnavailable, fmt.Errorf("failed to build narrator prompt: %w", err))
	}

	genCtx, cancel := context.WithTimeout(ctx, GeneratorTimeout)
	defer cancel()

	text, err := n.llm.Generate(genCtx, services.GenerateRequest{
		Prompt:      prompt,
		Model:       n.model,
		Temperature: services.NarrativeTemperature,
		MaxTokens:   services.NarrativeMaxTokens,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return protocol.Outbound{}, NewFailure(FailureGeneratorTimeout, err)
		}
		return protocol.Outbound{}, NewFailure(FailureGeneratorUnavailable, fmt.Errorf("narration failed: %w", err))
	}

	text = textfilter.CleanNarrative(text)
	if text == "" {
		return protocol.Description("Nothing seems to happen."), nil
	}

	return protocol.Description(text), nil
}
