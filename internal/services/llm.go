package services

import "context"

// Default generation parameters. Classification favors determinism;
// narrative calls favor variety.
const (
	ClassifierTemperature = 0.0
	ClassifierMaxTokens   = 150

	NarrativeTemperature = 0.7
	NarrativeMaxTokens   = 250
)

// GenerateRequest carries one prompt to the generation backend.
type GenerateRequest struct {
	Prompt      string
	Model       string // overrides the service default when non-empty
	Temperature float64
	MaxTokens   int

	// SchemaName and JSONSchema request strictly well-formed structured
	// output. Providers without structured-output support ignore them.
	SchemaName string
	JSONSchema map[string]any
}

// LLMService is the interface to the text-generation capability.
type LLMService interface {
	// InitModel prepares the model on startup.
	InitModel(ctx context.Context, modelName string) error

	// Generate produces text for the given prompt. An empty string with a
	// nil error means the backend returned nothing usable; callers decide
	// whether that is benign.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
