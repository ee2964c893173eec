package scope

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// ErrEmptyContract is returned when extraction is asked to read a blank contract.
var ErrEmptyContract = errors.New("contract text required")

// Completer issues a JSON-only chat completion and returns the raw payload.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Extractor turns contract text into a Summary with a single model call.
type Extractor struct {
	llm      Completer
	observer Observer
	logger   *slog.Logger
}

// NewExtractor creates an Extractor. observer and logger may be nil.
func NewExtractor(llm Completer, observer Observer, logger *slog.Logger) *Extractor {
	return &Extractor{llm: llm, observer: observer, logger: logger}
}

// Extract never returns a nil-list summary: degraded and failed outcomes carry
// EmptySummary as their value.
func (e *Extractor) Extract(ctx context.Context, contractText string) Outcome[Summary] {
	if strings.TrimSpace(contractText) == "" {
		return e.finish(Failure(EmptySummary(), ErrEmptyContract))
	}

	content, err := e.llm.CompleteJSON(ctx, ExtractionPrompt, contractText)
	if err != nil {
		return e.finish(Failure(EmptySummary(), err))
	}

	summary, err := ParseSummary(content)
	if err != nil {
		return e.finish(Degraded(EmptySummary(), err.Error()))
	}
	return e.finish(Success(summary))
}

func (e *Extractor) finish(outcome Outcome[Summary]) Outcome[Summary] {
	if e.observer != nil {
		e.observer.ObserveOutcome(StepExtraction, string(outcome.Kind))
	}
	if e.logger != nil && outcome.Kind != OutcomeSuccess {
		e.logger.Warn("scope extraction did not succeed", "outcome", outcome.Kind, "reason", outcome.Reason)
	}
	return outcome
}
