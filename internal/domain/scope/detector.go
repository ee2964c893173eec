package scope

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Detector compares a transcript against a Summary. Every call re-derives
// findings from scratch.
type Detector struct {
	llm      Completer
	observer Observer
	logger   *slog.Logger
}

// NewDetector creates a Detector. observer and logger may be nil.
func NewDetector(llm Completer, observer Observer, logger *slog.Logger) *Detector {
	return &Detector{llm: llm, observer: observer, logger: logger}
}

// Detect returns findings in the order the model reported them.
func (d *Detector) Detect(ctx context.Context, transcript string, summary Summary) Outcome[[]Finding] {
	if strings.TrimSpace(transcript) == "" {
		return d.finish(Success([]Finding{}))
	}

	scopeJSON, err := json.MarshalIndent(summary.Normalize(), "", "  ")
	if err != nil {
		return d.finish(Failure([]Finding{}, fmt.Errorf("encode scope: %w", err)))
	}
	userPrompt := fmt.Sprintf("Project Scope:\n%s\n\nMeeting Transcript:\n%s", scopeJSON, transcript)

	content, err := d.llm.CompleteJSON(ctx, DetectionPrompt, userPrompt)
	if err != nil {
		return d.finish(Failure([]Finding{}, err))
	}

	findings, dropped, err := ParseFindings(content)
	if err != nil {
		return d.finish(Degraded([]Finding{}, err.Error()))
	}
	if dropped > 0 {
		return d.finish(Degraded(findings, fmt.Sprintf("dropped %d malformed findings", dropped)))
	}
	return d.finish(Success(findings))
}

func (d *Detector) finish(outcome Outcome[[]Finding]) Outcome[[]Finding] {
	if d.observer != nil {
		d.observer.ObserveOutcome(StepDetection, string(outcome.Kind))
	}
	if d.logger != nil && outcome.Kind != OutcomeSuccess {
		d.logger.Warn("deviation detection did not succeed", "outcome", outcome.Kind, "reason", outcome.Reason, "findings", len(outcome.Value))
	}
	return outcome
}
