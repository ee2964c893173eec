package scope

// OutcomeKind tags the result of a model-backed step.
type OutcomeKind string

const (
	// OutcomeSuccess means the model answered with a well-formed payload.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeDegraded means the model answered but the payload was unusable
	// or partially usable; Value holds the fallback.
	OutcomeDegraded OutcomeKind = "degraded"
	// OutcomeFailure means the model could not be reached or refused the call.
	OutcomeFailure OutcomeKind = "failure"
)

// Outcome separates "no findings" from "could not determine findings".
type Outcome[T any] struct {
	Kind   OutcomeKind
	Value  T
	Reason string
	Err    error
}

func Success[T any](value T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeSuccess, Value: value}
}

func Degraded[T any](value T, reason string) Outcome[T] {
	return Outcome[T]{Kind: OutcomeDegraded, Value: value, Reason: reason}
}

func Failure[T any](value T, err error) Outcome[T] {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return Outcome[T]{Kind: OutcomeFailure, Value: value, Reason: reason, Err: err}
}

// OK reports whether the outcome produced a usable value (success or degraded).
func (o Outcome[T]) OK() bool {
	return o.Kind == OutcomeSuccess || o.Kind == OutcomeDegraded
}

// Observer receives one notification per step execution.
type Observer interface {
	ObserveOutcome(step, outcome string)
}

const (
	StepExtraction = "scope_extraction"
	StepDetection  = "deviation_detection"
)
