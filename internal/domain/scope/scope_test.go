package scope_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rpggio/scopeguard/internal/domain/scope"
	"github.com/stretchr/testify/require"
)

type completerStub struct {
	calls    int
	system   string
	user     string
	response string
	err      error
}

func (c *completerStub) CompleteJSON(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	c.calls++
	c.system = systemPrompt
	c.user = userPrompt
	return c.response, c.err
}

type observerStub struct {
	seen []string
}

func (o *observerStub) ObserveOutcome(step, outcome string) {
	o.seen = append(o.seen, step+":"+outcome)
}

func TestExtractor_Success(t *testing.T) {
	llm := &completerStub{response: `{"deliverables":["5-page site"],"exclusions":["logo design"],"constraints":["2 revisions"]}`}
	obs := &observerStub{}

	outcome := scope.NewExtractor(llm, obs, nil).Extract(context.Background(),
		"Deliverables: 5-page site. Exclusions: logo design. Constraints: 2 revisions.")

	require.Equal(t, scope.OutcomeSuccess, outcome.Kind)
	require.Equal(t, []string{"5-page site"}, outcome.Value.Deliverables)
	require.Equal(t, []string{"logo design"}, outcome.Value.Exclusions)
	require.Equal(t, []string{"2 revisions"}, outcome.Value.Constraints)
	require.Equal(t, 1, llm.calls)
	require.Equal(t, scope.ExtractionPrompt, llm.system)
	require.Equal(t, []string{"scope_extraction:success"}, obs.seen)
}

func TestExtractor_MissingListsCoercedToEmpty(t *testing.T) {
	llm := &completerStub{response: "```json\n{\"Deliverables\":[\"API\"],\"exclusions\":null}\n```"}

	outcome := scope.NewExtractor(llm, nil, nil).Extract(context.Background(), "contract")
	require.Equal(t, scope.OutcomeSuccess, outcome.Kind)
	require.Equal(t, []string{"API"}, outcome.Value.Deliverables)
	require.NotNil(t, outcome.Value.Exclusions)
	require.Empty(t, outcome.Value.Exclusions)
	require.NotNil(t, outcome.Value.Constraints)
	require.Empty(t, outcome.Value.Constraints)
}

func TestExtractor_UnparseableDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "not json", response: "I could not find a scope."},
		{name: "no scope keys", response: `{"summary":"a website"}`},
		{name: "wrong list type", response: `{"deliverables":"a website"}`},
		{name: "non-string entries", response: `{"deliverables":[1,2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &observerStub{}
			outcome := scope.NewExtractor(&completerStub{response: tt.response}, obs, nil).
				Extract(context.Background(), "contract")

			require.Equal(t, scope.OutcomeDegraded, outcome.Kind)
			require.NotEmpty(t, outcome.Reason)
			require.True(t, outcome.OK())
			require.Equal(t, scope.EmptySummary(), outcome.Value)
			require.Equal(t, []string{"scope_extraction:degraded"}, obs.seen)
		})
	}
}

func TestExtractor_UpstreamFailure(t *testing.T) {
	upstream := errors.New("503 service unavailable")
	outcome := scope.NewExtractor(&completerStub{err: upstream}, nil, nil).
		Extract(context.Background(), "contract")

	require.Equal(t, scope.OutcomeFailure, outcome.Kind)
	require.ErrorIs(t, outcome.Err, upstream)
	require.False(t, outcome.OK())
	require.Equal(t, scope.EmptySummary(), outcome.Value)
}

func TestExtractor_BlankContractSkipsModel(t *testing.T) {
	llm := &completerStub{}
	outcome := scope.NewExtractor(llm, nil, nil).Extract(context.Background(), "   ")
	require.Equal(t, scope.OutcomeFailure, outcome.Kind)
	require.ErrorIs(t, outcome.Err, scope.ErrEmptyContract)
	require.Equal(t, 0, llm.calls)
}

func TestDetector_Success(t *testing.T) {
	llm := &completerStub{response: `{"alerts":[{"request_text":"Design a new logo","reason":"Logo design is excluded","contract_reference":"Exclusions: logo design"}]}`}
	summary := scope.Summary{
		Deliverables: []string{"5-page site"},
		Exclusions:   []string{"logo design"},
		Constraints:  []string{"2 revisions"},
	}

	outcome := scope.NewDetector(llm, nil, nil).Detect(context.Background(),
		"Client asked us to also design a new logo.", summary)

	require.Equal(t, scope.OutcomeSuccess, outcome.Kind)
	require.Len(t, outcome.Value, 1)
	require.Equal(t, "Design a new logo", outcome.Value[0].RequestText)
	require.NotNil(t, outcome.Value[0].ContractReference)
	require.Equal(t, "Exclusions: logo design", *outcome.Value[0].ContractReference)

	require.Equal(t, scope.DetectionPrompt, llm.system)
	require.Contains(t, llm.user, "Project Scope:")
	require.Contains(t, llm.user, `"logo design"`)
	require.True(t, strings.HasSuffix(llm.user, "Meeting Transcript:\nClient asked us to also design a new logo."))
}

func TestDetector_EmptyAlerts(t *testing.T) {
	for _, response := range []string{`{"alerts":[]}`, `{"alerts":null}`, `[]`} {
		outcome := scope.NewDetector(&completerStub{response: response}, nil, nil).
			Detect(context.Background(), "We agreed on the colors.", scope.EmptySummary())
		require.Equal(t, scope.OutcomeSuccess, outcome.Kind, response)
		require.NotNil(t, outcome.Value)
		require.Empty(t, outcome.Value)
	}
}

func TestDetector_MalformedDegradesToEmpty(t *testing.T) {
	for _, response := range []string{"nope", `{"findings":[]}`, `{"alerts":"logo"}`, `"alerts"`} {
		obs := &observerStub{}
		outcome := scope.NewDetector(&completerStub{response: response}, obs, nil).
			Detect(context.Background(), "transcript", scope.EmptySummary())
		require.Equal(t, scope.OutcomeDegraded, outcome.Kind, response)
		require.Empty(t, outcome.Value)
		require.Equal(t, []string{"deviation_detection:degraded"}, obs.seen)
	}
}

func TestDetector_DropsMalformedEntries(t *testing.T) {
	llm := &completerStub{response: `{"alerts":[
		{"request_text":"Add a blog","reason":"Not a deliverable","contract_reference":null},
		{"request_text":"","reason":"blank request"},
		{"reason":"missing request"},
		"not an object"
	]}`}

	outcome := scope.NewDetector(llm, nil, nil).Detect(context.Background(), "transcript", scope.EmptySummary())
	require.Equal(t, scope.OutcomeDegraded, outcome.Kind)
	require.Equal(t, "dropped 3 malformed findings", outcome.Reason)
	require.Len(t, outcome.Value, 1)
	require.Equal(t, "Add a blog", outcome.Value[0].RequestText)
	require.Nil(t, outcome.Value[0].ContractReference)
}

func TestDetector_UpstreamFailure(t *testing.T) {
	upstream := errors.New("timeout")
	outcome := scope.NewDetector(&completerStub{err: upstream}, nil, nil).
		Detect(context.Background(), "transcript", scope.EmptySummary())
	require.Equal(t, scope.OutcomeFailure, outcome.Kind)
	require.ErrorIs(t, outcome.Err, upstream)
}

func TestDetector_NoMemoization(t *testing.T) {
	llm := &completerStub{response: `{"alerts":[]}`}
	detector := scope.NewDetector(llm, nil, nil)
	detector.Detect(context.Background(), "transcript", scope.EmptySummary())
	detector.Detect(context.Background(), "transcript", scope.EmptySummary())
	require.Equal(t, 2, llm.calls)
}

func TestSummary_Normalize(t *testing.T) {
	s := scope.Summary{Deliverables: []string{" a ", "", "a"}}.Normalize()
	require.Equal(t, []string{"a", "a"}, s.Deliverables)
	require.NotNil(t, s.Exclusions)
	require.True(t, scope.Summary{}.IsEmpty())
}
