package scope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/scopeguard/internal/llm"
)

var errNoScopeKeys = errors.New("payload has none of deliverables, exclusions, constraints")

// ParseSummary validates a model payload against the three-list scope shape.
// Missing lists are coerced to empty; a payload with none of them, or with a
// list that is not an array of strings, is rejected.
func ParseSummary(content string) (Summary, error) {
	var raw map[string]json.RawMessage
	if err := llm.DecodeJSON(content, &raw); err != nil {
		return EmptySummary(), fmt.Errorf("decode scope payload: %w", err)
	}
	fields := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		fields[strings.ToLower(strings.TrimSpace(key))] = value
	}

	summary := EmptySummary()
	targets := []struct {
		key  string
		dest *[]string
	}{
		{"deliverables", &summary.Deliverables},
		{"exclusions", &summary.Exclusions},
		{"constraints", &summary.Constraints},
	}

	found := 0
	for _, target := range targets {
		value, ok := fields[target.key]
		if !ok {
			continue
		}
		found++
		list, err := decodeStringList(value)
		if err != nil {
			return EmptySummary(), fmt.Errorf("field %q: %w", target.key, err)
		}
		*target.dest = list
	}
	if found == 0 {
		return EmptySummary(), errNoScopeKeys
	}
	return summary.Normalize(), nil
}

func decodeStringList(raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return []string{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.New("expected an array of strings")
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, fmt.Errorf("entry %d is not a string", i)
		}
		out = append(out, s)
	}
	return out, nil
}

type rawFinding struct {
	RequestText       *string         `json:"request_text"`
	Reason            *string         `json:"reason"`
	ContractReference json.RawMessage `json:"contract_reference"`
}

// ParseFindings validates a detection payload. The expected shape is an object
// with an "alerts" array; a bare array is accepted too. Entries missing
// request_text or reason are dropped and counted.
func ParseFindings(content string) ([]Finding, int, error) {
	var raw json.RawMessage
	if err := llm.DecodeJSON(content, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode detection payload: %w", err)
	}

	var items []json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, fmt.Errorf("decode alerts array: %w", err)
		}
	default:
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, 0, fmt.Errorf("decode detection payload: %w", err)
		}
		alerts, ok := envelope["alerts"]
		if !ok {
			return nil, 0, errors.New(`payload missing "alerts"`)
		}
		if !isNull(alerts) {
			if err := json.Unmarshal(alerts, &items); err != nil {
				return nil, 0, errors.New(`"alerts" is not an array`)
			}
		}
	}

	findings := make([]Finding, 0, len(items))
	dropped := 0
	for _, item := range items {
		finding, ok := parseFinding(item)
		if !ok {
			dropped++
			continue
		}
		findings = append(findings, finding)
	}
	return findings, dropped, nil
}

func parseFinding(item json.RawMessage) (Finding, bool) {
	var rf rawFinding
	if err := json.Unmarshal(item, &rf); err != nil {
		return Finding{}, false
	}
	if rf.RequestText == nil || rf.Reason == nil {
		return Finding{}, false
	}
	requestText := strings.TrimSpace(*rf.RequestText)
	reason := strings.TrimSpace(*rf.Reason)
	if requestText == "" || reason == "" {
		return Finding{}, false
	}
	finding := Finding{RequestText: requestText, Reason: reason}
	if len(rf.ContractReference) > 0 && !isNull(rf.ContractReference) {
		var ref string
		if err := json.Unmarshal(rf.ContractReference, &ref); err == nil {
			if ref = strings.TrimSpace(ref); ref != "" {
				finding.ContractReference = &ref
			}
		}
	}
	return finding, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
