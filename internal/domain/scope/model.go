package scope

import "strings"

// Summary is the structured scope of a contract.
type Summary struct {
	Deliverables []string `json:"deliverables"`
	Exclusions   []string `json:"exclusions"`
	Constraints  []string `json:"constraints"`
}

// EmptySummary returns a summary with all three lists present and empty.
func EmptySummary() Summary {
	return Summary{
		Deliverables: []string{},
		Exclusions:   []string{},
		Constraints:  []string{},
	}
}

// Normalize trims entries, drops blanks and guarantees non-nil lists.
// Order and duplicates are preserved.
func (s Summary) Normalize() Summary {
	return Summary{
		Deliverables: cleanList(s.Deliverables),
		Exclusions:   cleanList(s.Exclusions),
		Constraints:  cleanList(s.Constraints),
	}
}

// IsEmpty reports whether all three lists are empty.
func (s Summary) IsEmpty() bool {
	return len(s.Deliverables) == 0 && len(s.Exclusions) == 0 && len(s.Constraints) == 0
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Finding is one request flagged as outside the contracted scope.
type Finding struct {
	RequestText       string  `json:"request_text"`
	Reason            string  `json:"reason"`
	ContractReference *string `json:"contract_reference,omitempty"`
}
