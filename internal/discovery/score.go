package discovery

import "strings"

// Signals are the column-role flags behind a candidate's score.
type Signals struct {
	HasUnit    bool `json:"has_unit"`
	HasTime    bool `json:"has_time"`
	HasTreat   bool `json:"has_treat"`
	HasOutcome bool `json:"has_outcome"`
}

// Keyword sets matched case-insensitively against column names.
var (
	timeKeywords    = []string{"time", "year", "date", "t"}
	unitKeywords    = []string{"unit", "id", "panelid", "county", "state", "region", "firm"}
	treatKeywords   = []string{"treat", "treated", "policy", "post", "d"}
	outcomeKeywords = []string{"y", "outcome", "dep", "dependent", "lhs"}
)

// ScoreColumns rates how much a file looks like a primary panel dataset.
// Joint unit+time presence dominates (3.0), treatment adds 2.0, outcome
// 1.0, and shape contributes only a fractional tie-breaker. The size term
// is intentionally unbounded: a pathological row count could outweigh a
// structural signal, matching the reference ranking exactly.
func ScoreColumns(columns []string, rows, cols int) (float64, Signals) {
	lower := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		lower[strings.ToLower(c)] = struct{}{}
	}
	has := func(keys []string) bool {
		for _, k := range keys {
			if _, ok := lower[k]; ok {
				return true
			}
		}
		return false
	}

	sig := Signals{
		HasUnit:    has(unitKeywords),
		HasTime:    has(timeKeywords),
		HasTreat:   has(treatKeywords),
		HasOutcome: has(outcomeKeywords),
	}

	score := 0.0
	if sig.HasUnit && sig.HasTime {
		score += 3.0
	}
	if sig.HasTreat {
		score += 2.0
	}
	if sig.HasOutcome {
		score += 1.0
	}
	score += 0.5*float64(rows)/1_000_000 + 0.1*float64(cols)
	return score, sig
}
