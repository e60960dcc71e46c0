package discovery_test

import (
	"testing"

	"github.com/panelscout/panelscout/internal/discovery"
)

func TestScoreColumnsFullPanel(t *testing.T) {
	score, sig := discovery.ScoreColumns([]string{"unit", "time", "treat", "y"}, 0, 0)
	if !sig.HasUnit || !sig.HasTime || !sig.HasTreat || !sig.HasOutcome {
		t.Fatalf("expected all signals, got %+v", sig)
	}
	if score < 6.0 {
		t.Fatalf("score = %v, want >= 6.0", score)
	}
}

func TestScoreColumnsCaseInsensitive(t *testing.T) {
	score, sig := discovery.ScoreColumns([]string{"UNIT", "Time", "TREAT", "Y"}, 0, 0)
	if !sig.HasUnit || !sig.HasTime || !sig.HasTreat || !sig.HasOutcome {
		t.Fatalf("case-insensitive match failed: %+v", sig)
	}
	if score < 6.0 {
		t.Fatalf("score = %v, want >= 6.0", score)
	}
}

func TestScoreColumnsUnitAloneScoresNothing(t *testing.T) {
	// The structural bonus requires unit AND time jointly.
	score, sig := discovery.ScoreColumns([]string{"id", "notes"}, 0, 0)
	if !sig.HasUnit || sig.HasTime {
		t.Fatalf("unexpected signals: %+v", sig)
	}
	if score != 0.1*2 {
		t.Fatalf("score = %v, want only the column term", score)
	}
}

func TestScoreColumnsSizeTieBreaker(t *testing.T) {
	cols := []string{"id", "year", "treat", "y"}
	small, _ := discovery.ScoreColumns(cols, 50, 4)
	big, _ := discovery.ScoreColumns(cols, 1000, 4)
	if big <= small {
		t.Fatalf("more rows must never score lower: %v <= %v", big, small)
	}
	// The fractional term stays below a structural-signal gap.
	if big-small >= 1.0 {
		t.Fatalf("size term too large: %v", big-small)
	}
}

func TestScoreColumnsExactWeights(t *testing.T) {
	score, _ := discovery.ScoreColumns([]string{"id", "year", "treat", "y"}, 1000, 4)
	want := 3.0 + 2.0 + 1.0 + 0.5*1000/1_000_000 + 0.1*4
	if diff := score - want; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("score = %v, want %v", score, want)
	}
}
