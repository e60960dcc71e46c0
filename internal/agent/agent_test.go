package agent_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panelscout/panelscout/internal/agent"
	"github.com/panelscout/panelscout/internal/ai"
)

type scriptedRuntime struct {
	calls   int
	replies []string
	err     error
}

func (s *scriptedRuntime) Generate(_ context.Context, _ ai.GenerateRequest) (*ai.GenerateResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	reply := "## Analysis\nBody"
	if len(s.replies) > 0 {
		reply = s.replies[(s.calls-1)%len(s.replies)]
	}
	return &ai.GenerateResponse{
		Choices: []ai.Choice{{Message: ai.Message{Content: reply}}},
	}, nil
}

func fixtureOptions(t *testing.T) agent.Options {
	t.Helper()
	dir := t.TempDir()
	data := filepath.Join(dir, "panel.csv")
	if err := os.WriteFile(data, []byte("id,year,y\n1,2000,1.0\n"), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	summary := filepath.Join(dir, "summary.txt")
	if err := os.WriteFile(summary, []byte("Paper studies a policy change."), 0o644); err != nil {
		t.Fatalf("write summary: %v", err)
	}
	return agent.Options{
		DataPath:         data,
		PaperSummaryPath: summary,
		AnalysisName:     "test_run",
		Model:            "o3-mini",
		NumAnalyses:      2,
		MaxIterations:    2,
		MaxFixAttempts:   2,
		OutputHome:       t.TempDir(),
	}
}

func TestRunWritesArtifacts(t *testing.T) {
	rt := &scriptedRuntime{}
	a, err := agent.New(rt, fixtureOptions(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Cleanup()

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	entries, err := os.ReadDir(a.OutputDir())
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	var artifacts int
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "analysis_") {
			artifacts++
		}
	}
	if artifacts != 2 {
		t.Fatalf("got %d artifacts, want 2", artifacts)
	}
}

func TestRunRetriesTransientFailures(t *testing.T) {
	// First reply empty, second real: each analysis needs two attempts.
	rt := &scriptedRuntime{replies: []string{"", "## Fixed\nBody"}}
	opts := fixtureOptions(t)
	opts.NumAnalyses = 1
	a, err := agent.New(rt, opts)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Cleanup()

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if rt.calls != 2 {
		t.Fatalf("calls = %d, want 2", rt.calls)
	}
}

func TestRunFailsAfterFixAttempts(t *testing.T) {
	rt := &scriptedRuntime{err: errors.New("backend down")}
	opts := fixtureOptions(t)
	opts.NumAnalyses = 1
	a, err := agent.New(rt, opts)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Cleanup()

	if err := a.Run(context.Background()); err == nil {
		t.Fatal("expected run to fail")
	}
	if rt.calls != opts.MaxFixAttempts {
		t.Fatalf("calls = %d, want %d", rt.calls, opts.MaxFixAttempts)
	}
}

func TestNewRejectsMissingData(t *testing.T) {
	opts := fixtureOptions(t)
	opts.DataPath = filepath.Join(t.TempDir(), "absent.csv")
	if _, err := agent.New(&scriptedRuntime{}, opts); err == nil {
		t.Fatal("expected error for missing data file")
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	a, err := agent.New(&scriptedRuntime{}, fixtureOptions(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a.Cleanup()
	a.Cleanup()
}
