// Package agent drives the iterative LLM analysis loop over the selected
// dataset and paper summary, writing one artifact per completed analysis.
package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/panelscout/panelscout/internal/ai"
	"github.com/panelscout/panelscout/internal/utils"
)

// Options configures one agent run. Zero values fall back to the
// reference defaults in New.
type Options struct {
	DataPath         string
	PaperSummaryPath string
	AnalysisName     string
	Model            string
	NumAnalyses      int
	MaxIterations    int
	MaxFixAttempts   int
	OutputHome       string
	LogHome          string
	PromptDir        string
	SelfCritique     bool
	Documentation    bool
	LogPrompts       bool

	// Schema hints for econ datasets; any may be empty.
	Outcome   string
	Treatment string
	TimeVar   string
	UnitVar   string
	ClusterSE string
}

// Agent runs a fixed number of analyses, each refined over a bounded
// number of iterations.
type Agent struct {
	rt        ai.Runtime
	opts      Options
	runID     string
	summary   string
	outDir    string
	workDir   string
	promptSeq int
}

// New resolves inputs eagerly so configuration problems surface before
// any model call is made.
func New(rt ai.Runtime, opts Options) (*Agent, error) {
	if _, err := os.Stat(opts.DataPath); err != nil {
		return nil, fmt.Errorf("data file: %w", err)
	}
	summary, err := os.ReadFile(opts.PaperSummaryPath)
	if err != nil {
		return nil, fmt.Errorf("paper summary: %w", err)
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if opts.AnalysisName == "" {
		opts.AnalysisName = "analysis"
	}
	if opts.NumAnalyses <= 0 {
		opts.NumAnalyses = 8
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 6
	}
	if opts.MaxFixAttempts <= 0 {
		opts.MaxFixAttempts = 3
	}
	if opts.OutputHome == "" {
		opts.OutputHome = "."
	}
	if opts.LogHome == "" {
		opts.LogHome = "."
	}

	workDir, err := os.MkdirTemp("", "panelscout-run-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Agent{
		rt:      rt,
		opts:    opts,
		runID:   uuid.NewString(),
		summary: string(summary),
		outDir:  filepath.Join(opts.OutputHome, opts.AnalysisName),
		workDir: workDir,
	}, nil
}

// RunID identifies this run in artifact names.
func (a *Agent) RunID() string { return a.runID }

// OutputDir is where completed analysis artifacts land.
func (a *Agent) OutputDir() string { return a.outDir }

// Run executes the analysis loop: for each analysis, draft a plan from
// the paper summary and dataset, then refine it over up to MaxIterations
// critique rounds. Transient model failures are retried MaxFixAttempts
// times per step before the run fails.
func (a *Agent) Run(ctx context.Context) error {
	if err := os.MkdirAll(a.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var completed []string
	for i := 1; i <= a.opts.NumAnalyses; i++ {
		draft, err := a.generate(ctx, a.proposePrompt(i, completed))
		if err != nil {
			return fmt.Errorf("analysis %d: %w", i, err)
		}

		if a.opts.SelfCritique {
			for iter := 1; iter < a.opts.MaxIterations; iter++ {
				revised, err := a.generate(ctx, a.critiquePrompt(draft))
				if err != nil {
					return fmt.Errorf("analysis %d iteration %d: %w", i, iter, err)
				}
				if revised == "" || revised == draft {
					break
				}
				draft = revised
			}
		}

		name := fmt.Sprintf("analysis_%02d_%s.md", i, a.runID)
		if err := utils.SafeWriteFile(filepath.Join(a.outDir, name), []byte(draft)); err != nil {
			return fmt.Errorf("write analysis %d: %w", i, err)
		}
		completed = append(completed, firstLine(draft))
	}

	if a.opts.Documentation {
		if err := a.writeRunDoc(completed); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup removes the scratch directory. It is safe to call more than
// once and is expected to run even when Run fails.
func (a *Agent) Cleanup() {
	if a.workDir != "" {
		_ = os.RemoveAll(a.workDir)
		a.workDir = ""
	}
}

// generate calls the model, retrying empty responses and transient errors
// up to MaxFixAttempts times.
func (a *Agent) generate(ctx context.Context, prompt string) (string, error) {
	if a.opts.LogPrompts {
		a.logPrompt(prompt)
	}
	req := ai.GenerateRequest{
		Model: a.opts.Model,
		Messages: []ai.Message{
			{Role: "system", Content: a.systemPrompt()},
			{Role: "user", Content: prompt},
		},
	}
	var lastErr error
	for attempt := 1; attempt <= a.opts.MaxFixAttempts; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		resp, err := a.rt.Generate(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if out := strings.TrimSpace(resp.Content()); out != "" {
			return out, nil
		}
		lastErr = fmt.Errorf("model returned empty response")
	}
	return "", lastErr
}

func (a *Agent) logPrompt(prompt string) {
	dir := filepath.Join(a.opts.LogHome, "prompt_logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	a.promptSeq++
	name := fmt.Sprintf("prompt_%s_%02d.txt", a.runID, a.promptSeq)
	_ = utils.SafeWriteFile(filepath.Join(dir, name), []byte(prompt))
}

func (a *Agent) writeRunDoc(completed []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\nRun %s over %s\n\n", a.opts.AnalysisName, a.runID, filepath.Base(a.opts.DataPath))
	for i, title := range completed {
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
	}
	path := filepath.Join(a.outDir, fmt.Sprintf("run_%s.md", a.runID))
	if err := utils.SafeWriteFile(path, []byte(b.String())); err != nil {
		return fmt.Errorf("write run doc: %w", err)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(strings.TrimLeft(s, "# "))
}
