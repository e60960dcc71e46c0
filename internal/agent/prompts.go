package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultSystemPrompt = "You are an empirical economics research assistant. You design and refine " +
	"reproducible analyses (OLS/FE, DID/event-study, IV) over a tabular dataset, " +
	"grounded in a paper summary. Always state the specification, the variables " +
	"used, and the robustness checks."

const defaultProposePrompt = `Paper summary:
%s

Dataset file: %s
%s
Already completed analyses:
%s

Propose analysis #%d as a Markdown document: a one-line title, the research
question it extends, the exact specification, and the steps to run it on
the dataset. Do not repeat a completed analysis.`

const defaultCritiquePrompt = `Review the analysis below for specification errors, missing controls,
and clarity. Return the improved document in full; if nothing should
change, return it unchanged.

%s`

// systemPrompt prefers an operator-provided template from the prompt dir.
func (a *Agent) systemPrompt() string {
	return a.loadPrompt("system", defaultSystemPrompt)
}

func (a *Agent) proposePrompt(n int, completed []string) string {
	done := "(none)"
	if len(completed) > 0 {
		done = "- " + strings.Join(completed, "\n- ")
	}
	return fmt.Sprintf(a.loadPrompt("propose", defaultProposePrompt),
		a.summary, a.opts.DataPath, a.schemaHints(), done, n)
}

func (a *Agent) critiquePrompt(draft string) string {
	return fmt.Sprintf(a.loadPrompt("critique", defaultCritiquePrompt), draft)
}

// schemaHints renders the operator-declared column roles, when given.
func (a *Agent) schemaHints() string {
	var lines []string
	for _, h := range []struct{ label, value string }{
		{"outcome", a.opts.Outcome},
		{"treatment", a.opts.Treatment},
		{"time variable", a.opts.TimeVar},
		{"unit variable", a.opts.UnitVar},
		{"cluster SEs on", a.opts.ClusterSE},
	} {
		if h.value != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", h.label, h.value))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "Known dataset schema:\n" + strings.Join(lines, "\n") + "\n"
}

// loadPrompt reads <name>.txt from the prompt dir, falling back to the
// built-in template when the dir or file is absent.
func (a *Agent) loadPrompt(name, fallback string) string {
	if a.opts.PromptDir == "" {
		return fallback
	}
	b, err := os.ReadFile(filepath.Join(a.opts.PromptDir, name+".txt"))
	if err != nil || len(strings.TrimSpace(string(b))) == 0 {
		return fallback
	}
	return string(b)
}
