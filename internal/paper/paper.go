// Package paper turns a research paper PDF into a short empirical-economics
// summary artifact that guides the downstream analysis loop.
package paper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/panelscout/panelscout/internal/ai"
	"github.com/panelscout/panelscout/internal/utils"
)

// maxPromptChars caps how much raw paper text goes into the summary prompt.
const maxPromptChars = 120_000

// fallbackChars is how much raw text stands in when the model returns nothing.
const fallbackChars = 5_000

const summarySystemPrompt = "You write concise, structured empirical economics summaries."

const summaryInstruction = "You are an empirical economics assistant. Summarize the paper succinctly, focusing on: " +
	"research question, dataset(s), key variables (likely outcome, treatment, time, unit), " +
	"identification strategy (e.g., OLS/FE, DID/event-study, IV), and any notable caveats. " +
	"Return a clear 10-15 sentence summary that can guide downstream analysis.\n\n" +
	"Paper text begins:\n"

// ExtractText pulls plain text from every page of a PDF. Pages that fail
// to decode are skipped; only a fully empty result is an error.
func ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	out := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if out == "" {
		return "", errors.New("no text extracted from pdf")
	}
	return out, nil
}

// Summarize asks the model for an empirical-econ summary of the paper
// text. A blank model response falls back to the leading raw text so a
// run never proceeds without paper context.
func Summarize(ctx context.Context, rt ai.Runtime, model, text string) (string, error) {
	req := ai.GenerateRequest{
		Model: model,
		Messages: []ai.Message{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: summaryInstruction + utils.TruncateChars(text, maxPromptChars)},
		},
	}
	resp, err := rt.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("summarize paper: %w", err)
	}
	summary := strings.TrimSpace(resp.Content())
	if summary == "" {
		summary = utils.TruncateChars(text, fallbackChars)
	}
	return summary, nil
}

// SaveSummary writes the summary as a timestamped artifact under dir and
// returns its path.
func SaveSummary(dir, summary string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir summary dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("paper_summary_extracted_%s.txt", utils.Timestamp(now)))
	if err := utils.SafeWriteFile(path, []byte(summary)); err != nil {
		return "", err
	}
	return path, nil
}
