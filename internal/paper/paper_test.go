package paper_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/panelscout/panelscout/internal/ai"
	"github.com/panelscout/panelscout/internal/paper"
)

type stubRuntime struct {
	reply string
	err   error
	req   *ai.GenerateRequest
}

func (s *stubRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	s.req = &req
	if s.err != nil {
		return nil, s.err
	}
	return &ai.GenerateResponse{
		Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: s.reply}}},
	}, nil
}

func TestSummarize(t *testing.T) {
	rt := &stubRuntime{reply: "The paper studies a county-level policy change."}
	out, err := paper.Summarize(context.Background(), rt, "gpt-4o-mini", "long paper text")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if out != "The paper studies a county-level policy change." {
		t.Fatalf("unexpected summary: %q", out)
	}
	if rt.req.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q", rt.req.Model)
	}
	if len(rt.req.Messages) != 2 || rt.req.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", rt.req.Messages)
	}
	if !strings.Contains(rt.req.Messages[1].Content, "long paper text") {
		t.Fatal("paper text missing from prompt")
	}
}

func TestSummarizeBlankReplyFallsBack(t *testing.T) {
	rt := &stubRuntime{reply: "   "}
	out, err := paper.Summarize(context.Background(), rt, "gpt-4o-mini", "raw paper body")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if out != "raw paper body" {
		t.Fatalf("expected raw-text fallback, got %q", out)
	}
}

func TestSummarizePropagatesRuntimeError(t *testing.T) {
	rt := &stubRuntime{err: errors.New("backend down")}
	if _, err := paper.Summarize(context.Background(), rt, "m", "text"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSaveSummary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	now := time.Date(2024, 8, 15, 9, 30, 0, 0, time.UTC)
	path, err := paper.SaveSummary(dir, "summary text", now)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "paper_summary_extracted_20240815_093000.txt" {
		t.Fatalf("unexpected artifact name: %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "summary text" {
		t.Fatalf("content = %q", b)
	}
}

func TestExtractTextMissingFile(t *testing.T) {
	if _, err := paper.ExtractText(filepath.Join(t.TempDir(), "absent.pdf")); err == nil {
		t.Fatal("expected error for missing pdf")
	}
}
