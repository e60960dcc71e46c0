package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/panelscout/panelscout/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := config.Load(cfgFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Model != "o3-mini" || c.SummaryModel != "gpt-4o-mini" {
		t.Fatalf("model defaults wrong: %q / %q", c.Model, c.SummaryModel)
	}
	if c.DataGlob != "*.csv,*.parquet,*.feather,*.dta" {
		t.Fatalf("data_glob default wrong: %q", c.DataGlob)
	}
	if c.NumAnalyses != 8 || c.MaxIterations != 6 || c.MaxFixAttempts != 3 {
		t.Fatalf("loop defaults wrong: %+v", c)
	}
	if c.LogDir != "logs" {
		t.Fatalf("log_dir default wrong: %q", c.LogDir)
	}
}

func TestLoadReadsAPIKeyFromOpenAIEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := config.Load(cfgFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.APIKey != "sk-test" {
		t.Fatalf("api key = %q, want sk-test", c.APIKey)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	in := &config.Global{Model: "gpt-4o", DataGlob: "*.csv", LogDir: "artifacts"}
	if err := config.Save(in, cfgFile); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := config.Load(cfgFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Model != "gpt-4o" || out.DataGlob != "*.csv" || out.LogDir != "artifacts" {
		t.Fatalf("round trip lost values: %+v", out)
	}
}
