package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	APIKey       string `mapstructure:"api_key" yaml:"api_key"`
	Model        string `mapstructure:"model" yaml:"model"`
	SummaryModel string `mapstructure:"summary_model" yaml:"summary_model"`

	// Discovery
	DataGlob      string `mapstructure:"data_glob" yaml:"data_glob"`
	SampleWorkers int    `mapstructure:"sample_workers" yaml:"sample_workers"`

	// Analysis loop
	NumAnalyses    int    `mapstructure:"num_analyses" yaml:"num_analyses"`
	MaxIterations  int    `mapstructure:"max_iterations" yaml:"max_iterations"`
	MaxFixAttempts int    `mapstructure:"max_fix_attempts" yaml:"max_fix_attempts"`
	OutputHome     string `mapstructure:"output_home" yaml:"output_home"`
	LogHome        string `mapstructure:"log_home" yaml:"log_home"`
	PromptDir      string `mapstructure:"prompt_dir" yaml:"prompt_dir"`

	// Where catalog and paper-summary artifacts are written.
	LogDir string `mapstructure:"log_dir" yaml:"log_dir"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.panelscout/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".panelscout")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("PANELSCOUT")
	v.AutomaticEnv()
	// The OpenAI convention wins for the key when set.
	_ = v.BindEnv("api_key", "OPENAI_API_KEY", "PANELSCOUT_API_KEY")

	// Defaults mirror the pipeline's reference behavior.
	v.SetDefault("model", "o3-mini")
	v.SetDefault("summary_model", "gpt-4o-mini")
	v.SetDefault("data_glob", "*.csv,*.parquet,*.feather,*.dta")
	v.SetDefault("sample_workers", 1)
	v.SetDefault("num_analyses", 8)
	v.SetDefault("max_iterations", 6)
	v.SetDefault("max_fix_attempts", 3)
	v.SetDefault("output_home", ".")
	v.SetDefault("log_home", ".")
	v.SetDefault("prompt_dir", "prompts")
	v.SetDefault("log_dir", "logs")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".panelscout"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
