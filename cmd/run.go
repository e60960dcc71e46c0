package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/panelscout/panelscout/internal/agent"
	"github.com/panelscout/panelscout/internal/ai"
	cfgpkg "github.com/panelscout/panelscout/internal/config"
	"github.com/panelscout/panelscout/internal/discovery"
	"github.com/panelscout/panelscout/internal/paper"
)

var (
	runDataPath    string
	runDataDir     string
	runDataGlob    string
	runPrimaryFile string
	runCatalogOnly bool
	runPaperPDF    string

	runAnalysisName   string
	runModelName      string
	runNumAnalyses    int
	runMaxIterations  int
	runMaxFixAttempts int
	runOutputHome     string
	runLogHome        string
	runPromptDir      string

	runNoSelfCritique  bool
	runNoDocumentation bool
	runLogPrompts      bool

	runOutcome   string
	runTreatment string
	runTimeVar   string
	runUnitVar   string
	runClusterSE string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis pipeline over a dataset and paper",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		applyRunOverrides(c, cmd.Flags())
		if c.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		rt := newRuntime(c)
		ctx := cmd.Context()

		// Paper context first: a run without it is useless.
		if _, err := os.Stat(runPaperPDF); err != nil {
			return fmt.Errorf("paper PDF not found: %s", runPaperPDF)
		}
		fmt.Println("📄 Extracting text from paper PDF...")
		text, err := paper.ExtractText(runPaperPDF)
		if err != nil {
			return err
		}
		fmt.Println("🧾 Summarizing paper content...")
		summary, err := paper.Summarize(ctx, rt, c.SummaryModel, text)
		if err != nil {
			return err
		}
		summaryPath, err := paper.SaveSummary(c.LogDir, summary, time.Now())
		if err != nil {
			return fmt.Errorf("save paper summary: %w", err)
		}
		fmt.Printf("📝 Saved extracted paper summary → %s\n", summaryPath)

		dataPath, err := resolveDataset(c)
		if err != nil {
			return err
		}
		if runCatalogOnly {
			fmt.Println("Catalog-only mode: exiting without running analyses.")
			return nil
		}

		fmt.Println("🚀 Starting analysis agent")
		fmt.Printf("   Data file: %s\n", dataPath)
		fmt.Printf("   Paper summary: %s\n", summaryPath)
		fmt.Printf("   Analysis name: %s\n", runAnalysisName)
		fmt.Printf("   Model: %s\n", c.Model)
		fmt.Printf("   Number of analyses: %d\n", c.NumAnalyses)
		fmt.Printf("   Max iterations: %d\n", c.MaxIterations)

		a, err := agent.New(rt, agent.Options{
			DataPath:         dataPath,
			PaperSummaryPath: summaryPath,
			AnalysisName:     runAnalysisName,
			Model:            c.Model,
			NumAnalyses:      c.NumAnalyses,
			MaxIterations:    c.MaxIterations,
			MaxFixAttempts:   c.MaxFixAttempts,
			OutputHome:       c.OutputHome,
			LogHome:          c.LogHome,
			PromptDir:        c.PromptDir,
			SelfCritique:     !runNoSelfCritique,
			Documentation:    !runNoDocumentation,
			LogPrompts:       runLogPrompts,
			Outcome:          runOutcome,
			Treatment:        runTreatment,
			TimeVar:          runTimeVar,
			UnitVar:          runUnitVar,
			ClusterSE:        runClusterSE,
		})
		if err != nil {
			return err
		}
		defer a.Cleanup()

		fmt.Println("🔬 Running analyses...")
		if err := a.Run(ctx); err != nil {
			return fmt.Errorf("analysis run: %w", err)
		}
		fmt.Printf("✓ Analysis complete! Artifacts in %s\n", a.OutputDir())
		return nil
	},
}

// resolveDataset picks the dataset either directly (--data-path) or by
// discovery over --data-dir. Catalog persistence failure only warns: the
// catalog is a diagnostic artifact, not a correctness dependency.
func resolveDataset(c *cfgpkg.Global) (string, error) {
	if runDataDir == "" {
		if runDataPath == "" {
			return "", fmt.Errorf("either --data-path or --data-dir is required")
		}
		if _, err := os.Stat(runDataPath); err != nil {
			return "", fmt.Errorf("data file not found: %s", runDataPath)
		}
		return runDataPath, nil
	}

	patterns := splitPatterns(runDataGlob)
	cat, err := discovery.Build(runDataDir, patterns, discovery.Options{Workers: c.SampleWorkers})
	if err != nil {
		return "", err
	}
	debugf("cataloged %d files under %s", len(cat.Files), cat.DataDir)

	selected, err := cat.SelectPrimary(runPrimaryFile)
	if err != nil {
		return "", err
	}
	if path, err := cat.Save(c.LogDir, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to save dataset catalog: %v\n", err)
	} else {
		fmt.Printf("🗂  Saved dataset catalog → %s\n", path)
	}
	return selected, nil
}

// splitPatterns parses the comma-separated glob list, dropping blanks.
func splitPatterns(glob string) []string {
	var out []string
	for _, p := range strings.Split(glob, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyRunOverrides copies changed run flags over the loaded config so a
// single value feeds both the agent and the log output.
func applyRunOverrides(c *cfgpkg.Global, f *pflag.FlagSet) {
	if f.Changed("model-name") {
		c.Model = runModelName
	}
	if f.Changed("num-analyses") {
		c.NumAnalyses = runNumAnalyses
	}
	if f.Changed("max-iterations") {
		c.MaxIterations = runMaxIterations
	}
	if f.Changed("max-fix-attempts") {
		c.MaxFixAttempts = runMaxFixAttempts
	}
	if f.Changed("output-home") {
		c.OutputHome = runOutputHome
	}
	if f.Changed("log-home") {
		c.LogHome = runLogHome
	}
	if f.Changed("prompt-dir") {
		c.PromptDir = runPromptDir
	}
	if !f.Changed("data-glob") && c.DataGlob != "" {
		runDataGlob = c.DataGlob
	}
}

func newRuntime(c *cfgpkg.Global) *ai.Client {
	return ai.NewClient(
		c.APIKey,
		time.Duration(c.HTTPTimeoutSec)*time.Second,
		c.RetryMaxAttempts,
		time.Duration(c.RetryBaseDelayMs)*time.Millisecond,
		time.Duration(c.RetryMaxDelayMs)*time.Millisecond,
	)
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDataPath, "data-path", "", "path to tabular dataset (csv, parquet, feather, dta)")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "directory containing multiple data files (replication package); overrides --data-path")
	runCmd.Flags().StringVar(&runDataGlob, "data-glob", "*.csv,*.parquet,*.feather,*.dta", "comma-separated patterns to discover tabular files under --data-dir")
	runCmd.Flags().StringVar(&runPrimaryFile, "primary-file", "", "explicit primary file within --data-dir (path or basename)")
	runCmd.Flags().BoolVar(&runCatalogOnly, "catalog-only", false, "with --data-dir, only build and save a dataset catalog and exit")

	runCmd.Flags().StringVar(&runPaperPDF, "paper-pdf", "", "path to research paper PDF (required)")
	_ = runCmd.MarkFlagRequired("paper-pdf")

	runCmd.Flags().StringVar(&runAnalysisName, "analysis-name", "covid19", "name for the analysis")
	runCmd.Flags().StringVar(&runModelName, "model-name", "o3-mini", "model name for the analysis loop")
	runCmd.Flags().IntVar(&runNumAnalyses, "num-analyses", 8, "number of analyses to run")
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 6, "maximum iterations per analysis")
	runCmd.Flags().IntVar(&runMaxFixAttempts, "max-fix-attempts", 3, "maximum fix attempts per step")
	runCmd.Flags().StringVar(&runOutputHome, "output-home", ".", "home directory for outputs")
	runCmd.Flags().StringVar(&runLogHome, "log-home", ".", "home directory for logs")
	runCmd.Flags().StringVar(&runPromptDir, "prompt-dir", "prompts", "directory containing prompt templates")

	runCmd.Flags().BoolVar(&runNoSelfCritique, "no-self-critique", false, "disable self-critique")
	runCmd.Flags().BoolVar(&runNoDocumentation, "no-documentation", false, "disable run documentation")
	runCmd.Flags().BoolVar(&runLogPrompts, "log-prompts", false, "enable prompt logging")

	runCmd.Flags().StringVar(&runOutcome, "outcome", "", "outcome variable column name")
	runCmd.Flags().StringVar(&runTreatment, "treatment", "", "treatment indicator column name")
	runCmd.Flags().StringVar(&runTimeVar, "time-var", "", "time variable column name for panels/event studies")
	runCmd.Flags().StringVar(&runUnitVar, "unit-var", "", "unit identifier column name for panels")
	runCmd.Flags().StringVar(&runClusterSE, "cluster-se", "", "column name for clustering standard errors")
}
