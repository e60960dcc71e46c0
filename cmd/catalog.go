package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/panelscout/panelscout/internal/discovery"
)

var (
	catGlob    string
	catPrimary string
	catWorkers int
	catNoSave  bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <data-dir>",
	Short: "Discover tabular files in a directory and rank them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		glob := catGlob
		if !cmd.Flags().Changed("glob") && c.DataGlob != "" {
			glob = c.DataGlob
		}

		cat, err := discovery.Build(args[0], splitPatterns(glob), discovery.Options{Workers: catWorkers})
		if err != nil {
			return err
		}
		selected, err := cat.SelectPrimary(catPrimary)
		if err != nil {
			return err
		}

		printCatalog(cat)
		fmt.Printf("\n→ Primary: %s\n", selected)

		if catNoSave {
			return nil
		}
		path, err := cat.Save(c.LogDir, time.Now())
		if err != nil {
			return fmt.Errorf("save catalog: %w", err)
		}
		fmt.Printf("🗂  Saved dataset catalog → %s\n", path)
		return nil
	},
}

// printCatalog lists candidates best-first without disturbing the
// catalog's discovery order.
func printCatalog(cat *discovery.Catalog) {
	order := make([]*discovery.Candidate, 0, len(cat.Files))
	for i := range cat.Files {
		order = append(order, &cat.Files[i])
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.Readable() != b.Readable() {
			return a.Readable()
		}
		if a.Score == nil || b.Score == nil {
			return false
		}
		return *a.Score > *b.Score
	})

	fmt.Printf("Found %d candidate file(s) under %s\n\n", len(cat.Files), cat.DataDir)
	for _, f := range order {
		if !f.Readable() {
			fmt.Printf("  ✗ %-40s %s\n", filepath.Base(f.Path), f.Error)
			continue
		}
		fmt.Printf("  ✓ %-40s score=%.3f rows=%d cols=%d unit=%v time=%v treat=%v outcome=%v\n",
			filepath.Base(f.Path), *f.Score, *f.Rows, *f.Cols,
			f.Signals.HasUnit, f.Signals.HasTime, f.Signals.HasTreat, f.Signals.HasOutcome)
	}
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().StringVar(&catGlob, "glob", "*.csv,*.parquet,*.feather,*.dta", "comma-separated patterns to discover tabular files")
	catalogCmd.Flags().StringVar(&catPrimary, "primary", "", "explicit primary file (path or basename)")
	catalogCmd.Flags().IntVar(&catWorkers, "workers", 1, "concurrent file probes")
	catalogCmd.Flags().BoolVar(&catNoSave, "no-save", false, "print the catalog without persisting it")
}
