package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeDays int

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run correlation analysis and note pattern detection",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		days := analyzeDays
		if days <= 0 {
			days = a.cfg.Analysis.WindowDays
		}

		results := a.engine.Analyze(days)
		if len(results) == 0 {
			fmt.Println("no correlations found (need at least 3 overlapping tracked days per pair)")
		}
		for _, r := range results {
			fmt.Printf("%s <-> %s: %s (strength %.2f, %s)\n",
				r.Systems[0], r.Systems[1], r.Pattern, r.Strength, r.Direction)
			for _, ev := range r.Evidence {
				fmt.Printf("    %s\n", ev)
			}
		}

		report := a.detector.RunFullAnalysis()
		fmt.Printf("\npatterns detected: %d\n", len(report.Patterns))
		for _, p := range report.Patterns {
			fmt.Printf("  [%s] %s\n", p.Type, p.Description)
		}
		for _, rec := range report.Recommendations {
			fmt.Printf("  -> %s\n", rec)
		}

		if err := a.context.RecordInteraction(map[string]any{
			"type":         "analysis",
			"correlations": len(results),
			"patterns":     len(report.Patterns),
		}); err != nil {
			a.log.Warn("CONTEXT", "failed to record analysis interaction")
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeDays, "days", 0, "correlation window in days (default from config)")
}
