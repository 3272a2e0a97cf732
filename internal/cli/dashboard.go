package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var dashboardDays int

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Cross-system summary for the recent window",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		d := a.metrics.GetDashboard(dashboardDays)

		fmt.Printf("=== Dashboard (%s) ===\n", d.Period)
		fmt.Printf("tracking days: %d, total entries: %d, correlations: %d\n\n",
			d.TrackingDays, d.TotalEntries, d.Correlations)

		systems := make([]string, 0, len(d.Systems))
		for name := range d.Systems {
			systems = append(systems, name)
		}
		sort.Strings(systems)
		for _, name := range systems {
			s := d.Systems[name]
			fmt.Printf("%-10s %3d entries (%.1f/day)\n", name, s.TotalEntries, s.EntriesPerDay)
		}

		if len(d.RecentInsights) > 0 {
			fmt.Println("\nRecent insights:")
			for _, ins := range d.RecentInsights {
				fmt.Printf("  - %s\n", ins.Content)
			}
		}
		return nil
	},
}

func init() {
	dashboardCmd.Flags().IntVar(&dashboardDays, "days", 7, "window in days")
}
