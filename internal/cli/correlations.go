package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazybuddy/buddy/internal/metrics"
)

var correlationsCmd = &cobra.Command{
	Use:   "correlations",
	Short: "List discovered and confirmed correlations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		printCorrelations("Discovered", a.metrics.DiscoveredCorrelations())
		printCorrelations("Confirmed", a.metrics.ConfirmedCorrelations())
		return nil
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <correlation-id>",
	Short: "Promote a discovered correlation to confirmed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.metrics.ConfirmCorrelation(args[0]); err != nil {
			return err
		}
		fmt.Printf("confirmed %s\n", args[0])
		return nil
	},
}

func init() {
	correlationsCmd.AddCommand(confirmCmd)
}

func printCorrelations(heading string, cs []metrics.Correlation) {
	fmt.Printf("%s (%d):\n", heading, len(cs))
	for _, c := range cs {
		fmt.Printf("  %s  %s: %s (%.2f %s, %s)\n",
			c.ID, strings.Join(c.Systems, " <-> "), c.Pattern, c.Strength, c.Direction, c.Status)
	}
	fmt.Println()
}
