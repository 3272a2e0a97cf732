package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var avgDays int

var avgCmd = &cobra.Command{
	Use:   "avg <system> <field>",
	Short: "Average a numeric field over recent days",
	Long: "Averages a numeric field across entries in the window, e.g.\n\n" +
		"  buddy avg health sleep_hours --days 7",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		avg, ok := a.metrics.CalculateAverage(args[0], args[1], avgDays)
		if !ok {
			fmt.Printf("no numeric %s.%s values in the last %d days\n", args[0], args[1], avgDays)
			return nil
		}
		fmt.Printf("%s.%s avg over %dd: %.2f\n", args[0], args[1], avgDays, avg)
		return nil
	},
}

func init() {
	avgCmd.Flags().IntVar(&avgDays, "days", 7, "window in days")
}
