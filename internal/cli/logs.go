package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	logsDate  string
	logsLines int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent log lines, or a full day with --date",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if logsDate != "" {
			content := a.log.LogsForDate(logsDate)
			if content == "" {
				fmt.Printf("no logs for %s\n", logsDate)
				return nil
			}
			fmt.Print(content)
			return nil
		}

		for _, line := range a.log.RecentLines(logsLines) {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().StringVar(&logsDate, "date", "", "show logs for a YYYY-MM-DD date")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 20, "number of recent lines")
}
