package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazybuddy/buddy/internal/metrics"
)

var (
	entriesDays  int
	entriesLimit int
	entriesJSON  bool
)

var entriesCmd = &cobra.Command{
	Use:   "entries <system>",
	Short: "List recent entries for a system, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		system := args[0]
		if !metrics.KnownSystem(system) {
			return &metrics.UnknownSystemError{System: system}
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		q := metrics.Query{Limit: entriesLimit}
		if entriesDays > 0 {
			q.StartDate = time.Now().AddDate(0, 0, -entriesDays).Format("2006-01-02")
		}
		entries := a.metrics.GetEntries(system, q)

		if entriesJSON {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Printf("no %s entries\n", system)
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %s", e.Timestamp, e.ID)
			for k, v := range e.Fields {
				fmt.Printf("  %s=%v", k, v)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	entriesCmd.Flags().IntVar(&entriesDays, "days", 0, "only entries from the last N days")
	entriesCmd.Flags().IntVar(&entriesLimit, "limit", 20, "maximum entries to show")
	entriesCmd.Flags().BoolVar(&entriesJSON, "json", false, "emit JSON instead of text")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
