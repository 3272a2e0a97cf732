package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazybuddy/buddy/internal/metrics"
)

var trackCmd = &cobra.Command{
	Use:   "track <system> <field>=<value> [<field>=<value>...]",
	Short: "Record a metric entry for one of the five systems",
	Long: "Records a timestamped entry under one of: " + strings.Join(metrics.Systems, ", ") + ".\n" +
		"Values parse as numbers or booleans when they look like one, otherwise\n" +
		"they are stored as strings:\n\n" +
		"  buddy track health sleep_hours=7.5 exercise=true notes=\"morning run\"",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFields(args[1:])
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.metrics.AddEntry(args[0], fields)
		if err != nil {
			return err
		}
		fmt.Printf("recorded %s entry %s (%s)\n", entry.System, entry.ID, entry.Date)
		return nil
	},
}

// parseFields converts k=v arguments into typed values. Numbers and
// booleans are recognized; everything else stays a string.
func parseFields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected <field>=<value>, got %q", arg)
		}
		fields[key] = parseValue(raw)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("at least one field is required")
	}
	return fields, nil
}

func parseValue(raw string) any {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
