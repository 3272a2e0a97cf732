package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Mine the markdown vault for insights, themes, and activity",
}

var notesInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show vault location, note count, and folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		info := a.vault.GetInfo()
		fmt.Printf("%s (%s): %d notes, %d folders\n", info.Name, info.Path, info.NoteCount, len(info.Folders))
		for _, folder := range info.Folders {
			fmt.Printf("  %s/\n", folder)
		}
		if plugins := a.vault.InstalledPlugins(); len(plugins) > 0 {
			fmt.Printf("plugins: %s\n", strings.Join(plugins, ", "))
		}
		return nil
	},
}

var notesGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the vault's note-link graph as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return printJSON(a.analyzer.KnowledgeGraph())
	},
}

var notesInsightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Extract goals, habits, challenges, values, and learnings from notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		insights := a.analyzer.ExtractInsights(nil)
		if len(insights) == 0 {
			fmt.Println("no insights found")
			return nil
		}
		for _, ins := range insights {
			fmt.Printf("[%s] %.2f  %s  (%s)\n", ins.Type, ins.Confidence, ins.Content, ins.SourceNote)
		}
		return nil
	},
}

var notesThemesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Show the most frequent tags across the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		for _, theme := range a.analyzer.ExtractThemes(10) {
			fmt.Printf("%-20s %3d notes\n", theme.Name, theme.Frequency)
		}
		return nil
	},
}

var notesActivityDays int

var notesActivityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Summarize recent vault activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		act := a.analyzer.RecentActivity(notesActivityDays)
		fmt.Printf("notes in last %dd: %d (%s activity)\n", notesActivityDays, act.NoteCount, act.ActivityLevel)
		if len(act.FocusAreas) > 0 {
			fmt.Printf("focus areas: %s\n", strings.Join(act.FocusAreas, ", "))
		}
		return nil
	},
}

var notesRelatedCmd = &cobra.Command{
	Use:   "related <topic>",
	Short: "Find notes related to a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		for _, note := range a.analyzer.RelatedNotes(strings.Join(args, " "), 10) {
			fmt.Printf("%s  (%s)\n", note.Name, note.Path)
		}
		return nil
	},
}

func init() {
	notesActivityCmd.Flags().IntVar(&notesActivityDays, "days", 7, "window in days")
	notesCmd.AddCommand(notesInfoCmd)
	notesCmd.AddCommand(notesGraphCmd)
	notesCmd.AddCommand(notesInsightsCmd)
	notesCmd.AddCommand(notesThemesCmd)
	notesCmd.AddCommand(notesActivityCmd)
	notesCmd.AddCommand(notesRelatedCmd)
}
