package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show or update the personal context profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Print(a.context.Summary())
		fmt.Printf("\ncontext richness: %d/100\n", a.context.Richness())
		return nil
	},
}

var contextGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Read a context field by dot path (e.g. identity.name)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		value := a.context.GetField(args[0])
		if value == nil {
			fmt.Println("(unset)")
			return nil
		}
		return printJSON(value)
	},
}

var contextSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a context field by dot path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.context.UpdateField(args[0], parseValue(args[1]))
	},
}

var contextValueCmd = &cobra.Command{
	Use:   "add-value <value>",
	Short: "Add a core value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.context.AddCoreValue(args[0])
	},
}

var (
	goalTimeframe string

	contextGoalCmd = &cobra.Command{
		Use:   "add-goal <description>",
		Short: "Add a goal under a timeframe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return a.context.AddGoal(goalTimeframe, map[string]any{"description": args[0]})
		},
	}
)

var (
	habitCategory string

	contextHabitCmd = &cobra.Command{
		Use:   "add-habit <name>",
		Short: "Add a habit under a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return a.context.AddHabit(habitCategory, map[string]any{"name": args[0]})
		},
	}
)

var contextOnboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Mark onboarding complete",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.context.CompleteOnboarding()
	},
}

func init() {
	contextHabitCmd.Flags().StringVar(&habitCategory, "category", "building", "current, building, or want_to_build")
	contextGoalCmd.Flags().StringVar(&goalTimeframe, "timeframe", "short_term", "immediate, short_term, medium_term, or long_term")
	contextCmd.AddCommand(contextGetCmd)
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextValueCmd)
	contextCmd.AddCommand(contextGoalCmd)
	contextCmd.AddCommand(contextHabitCmd)
	contextCmd.AddCommand(contextOnboardCmd)
}
