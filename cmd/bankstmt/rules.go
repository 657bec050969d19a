package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the categorization rules",
	}
	cmd.PersistentFlags().String("rules", "", "category rules file (default: embedded rules)")
	cmd.AddCommand(newRulesListCmd(a), newRulesTestCmd(a))
	return cmd
}

func newRulesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.rulesEngine()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PRIORITY\tNAME\tMATCH\tDIRECTION\tPATTERN\tCATEGORY")
			for _, r := range engine.GetRules() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.Priority, r.Name, r.MatchType, r.Direction, r.Pattern, r.Category)
			}
			d := engine.Defaults()
			fmt.Fprintf(tw, "-\tdefault income\t-\tdeposit\t-\t%s\n", d.Income)
			fmt.Fprintf(tw, "-\tdefault expense\t-\twithdrawal\t-\t%s\n", d.Expense)
			return tw.Flush()
		},
	}
}

func newRulesTestCmd(a *app) *cobra.Command {
	var deposit, withdrawal int64

	cmd := &cobra.Command{
		Use:   "test <description>",
		Short: "Show the category a description would get",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (deposit > 0) == (withdrawal > 0) {
				return fmt.Errorf("exactly one of --deposit and --withdrawal must be positive")
			}
			engine, err := a.rulesEngine()
			if err != nil {
				return err
			}

			rule := "(default)"
			if m, ok := engine.Match(args[0], deposit, withdrawal); ok {
				rule = m.RuleName
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", engine.Categorize(args[0], deposit, withdrawal), rule)
			return nil
		},
	}
	cmd.Flags().Int64Var(&deposit, "deposit", 0, "deposit amount")
	cmd.Flags().Int64Var(&withdrawal, "withdrawal", 0, "withdrawal amount")
	return cmd
}
