package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/output"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/stats"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		fromFile string
		account  string
	)

	cmd := &cobra.Command{
		Use:   "stats [files...]",
		Short: "Summarize transactions: totals, monthly buckets and categories",
		Long: `Stats parses the given statement files, or reads a JSON results file
written by "bankstmt parse" (--from), and reports totals, monthly buckets
and per-category breakdowns over all of their transactions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.statsInput(cmd, args, fromFile, account)
			if err != nil {
				return err
			}

			var txns []domain.ParsedTransaction
			for _, r := range results {
				txns = append(txns, r.Transactions...)
			}
			return output.WriteJSON(cmd.OutOrStdout(), stats.NewReport(txns))
		},
	}
	cmd.Flags().StringVar(&fromFile, "from", "", "JSON results file from bankstmt parse")
	cmd.Flags().StringVar(&account, "account", "", "account number (detection fallback)")
	cmd.Flags().String("rules", "", "category rules file (default: embedded rules)")
	return cmd
}

func (a *app) statsInput(cmd *cobra.Command, args []string, fromFile, account string) ([]*domain.BankStatementParseResult, error) {
	if fromFile != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--from cannot be combined with statement files")
		}
		results, err := output.LoadResults(fromFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load results %s: %w", fromFile, err)
		}
		return results, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("pass statement files or --from with a results file")
	}

	files, err := a.collectFiles(args, parseFlags{account: account})
	if err != nil {
		return nil, err
	}
	batch, err := readContents(files)
	if err != nil {
		return nil, err
	}
	p, err := a.pipeline()
	if err != nil {
		return nil, err
	}

	var results []*domain.BankStatementParseResult
	for _, fr := range p.ParseFiles(cmd.Context(), batch, a.cfg.Parse.Concurrency) {
		for _, e := range fr.Result.Errors {
			a.logger.WithField("file", fr.FileName).Warn(e)
		}
		results = append(results, fr.Result)
	}
	return results, nil
}
