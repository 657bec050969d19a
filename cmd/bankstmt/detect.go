package main

import (
	"github.com/spf13/cobra"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/detect"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/output"
)

type detection struct {
	FileName      string `json:"fileName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	domain.BankDetectionResult
}

func newDetectCmd(a *app) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "detect [files...]",
		Short: "Show which bank each file name (or --account) maps to",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out []detection
			if len(args) == 0 {
				out = append(out, detection{
					AccountNumber:       account,
					BankDetectionResult: detect.FromAccountNumber(account),
				})
			}
			for _, name := range args {
				out = append(out, detection{
					FileName:            name,
					AccountNumber:       account,
					BankDetectionResult: detect.Detect(name, account),
				})
			}
			a.logger.WithField("inputs", len(out)).Debug("detection complete")
			return output.WriteJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "account number")
	return cmd
}
