package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/output"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/pipeline"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/scanner"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/ui"
)

// MaxFileSize bounds the size of a single statement file read into memory
const MaxFileSize = 64 << 20

type parseFlags struct {
	dir        string
	account    string
	outputFile string
	merge      bool
	dryRun     bool
	quiet      bool
}

func newParseCmd(a *app) *cobra.Command {
	var f parseFlags

	cmd := &cobra.Command{
		Use:   "parse [files...]",
		Short: "Parse statement files into canonical transactions",
		Long: `Parse detects the bank of each file from its name (or --account), parses
it and writes the results as JSON (default), CSV or OFX.

With --dir, every .xlsx, .xls and .csv file below the directory is parsed.
The first directory level may name the bank and the second the account
number: {dir}/{bank}/{account}/{period}/file.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runParse(cmd, args, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.dir, "dir", "", "scan directory for statement files")
	flags.StringVar(&f.account, "account", "", "account number (detection fallback, and for exports without one)")
	flags.StringVarP(&f.outputFile, "output", "o", "", "output file (default: stdout)")
	flags.BoolVar(&f.merge, "merge", false, "append to the results already in the JSON output file")
	flags.BoolVar(&f.dryRun, "dry-run", false, "list the files that would be parsed")
	flags.BoolVarP(&f.quiet, "quiet", "q", false, "suppress status lines")
	flags.String("format", "", "output format: json, csv or ofx")
	flags.Bool("header-fallback", false, "use the default header row when no header is found (adds a warning)")
	flags.Int("scan-window", 0, "rows searched for the header")
	flags.String("rules", "", "category rules file (default: embedded rules)")
	flags.Int("concurrency", 0, "files parsed in parallel")
	return cmd
}

func (a *app) runParse(cmd *cobra.Command, args []string, f parseFlags) error {
	format, err := output.ParseFormat(a.cfg.Output.Format)
	if err != nil {
		return err
	}

	files, err := a.collectFiles(args, f)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no statement files given\n\nPass file paths or --dir with a directory containing .xlsx, .xls or .csv exports")
	}

	if f.dryRun {
		for _, file := range files {
			fmt.Fprintln(cmd.OutOrStdout(), file.Name)
		}
		if !f.quiet {
			ui.Info(fmt.Sprintf("Dry run: %d files would be parsed", len(files)))
		}
		return nil
	}

	if !f.quiet {
		ui.Header("Parsing Bank Statements")
		ui.Step(1, 2, fmt.Sprintf("Parsing %d files", len(files)))
	}

	p, err := a.pipeline()
	if err != nil {
		return err
	}
	batch, err := readContents(files)
	if err != nil {
		return err
	}
	fileResults := p.ParseFiles(cmd.Context(), batch, a.cfg.Parse.Concurrency)

	results := make([]*domain.BankStatementParseResult, len(fileResults))
	failed := 0
	for i, fr := range fileResults {
		results[i] = fr.Result
		if len(fr.Result.Transactions) == 0 && fr.Result.HasErrors() {
			failed++
		}
		if !f.quiet {
			ui.Statement(filepath.Base(fr.FileName), fr.Result.BankName, len(fr.Result.Transactions), len(fr.Result.Errors))
		}
		for _, e := range fr.Result.Errors {
			a.logger.WithField("file", fr.FileName).Debug(e)
		}
	}

	if !f.quiet {
		ui.Step(2, 2, "Writing output")
	}
	opts := output.WriteOptions{FilePath: f.outputFile, MergeMode: f.merge}
	if f.outputFile == "" {
		if err := output.WriteResults(cmd.OutOrStdout(), format, results); err != nil {
			return err
		}
	} else {
		if err := output.WriteResultsToFile(opts, format, results); err != nil {
			return err
		}
		if !f.quiet {
			verb := "Wrote"
			if f.merge {
				verb = "Merged"
			}
			ui.Info(fmt.Sprintf("%s %d results to %s", verb, len(results), f.outputFile))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be parsed", failed, len(files))
	}
	if !f.quiet {
		ui.Success("Done")
	}
	return nil
}

// collectFiles resolves positional paths and the scan directory into batch inputs.
// Contents are read later.
func (a *app) collectFiles(args []string, f parseFlags) ([]pipeline.File, error) {
	var files []pipeline.File
	for _, path := range args {
		files = append(files, pipeline.File{Name: path, AccountNumber: f.account})
	}

	if f.dir != "" {
		found, err := scanner.New(f.dir).Scan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", f.dir, err)
		}
		for _, r := range found {
			account := r.Metadata.AccountNumber
			if f.account != "" {
				account = f.account
			}
			files = append(files, pipeline.File{
				Name:          r.Path,
				AccountNumber: account,
				BankHint:      r.Metadata.Bank,
			})
		}
		a.logger.WithField("files", len(found)).Debug("scanned directory")
	}
	return files, nil
}

func readContents(files []pipeline.File) ([]pipeline.File, error) {
	out := make([]pipeline.File, len(files))
	for i, file := range files {
		info, err := os.Stat(file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory (use --dir to scan it)", file.Name)
		}
		if info.Size() > MaxFileSize {
			return nil, fmt.Errorf("%s is too large (%d bytes, limit %d)", file.Name, info.Size(), MaxFileSize)
		}
		content, err := os.ReadFile(file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		file.Content = content
		out[i] = file
	}
	return out, nil
}
