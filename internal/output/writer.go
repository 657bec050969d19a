// Package output serializes parse results and reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
)

// Format selects the serialization of parse results
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatOFX  Format = "ofx"
)

// ParseFormat validates a format name (case-insensitive)
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatOFX:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (expected json, csv or ofx)", s)
	}
}

// WriteOptions configures where output goes
type WriteOptions struct {
	MergeMode bool   // JSON results only: append to the results already in FilePath
	FilePath  string // Output path (empty = stdout)
}

// WriteJSON serializes v as JSON with 2-space indentation
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteResults serializes results in the given format. OFX output holds a
// single statement, so it requires exactly one result.
func WriteResults(w io.Writer, format Format, results []*domain.BankStatementParseResult) error {
	switch format {
	case FormatJSON, "":
		if results == nil {
			results = []*domain.BankStatementParseResult{}
		}
		return WriteJSON(w, results)
	case FormatCSV:
		return WriteCSV(w, results)
	case FormatOFX:
		if len(results) != 1 {
			return fmt.Errorf("ofx output requires exactly one statement, got %d", len(results))
		}
		return WriteOFX(w, results[0])
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteToFile runs write against stdout or the file named by opts
func WriteToFile(opts WriteOptions, write func(io.Writer) error) (err error) {
	if write == nil {
		return fmt.Errorf("write function cannot be nil")
	}

	if opts.FilePath == "" {
		return write(os.Stdout)
	}

	f, err := os.Create(opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.FilePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", opts.FilePath, closeErr)
		}
	}()

	if err = write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.FilePath, err)
	}
	return nil
}

// WriteResultsToFile writes results per opts. In merge mode the results
// already stored at opts.FilePath are kept ahead of the new ones.
func WriteResultsToFile(opts WriteOptions, format Format, results []*domain.BankStatementParseResult) error {
	if opts.MergeMode && opts.FilePath != "" {
		if format != FormatJSON {
			return fmt.Errorf("merge mode requires json output, got %s", format)
		}
		existing, err := LoadResults(opts.FilePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to load existing results for merge: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Warning: merge mode requested but %s does not exist, creating new file\n", opts.FilePath)
		} else {
			results = append(existing, results...)
		}
	}

	return WriteToFile(opts, func(w io.Writer) error {
		return WriteResults(w, format, results)
	})
}

// LoadResults reads a JSON results file written by WriteResults
func LoadResults(filePath string) ([]*domain.BankStatementParseResult, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	f, err := os.Open(filePath)
	if err != nil {
		// Unwrapped so callers can check os.IsNotExist
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", filePath, closeErr)
		}
	}()

	var results []*domain.BankStatementParseResult
	if err := json.NewDecoder(f).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode results JSON: %w", err)
	}
	return results, nil
}
