package parser

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/tabular"
)

// Base runs the decode, header, filter and normalize loop shared by every layout.
// It holds no per-file state and is safe for concurrent use.
type Base struct {
	reader     tabular.Reader
	normalizer Normalizer
	opts       Options
	logger     logrus.FieldLogger
}

// NewBase creates a validated Base. A nil logger discards log output.
func NewBase(reader tabular.Reader, normalizer Normalizer, opts Options, logger logrus.FieldLogger) (*Base, error) {
	if reader == nil {
		return nil, fmt.Errorf("tabular reader cannot be nil")
	}
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer cannot be nil")
	}
	if opts.ScanWindow < 0 {
		return nil, fmt.Errorf("scan window cannot be negative: %d", opts.ScanWindow)
	}
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &Base{reader: reader, normalizer: normalizer, opts: opts, logger: logger}, nil
}

// Options returns the heuristics configuration
func (b *Base) Options() Options { return b.opts }

// Run parses content with layout. Decoding and header failures become a single
// file-level error; each bad row adds one "row N: ..." error and parsing continues.
func (b *Base) Run(ctx context.Context, content []byte, layout Layout) *domain.BankStatementParseResult {
	bank := layout.Bank()
	result := domain.NewParseResult(bank)
	log := b.logger.WithField("bank", bank)

	rows, err := b.reader.Read(content)
	if err != nil {
		result.AddError("failed to read statement: %v", err)
		return result
	}

	spec := layout.Header()
	header, warning, err := LocateHeader(rows, spec, b.opts)
	if err != nil {
		result.AddError("%v", err)
		return result
	}
	if warning != "" {
		result.AddError("%s", warning)
		log.Warn(warning)
	}
	log.WithFields(logrus.Fields{"header_row": header + 1, "rows": len(rows)}).Debug("Located header row")

	result.AccountNumber = layout.AccountNumber(rows[:min(header, len(rows))])

	var skipped int
	for i := header + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			result.AddError("parse cancelled at row %d: %v", i+1, err)
			break
		}

		row := rows[i]
		if row.IsBlank() || IsHeaderRepeat(row, spec) || IsFooterRow(row, layout.DateColumn()) {
			skipped++
			continue
		}

		txn, err := b.parseRow(layout, row, i+1)
		if errors.Is(err, ErrSkipRow) {
			skipped++
			continue
		}
		if err != nil {
			result.AddError("row %d: %v", i+1, err)
			continue
		}
		result.AddTransaction(*txn)
	}

	log.WithFields(logrus.Fields{
		"transactions": len(result.Transactions),
		"skipped":      skipped,
		"errors":       len(result.Errors),
	}).Debug("Parsed statement rows")
	return result
}

// parseRow extracts and normalizes one row. A panic in layout code fails only this row.
func (b *Base) parseRow(layout Layout, row tabular.Row, rowNumber int) (txn *domain.ParsedTransaction, err error) {
	defer func() {
		if r := recover(); r != nil {
			txn, err = nil, fmt.Errorf("unreadable row: %v", r)
		}
	}()

	rec, err := layout.Record(row, rowNumber)
	if err != nil {
		return nil, err
	}
	if IsDateGap(rec.Raw().Date) {
		return nil, ErrSkipRow
	}
	return b.normalizer.Normalize(layout.Bank(), rec)
}
