// Package pipeline is the entry point for parsing bank statement files.
//
// A Pipeline detects the institution of each file, dispatches it to the
// registered parser and validates the result. Pipelines hold no mutable state
// and may be shared by any number of goroutines.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/detect"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/registry"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/validate"
)

// DefaultConcurrency is used by ParseFiles when concurrency is not positive
const DefaultConcurrency = 4

// File is one statement to parse in a batch
type File struct {
	Name          string
	Content       []byte
	AccountNumber string          // Optional; used for detection and when the file carries none
	BankHint      domain.BankCode // Optional; used when neither name nor account number is recognized
}

// FileResult pairs a batch input with its parse result
type FileResult struct {
	FileName string
	Result   *domain.BankStatementParseResult
}

// Pipeline orchestrates detection, parsing and validation
type Pipeline struct {
	registry *registry.Registry
	logger   logrus.FieldLogger
}

// New creates a pipeline over reg. A nil logger discards output.
func New(reg *registry.Registry, logger logrus.FieldLogger) (*Pipeline, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Pipeline{registry: reg, logger: logger}, nil
}

// ParseBankStatement detects the institution from fileName and parses content.
// It never returns nil; failures are reported in the result's Errors.
func (p *Pipeline) ParseBankStatement(ctx context.Context, content []byte, fileName string) *domain.BankStatementParseResult {
	return p.ParseBankStatementWithAccount(ctx, content, fileName, "")
}

// ParseBankStatementWithAccount is like ParseBankStatement but falls back to
// accountNumber for detection and uses it when the file carries no account number.
func (p *Pipeline) ParseBankStatementWithAccount(ctx context.Context, content []byte, fileName, accountNumber string) *domain.BankStatementParseResult {
	return p.parse(ctx, File{Name: fileName, Content: content, AccountNumber: accountNumber})
}

func (p *Pipeline) parse(ctx context.Context, f File) *domain.BankStatementParseResult {
	content, fileName, accountNumber := f.Content, f.Name, f.AccountNumber
	base := filepath.Base(fileName)
	log := p.logger.WithField("file", base)

	detection := detect.Detect(fileName, accountNumber)
	if !detection.Detected() && f.BankHint.Valid() {
		detection = domain.BankDetectionResult{
			BankCode:   f.BankHint,
			BankName:   domain.BankName(f.BankHint),
			Confidence: domain.ConfidenceMedium,
		}
	}
	if !detection.Detected() {
		log.Debug("bank detection failed")
		return domain.FailedResult(domain.BankCodeNone, "unsupported bank statement %q: could not detect bank from file name or account number", base)
	}
	log = log.WithField("bank", detection.BankCode)
	log.Debug("detected bank")

	statementParser, err := p.registry.Lookup(detection.BankCode)
	if err != nil {
		return domain.FailedResult(detection.BankCode, "%v", err)
	}

	result := p.safeParse(ctx, log, detection.BankCode, func() *domain.BankStatementParseResult {
		return statementParser.Parse(ctx, content)
	})

	if result.AccountNumber == "" && accountNumber != "" {
		result.AccountNumber = strings.TrimSpace(accountNumber)
	}

	v := validate.Enforce(result)
	log.WithFields(logrus.Fields{
		"transactions": len(result.Transactions),
		"errors":       len(result.Errors),
		"dropped":      len(v.Errors),
	}).Debug("parsed statement")
	return result
}

func (p *Pipeline) safeParse(ctx context.Context, log logrus.FieldLogger, bank domain.BankCode, parse func() *domain.BankStatementParseResult) (result *domain.BankStatementParseResult) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("stack", string(debug.Stack())).Errorf("parser panic: %v", r)
			result = domain.FailedResult(bank, "internal parser error: %v", r)
		}
	}()
	result = parse()
	if result == nil {
		result = domain.FailedResult(bank, "parser returned no result")
	}
	return result
}

// ParseFiles parses files with at most concurrency parses in flight.
// Results are returned in input order. Cancelling ctx stops queued files;
// each of them gets a result carrying the cancellation error.
func (p *Pipeline) ParseFiles(ctx context.Context, files []File, concurrency int) []FileResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, f := range files {
		results[i].FileName = f.Name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Result = domain.FailedResult(domain.BankCodeNone, "parse of %s not started: %v", f.Name, err)
				return nil
			}
			results[i].Result = p.parse(gctx, f)
			return nil
		})
	}
	_ = g.Wait() // workers never return an error

	return results
}
