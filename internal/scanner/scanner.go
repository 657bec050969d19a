// Package scanner discovers bank statement exports under a directory tree.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/detect"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
)

// Scanner walks directory tree and finds statement files
type Scanner struct {
	rootDir string
}

// New creates a new scanner for the given root directory
func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// Metadata holds the hints a file's location gives about its statement.
// Path structure: {root}/{bank}/{account}/{period?}/file.ext
type Metadata struct {
	FilePath      string
	Bank          domain.BankCode // From the bank directory; BankCodeNone when unrecognized
	AccountNumber string          // From the account directory when it looks like one
	Period        string          // YYYY-MM directory, if any
}

// ScanResult represents a found file with metadata
type ScanResult struct {
	Path     string
	Metadata Metadata
}

var statementExtensions = []string{".xlsx", ".xls", ".csv"}

var accountDirPattern = regexp.MustCompile(`^\d[\d\-]{7,}\d$`)

// Scan walks the directory tree and returns statement files in lexical path order
func (s *Scanner) Scan() ([]ScanResult, error) {
	var results []ScanResult

	rootDir := s.expandHome(s.rootDir)

	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories such as .git, but never the root itself
			if path != rootDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.isStatementFile(path) {
			return nil
		}

		results = append(results, ScanResult{
			Path:     path,
			Metadata: s.extractMetadata(path, rootDir),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	return results, nil
}

// isStatementFile checks if file is a spreadsheet export. Office lock files (~$name.xlsx) are ignored.
func (s *Scanner) isStatementFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(statementExtensions, strings.ToLower(filepath.Ext(base)))
}

// extractMetadata parses directory structure to extract bank and account hints
func (s *Scanner) extractMetadata(filePath, rootDir string) Metadata {
	relPath, err := filepath.Rel(rootDir, filePath)
	if err != nil {
		relPath = filePath
	}
	parts := strings.Split(filepath.ToSlash(relPath), "/")

	meta := Metadata{FilePath: filePath}

	// Bank (first directory)
	if len(parts) >= 2 {
		meta.Bank = detect.FromFileName(parts[0]).BankCode
	}

	// Account number (second directory)
	if len(parts) >= 3 && accountDirPattern.MatchString(parts[1]) {
		meta.AccountNumber = parts[1]
	}

	// Period (third directory, if it looks like a date)
	if len(parts) >= 4 && s.looksLikePeriod(parts[2]) {
		meta.Period = parts[2]
	}

	return meta
}

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}`)

// looksLikePeriod checks if string looks like a date period (YYYY-MM)
func (s *Scanner) looksLikePeriod(str string) bool {
	return periodPattern.MatchString(str)
}

// expandHome expands ~ to home directory
func (s *Scanner) expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
