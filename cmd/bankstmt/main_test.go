package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/stats"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/tabular/tabulartest"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/ui"
)

// run executes the CLI with args and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := ui.Output
	ui.Output = io.Discard
	t.Cleanup(func() { ui.Output = prev })

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

// runWithStatus is run but also returns the colored status lines, uncolored
func runWithStatus(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var status bytes.Buffer
	prevOut, prevNoColor := ui.Output, color.NoColor
	t.Cleanup(func() { ui.Output, color.NoColor = prevOut, prevNoColor })

	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(io.Discard)
	ui.Output, color.NoColor = &status, true
	err := root.ExecuteContext(context.Background())
	return stdout.String(), status.String(), err
}

func writeHana(t *testing.T, dir, name string) string {
	t.Helper()
	content := tabulartest.XLSX(t,
		[]any{"하나은행 거래내역조회"},
		[]any{"계좌번호", "620-123456-78901"},
		nil,
		[]any{"거래일시", "적요", "의뢰인/수취인", "출금액", "입금액", "거래후잔액", "구분", "거래점"},
		[]any{"2024-01-15 10:30:00", "급여", "(주)하나상사", "", "100000", "100000", "입금", "본점"},
		[]any{"2024-01-20 14:00", "관리비", "관리사무소", "50000", "", "50000", "출금", ""},
	)
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestParse_JSON(t *testing.T) {
	path := writeHana(t, t.TempDir(), "하나은행_2024.xlsx")

	out, err := run(t, "parse", path)
	require.NoError(t, err)

	var results []domain.BankStatementParseResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, domain.BankCodeHana, results[0].BankCode)
	assert.Len(t, results[0].Transactions, 2)
	assert.Empty(t, results[0].Errors)
}

func TestParse_CSVFormatFlag(t *testing.T) {
	path := writeHana(t, t.TempDir(), "hana.xlsx")

	out, err := run(t, "parse", "--format", "csv", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,bank_code"))
}

func TestParse_OFXToFile(t *testing.T) {
	dir := t.TempDir()
	path := writeHana(t, dir, "hana.xlsx")
	outPath := filepath.Join(dir, "out.ofx")

	_, err := run(t, "parse", "--format", "ofx", "-o", outPath, path)
	require.NoError(t, err)
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<CURDEF>KRW")
}

func TestParse_Dir(t *testing.T) {
	dir := t.TempDir()
	writeHana(t, dir, filepath.Join("hana", "620-123456-78901", "export.xlsx"))
	writeHana(t, dir, filepath.Join("misc", "하나_b.xlsx"))

	out, err := run(t, "parse", "--dir", dir, "--concurrency", "2")
	require.NoError(t, err)

	var results []domain.BankStatementParseResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, domain.BankCodeHana, r.BankCode)
	}

	out, err = run(t, "parse", "--dir", dir, "--dry-run")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestParse_StatusLines(t *testing.T) {
	dir := t.TempDir()
	path := writeHana(t, dir, "hana.xlsx")
	outPath := filepath.Join(dir, "results.json")

	_, status, err := runWithStatus(t, "parse", "--dry-run", path)
	require.NoError(t, err)
	assert.Contains(t, status, "• Dry run: 1 files would be parsed")

	_, status, err = runWithStatus(t, "parse", "-o", outPath, path)
	require.NoError(t, err)
	assert.Contains(t, status, "hana.xlsx")
	assert.Contains(t, status, "• Wrote 1 results to "+outPath)

	_, status, err = runWithStatus(t, "parse", "--merge", "-o", outPath, path)
	require.NoError(t, err)
	assert.Contains(t, status, "• Merged 1 results to "+outPath)

	_, status, err = runWithStatus(t, "parse", "-q", "--dry-run", path)
	require.NoError(t, err)
	assert.Empty(t, status)
}

func TestParse_UnknownBankFails(t *testing.T) {
	path := writeHana(t, t.TempDir(), "statement.xlsx")

	out, err := run(t, "parse", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 files could not be parsed")

	// Results are still written so the reason is visible
	var results []domain.BankStatementParseResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Len(t, results[0].Errors, 1)
}

func TestParse_Errors(t *testing.T) {
	_, err := run(t, "parse")
	assert.Error(t, err)

	_, err = run(t, "parse", "--format", "xml", "hana.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")

	_, err = run(t, "parse", filepath.Join(t.TempDir(), "missing_hana.xlsx"))
	assert.Error(t, err)
}

func TestParse_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeHana(t, dir, "hana.xlsx")
	cfgPath := filepath.Join(dir, "bankstmt.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  format: csv\n"), 0o644))

	out, err := run(t, "--config", cfgPath, "parse", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "id,bank_code"))
}

func TestDetect(t *testing.T) {
	out, err := run(t, "detect", "NH농협_거래내역.xls", "other.xlsx")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "NONGHYUP", got[0]["bankCode"])
	assert.Equal(t, "high", got[0]["confidence"])
	assert.Equal(t, "low", got[1]["confidence"])

	out, err = run(t, "detect", "--account", "501-12-345678")
	require.NoError(t, err)
	assert.Contains(t, out, "JEONBUK")
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	path := writeHana(t, dir, "hana.xlsx")

	out, err := run(t, "stats", path)
	require.NoError(t, err)

	var report stats.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, int64(100000), report.Summary.TotalDeposit)
	assert.Equal(t, int64(50000), report.Summary.TotalWithdrawal)
	assert.Equal(t, int64(50000), report.Summary.NetChange)
	assert.Equal(t, int64(50000), report.Summary.FinalBalance)
	require.Len(t, report.Monthly, 1)
	assert.Equal(t, "2024-01", report.Monthly[0].Month)

	// Stats over a saved results file gives the same report
	resultsPath := filepath.Join(dir, "results.json")
	_, err = run(t, "parse", "-q", "-o", resultsPath, path)
	require.NoError(t, err)
	fromOut, err := run(t, "stats", "--from", resultsPath)
	require.NoError(t, err)
	assert.JSONEq(t, out, fromOut)

	_, err = run(t, "stats")
	assert.Error(t, err)
}

func TestRules(t *testing.T) {
	out, err := run(t, "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "PRIORITY")
	assert.Contains(t, out, "salary")

	out, err = run(t, "rules", "test", "3월 급여", "--deposit", "3000000")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "salary\t"))

	out, err = run(t, "rules", "test", "알수없음", "--withdrawal", "1000")
	require.NoError(t, err)
	assert.Equal(t, "other_expense\t(default)\n", out)

	_, err = run(t, "rules", "test", "급여")
	assert.Error(t, err)
}

func TestRules_CustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `defaults:
  income: other_income
  expense: other_expense
rules:
  - name: "Coffee"
    pattern: "스타벅스"
    match_type: "contains"
    priority: 500
    category: "food"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, err := run(t, "rules", "test", "--rules", path, "스타벅스 강남", "--withdrawal", "5000")
	require.NoError(t, err)
	assert.Equal(t, "food\tCoffee\n", out)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bankstmt version "+version)
}
