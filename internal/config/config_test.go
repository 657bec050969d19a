package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/parser"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, parser.DefaultScanWindow, cfg.Header.ScanWindow)
	assert.False(t, cfg.Header.Fallback)
	assert.Empty(t, cfg.Rules.File)
	assert.Equal(t, 4, cfg.Parse.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "json", cfg.Output.Format)

	assert.Equal(t, parser.Options{ScanWindow: 15}, cfg.ParserOptions())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bankstmt.yaml")
	content := `header:
  scan_window: 30
  fallback: true
rules:
  file: /etc/bankstmt/rules.yaml
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Header.ScanWindow)
	assert.True(t, cfg.Header.Fallback)
	assert.Equal(t, "/etc/bankstmt/rules.yaml", cfg.Rules.File)
	assert.Equal(t, "debug", cfg.Logging().Level)
	assert.Equal(t, 4, cfg.Parse.Concurrency, "unset keys keep defaults")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("BANKSTMT_HEADER_FALLBACK", "true")
	t.Setenv("BANKSTMT_PARSE_CONCURRENCY", "8")
	t.Setenv("BANKSTMT_OUTPUT_FORMAT", "csv")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.True(t, cfg.Header.Fallback)
	assert.Equal(t, 8, cfg.Parse.Concurrency)
	assert.Equal(t, "csv", cfg.Output.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{"scan window", "header.scan_window", 0, "header.scan_window"},
		{"concurrency", "parse.concurrency", -1, "parse.concurrency"},
		{"log level", "log.level", "loud", "log:"},
		{"output format", "output.format", "xml", "output.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.value)
			_, err := Load(v, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
