package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		level   logrus.Level
		wantErr bool
	}{
		{"defaults", Config{}, logrus.InfoLevel, false},
		{"debug text", Config{Level: "debug", Format: TextFormat}, logrus.DebugLevel, false},
		{"upper case", Config{Level: "WARN", Format: "JSON"}, logrus.WarnLevel, false},
		{"bad level", Config{Level: "loud"}, 0, true},
		{"bad format", Config{Format: "xml"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.level, logger.GetLevel())
		})
	}
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: JSONFormat, Output: &buf})
	require.NoError(t, err)

	logger.WithField("bank", "HANA").Info("parsed statement")
	logger.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "parsed statement", entry["msg"])
	assert.Equal(t, "HANA", entry["bank"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}
