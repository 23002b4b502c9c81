package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/XRed8X/PDB-Engine/internal/config"
)

func TestNewWritesJSONToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	log, err := New(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("engine call", zap.String("command", "ProteinDesign"))
	require.NoError(t, log.Sync())

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(body), `"msg":"engine call"`)
	require.Contains(t, string(body), `"command":"ProteinDesign"`)
}

func TestNewGatesBelowConfiguredLevel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(config.LogConfig{Level: "warn", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("quiet")
	log.Warn("loud")
	require.NoError(t, log.Sync())

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(body), "quiet")
	require.Contains(t, string(body), "loud")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New(config.LogConfig{Level: "chatty", File: filepath.Join(t.TempDir(), "a.log")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "chatty")
}
