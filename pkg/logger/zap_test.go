package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	dir := t.TempDir()
	log, err := New(Options{Service: "tracking-api", Dir: dir, Production: true})
	require.NoError(t, err)

	log.Info("shipment created")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "tracking-api.log"))
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.Contains(line, `"msg":"shipment created"`), line)
	assert.True(t, strings.Contains(line, `"service":"tracking-api"`), line)
}

func TestNew_ProductionSkipsDebug(t *testing.T) {
	dir := t.TempDir()
	log, err := New(Options{Service: "svc", Dir: dir, Production: true})
	require.NoError(t, err)

	log.Debug("hidden")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "svc.log"))
	if err == nil {
		assert.NotContains(t, string(data), "hidden")
	}
}

func TestNew_StdoutOnly(t *testing.T) {
	log, err := New(Options{Service: "svc"})
	require.NoError(t, err)
	assert.NotNil(t, log)
}
