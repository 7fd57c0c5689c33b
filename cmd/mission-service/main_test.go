package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfig(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check-config", "--config", "."})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "service=mission-service")
	assert.Contains(t, out.String(), "credential=scoped")
}

func TestCheckConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mission.yaml"),
		[]byte("breaker:\n  default:\n    failure_rate_threshold: 0.5\n    minimum_number_of_calls: 99\n"), 0o600))

	cmd := rootCmd()
	cmd.SetArgs([]string{"check-config", "--config", dir})
	assert.Error(t, cmd.Execute())
}
