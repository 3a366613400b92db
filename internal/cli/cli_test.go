package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := BuildCLI()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRun_ReplaysScenario(t *testing.T) {
	cfgPath := writeFile(t, "config.yml", `
step_cost_us: 0
log:
  level: error
scenario:
  - priority: low
    steps: 5
  - priority: immediate
    steps: 3
  - priority: normal
    steps: 0
`)
	csvPath := filepath.Join(t.TempDir(), "events.csv")

	stdout, _, err := execute(t, "run", "--config", cfgPath, "--csv", csvPath)
	require.NoError(t, err)

	glyphs := strings.TrimSpace(stdout)
	assert.Len(t, glyphs, 8)
	assert.Equal(t, 5, strings.Count(glyphs, "L"))
	assert.Equal(t, 3, strings.Count(glyphs, "I"))

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Finish")
	assert.Contains(t, string(data), "Idle")
}

func TestRun_VerbosePrintsEvents(t *testing.T) {
	cfgPath := writeFile(t, "config.yml", `
step_cost_us: 0
log:
  level: error
scenario:
  - priority: user_blocking
    steps: 2
`)

	stdout, stderr, err := execute(t, "run", "-c", cfgPath, "-v")
	require.NoError(t, err)

	assert.Equal(t, "UU\n", stdout)
	assert.Contains(t, stderr, "Enqueued")
	assert.Contains(t, stderr, "Dispatch")
	assert.Contains(t, stderr, "Finish")
}

func TestRun_BadConfig(t *testing.T) {
	cfgPath := writeFile(t, "config.yml", `
scenario:
  - priority: urgent
    steps: 1
`)

	_, _, err := execute(t, "run", "-c", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", stdout)
}
