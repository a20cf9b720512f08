package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storageState = `{"cookies":[{"name":"SID","value":"sid-value","domain":".google.com","path":"/"}]}`

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	statePath := filepath.Join(home, "storage_state.json")
	require.NoError(t, os.WriteFile(statePath, []byte(storageState), 0o600))

	stdout, stderr, err := runNBLM(t, binaryPath, home, "auth", "import", statePath)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Imported 1 Google cookies")

	stdout, stderr, err = runNBLM(t, binaryPath, home, "task", "list")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "No recorded tasks.")

	stdout, stderr, err = runNBLM(t, binaryPath, home, "rpc", "methods")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "CREATE_ARTIFACT")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "nblm-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/nblm")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build nblm binary: %s", string(output))
	return binaryPath
}

func runNBLM(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home, "PATH=")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
