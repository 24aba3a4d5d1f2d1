package commands_test

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "txengine-test-*")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(tmpDir, "txengine")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/txengine")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		os.RemoveAll(tmpDir)
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func runTxengine(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(binaryPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func TestBinary_WritesSnapshotToStdout(t *testing.T) {
	stdout, _, err := runTxengine(t, filepath.Join("..", "..", "testdata", "chargeback_negative.csv"))
	require.NoError(t, err)
	assert.Equal(t, "client,available,held,total,locked\n1,-75,0,-75,true\n2,74.4446,0,74.4446,false\n", stdout)
}

func TestBinary_LogsGoToStderr(t *testing.T) {
	stdout, stderr, err := runTxengine(t, "--log-level", "info", filepath.Join("..", "..", "testdata", "simple.csv"))
	require.NoError(t, err)
	assert.NotContains(t, stdout, "run complete")
	assert.Contains(t, stderr, "run complete")
}

func TestBinary_MissingInputExitsNonZero(t *testing.T) {
	stdout, stderr, err := runTxengine(t, filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "opening input")
}
