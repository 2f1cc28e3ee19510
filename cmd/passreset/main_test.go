package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliTestConfig = `
core:
  log:
    level: error
  mail:
    host: 127.0.0.1
    port: 1
    from: noreply@example.com
  reset:
    production_url: https://example.com/auth/prod
`

func writeCLIConfig(t *testing.T) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), "passreset.yaml")
	require.NoError(t, os.WriteFile(file, []byte(cliTestConfig), 0600))

	return file
}

func execute(t *testing.T, stdin string, args ...string) (int, string) {
	t.Helper()

	c := newCLI()
	c.stdin = strings.NewReader(stdin)

	var out bytes.Buffer
	cmd := newRootCmd(c)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()
	if err == nil {
		return exitCodeSuccess, out.String()
	}

	return exitCode(err), out.String() + err.Error()
}

func TestCLIUsageErrors(t *testing.T) {
	code, _ := execute(t, "", "request")
	assert.Equal(t, exitCodeUsage, code)

	code, _ = execute(t, "", "consume", "token", "--unknown")
	assert.Equal(t, exitCodeUsage, code)

	code, out := execute(t, "", "consume", "token", "--config", writeCLIConfig(t))
	assert.Equal(t, exitCodeUsage, code)
	assert.Contains(t, out, "password must not be empty")
}

func TestCLIRequestUnknownAccount(t *testing.T) {
	code, out := execute(t, "", "request", "nobody@example.com", "--config", writeCLIConfig(t))
	assert.Equal(t, 3, code)
	assert.Contains(t, out, "not found")
}

func TestCLIConsumeInvalidToken(t *testing.T) {
	code, out := execute(t, "new-password\n", "consume", "missing", "--config", writeCLIConfig(t))
	assert.Equal(t, 6, code)
	assert.Contains(t, out, "Invalid reset key.")
}

func TestCLISweep(t *testing.T) {
	code, out := execute(t, "", "sweep", "--config", writeCLIConfig(t))
	assert.Equal(t, exitCodeSuccess, code)
	assert.Contains(t, out, "cleared 0 expired tokens")
}

func TestCLIInvalidConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "passreset.yaml")
	require.NoError(t, os.WriteFile(file, []byte("core:\n  reset:\n    environment: preview\n"), 0600))

	code, _ := execute(t, "", "sweep", "--config", file)
	assert.Equal(t, exitCodeFailedStartup, code)
}

func TestReadPassword(t *testing.T) {
	c := newCLI()
	c.stdin = strings.NewReader("s3cret\r\nignored\n")

	password, err := c.readPassword("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)

	file := filepath.Join(t.TempDir(), "pw")
	require.NoError(t, os.WriteFile(file, []byte("from-file"), 0600))

	password, err = c.readPassword(file)
	require.NoError(t, err)
	assert.Equal(t, "from-file", password)
}
