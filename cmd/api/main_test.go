package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func memoryEnv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("FILES_ROOT", root)
	t.Setenv("LOG_LEVEL", "error")
	return root
}

func TestCheck_MemoryStore(t *testing.T) {
	memoryEnv(t)

	out, err := run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "driver: memory")
	assert.Contains(t, out, "Connection OK")
}

func TestProvision_CreatesBucket(t *testing.T) {
	root := memoryEnv(t)

	out, err := run(t, "provision")
	require.NoError(t, err)
	assert.Contains(t, out, "Provisioning complete")

	info, err := os.Stat(filepath.Join(root, "question-attachment"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCheck_MissingSecret(t *testing.T) {
	memoryEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := run(t, "check")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestVote_RejectsBadDirection(t *testing.T) {
	_, err := run(t, "vote", "q1", "sideways", "--email", "a@example.com", "--password", "x")
	assert.ErrorContains(t, err, "invalid vote")
}
