package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func clientFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("fuel", pflag.ContinueOnError)
	ClientFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadClient_CreatesDefaultFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fuel-tracker")

	c, err := LoadClient(dir, clientFlagSet(t))
	require.NoError(t, err)
	require.Equal(t, "localhost:8443", c.Addr)
	require.Equal(t, 30*time.Second, c.Timeout)

	_, err = os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
}

func TestLoadClient_Precedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("addr: file:1\nplaintext: true\ntimeout: 5s\n"), 0o600))

	c, err := LoadClient(dir, clientFlagSet(t))
	require.NoError(t, err)
	require.Equal(t, "file:1", c.Addr)
	require.True(t, c.Plaintext)
	require.Equal(t, 5*time.Second, c.Timeout)

	t.Setenv("FUEL_ADDR", "env:2")
	c, err = LoadClient(dir, clientFlagSet(t))
	require.NoError(t, err)
	require.Equal(t, "env:2", c.Addr)

	c, err = LoadClient(dir, clientFlagSet(t, "--addr", "flag:3"))
	require.NoError(t, err)
	require.Equal(t, "flag:3", c.Addr)
}

func TestLoadClient_Invalid(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadClient(dir, clientFlagSet(t, "--insecure", "--plaintext"))
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("addr: [unclosed\n"), 0o600))
	_, err = LoadClient(dir, clientFlagSet(t))
	require.Error(t, err)
}
