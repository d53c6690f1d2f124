package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephlewis42/myshell/core"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersion(t *testing.T) {
	for _, flag := range []string{"--version", "-v"} {
		t.Run(flag, func(t *testing.T) {
			assert.Equal(t, "Myshell, bash but worse, version 2.0.0\n", execute(t, flag))
		})
	}
}

func TestBuiltinsCommand(t *testing.T) {
	out := execute(t, "builtins")

	assert.Equal(t, strings.Join(core.BuiltinNames(), "\n")+"\n", out)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	execute(t, "--config", dir, "init")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "myshell", cfg.ShellName)
}
