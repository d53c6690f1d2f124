package core

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephlewis42/myshell/core/config"
	"github.com/josephlewis42/myshell/core/shell"
)

// callBuiltin runs a builtin directly with buffered streams.
func callBuiltin(s *Shell, args ...string) (status int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	stdio := shell.IO{
		Stdin:  strings.NewReader(""),
		Stdout: &out,
		Stderr: &errOut,
	}
	status = s.RunBuiltin(args, stdio)
	return status, out.String(), errOut.String()
}

func newTestShell(environ ...string) *Shell {
	return NewShell(config.Default(), [3]*os.File{}, environ)
}

func TestAllBuiltins(t *testing.T) {
	expected := []string{".", "alias", "help", "mcd", "mecho", "merrno", "mexit", "mexport", "mpwd"}
	assert.Equal(t, expected, BuiltinNames())

	for _, name := range BuiltinNames() {
		t.Run(name, func(t *testing.T) {
			sh := newTestShell()
			assert.True(t, sh.IsBuiltin(name))
			assert.NotEmpty(t, builtinDescriptions[name])

			status, stdout, _ := callBuiltin(sh, name, "--help")
			assert.Equal(t, 0, status)
			assert.True(t, strings.HasPrefix(stdout, "usage: "), stdout)
			assert.False(t, sh.Exited(), "help must not exit")
		})
	}
}

func TestBuiltin_badFlag(t *testing.T) {
	status, stdout, stderr := callBuiltin(newTestShell(), "mpwd", "--bogus")

	assert.Equal(t, 2, status)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "usage: mpwd")
}

func TestRunBuiltin_unknown(t *testing.T) {
	status, _, stderr := callBuiltin(newTestShell(), "ls")

	assert.Equal(t, 1, status)
	assert.Equal(t, "myshell: ls: not a builtin\n", stderr)
}

func TestMerrno(t *testing.T) {
	sh := newTestShell()
	sh.LastStatus = 13

	_, stdout, _ := callBuiltin(sh, "merrno")
	assert.Equal(t, "13\n", stdout)

	_, stdout, _ = callBuiltin(sh, "merrno", "-v")
	assert.Equal(t, "13 EACCES\n", stdout)

	sh.LastStatus = 0
	_, stdout, _ = callBuiltin(sh, "merrno", "-v")
	assert.Equal(t, "0\n", stdout)
}

func TestMcd(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(wd) })

	home := t.TempDir()
	sub := filepath.Join(home, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	sh := newTestShell("HOME=" + home)

	t.Run("dir", func(t *testing.T) {
		status, _, stderr := callBuiltin(sh, "mcd", sub)
		require.Equal(t, 0, status, stderr)

		_, stdout, _ := callBuiltin(sh, "mpwd")
		assert.Equal(t, sh.Env.Get(EnvPWD)+"\n", stdout)
		assert.Equal(t, "sub", filepath.Base(sh.Env.Get(EnvPWD)))
	})

	t.Run("home", func(t *testing.T) {
		status, _, _ := callBuiltin(sh, "mcd")
		require.Equal(t, 0, status)

		got, err := os.Getwd()
		require.NoError(t, err)
		want, err := filepath.EvalSymlinks(home)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("missing", func(t *testing.T) {
		status, _, stderr := callBuiltin(sh, "mcd", filepath.Join(home, "missing"))
		assert.Equal(t, 1, status)
		assert.Contains(t, stderr, "no such file or directory")
	})

	t.Run("too many", func(t *testing.T) {
		status, _, stderr := callBuiltin(sh, "mcd", "a", "b")
		assert.Equal(t, 1, status)
		assert.Equal(t, "mcd: too many arguments\n", stderr)
	})

	t.Run("no home", func(t *testing.T) {
		status, _, stderr := callBuiltin(newTestShell(), "mcd")
		assert.Equal(t, 1, status)
		assert.Equal(t, "mcd: HOME not set\n", stderr)
	})
}

func TestMecho(t *testing.T) {
	cases := map[string]struct {
		args []string
		want string
	}{
		"no args":    {args: nil, want: "\n"},
		"joined":     {args: []string{"a", "b"}, want: "a b\n"},
		"no newline": {args: []string{"-n", "a"}, want: "a"},
		"escapes":    {args: []string{"-e", `a\tb\x41\0101`}, want: "a\tbAA\n"},
		"raw":        {args: []string{`a\tb`}, want: `a\tb` + "\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			args := append([]string{"mecho"}, tc.args...)
			status, stdout, _ := callBuiltin(newTestShell(), args...)

			assert.Equal(t, 0, status)
			assert.Equal(t, tc.want, stdout)
		})
	}
}

func TestMexport(t *testing.T) {
	sh := newTestShell("B=2", "A=1")
	sh.Locals.Set("local", "value")

	status, _, _ := callBuiltin(sh, "mexport", "local", "NEW=x", "EMPTY")
	assert.Equal(t, 0, status)
	assert.Equal(t, "value", sh.Env.Get("local"))
	assert.Equal(t, "x", sh.Env.Get("NEW"))
	assert.Equal(t, "x", sh.Locals.Get("NEW"))

	_, ok := sh.Env.Lookup("EMPTY")
	assert.True(t, ok)

	_, stdout, _ := callBuiltin(sh, "mexport")
	assert.Equal(t, "A=1\nB=2\nEMPTY=\nNEW=x\nlocal=value\n", stdout)

	status, _, stderr := callBuiltin(sh, "mexport", "1bad")
	assert.Equal(t, 1, status)
	assert.Contains(t, stderr, "not a valid identifier")
}

func TestMexport_remove(t *testing.T) {
	sh := newTestShell("EDITOR=vi", "KEEP=1")
	sh.Locals.Set("EDITOR", "ed")

	status, _, _ := callBuiltin(sh, "mexport", "-n", "EDITOR", "PAGER")
	assert.Equal(t, 0, status)

	_, exported := sh.Env.Lookup("EDITOR")
	assert.False(t, exported)
	assert.Equal(t, "ed", sh.Locals.Get("EDITOR"))
	assert.Equal(t, []string{"KEEP=1"}, sh.Env.Environ())

	callBuiltin(sh, "mexport", "-n", "KEEP")
	assert.Empty(t, sh.Env.Environ())
	assert.Equal(t, "1", sh.Locals.Get("KEEP"), "the value stays visible to the shell")
}

func TestAssignLocal_updatesExported(t *testing.T) {
	sh := newTestShell("EDITOR=vi")

	status := sh.AssignLocal("EDITOR=ed", shell.IO{})
	assert.Equal(t, 0, status)
	assert.Equal(t, "ed", sh.Env.Get("EDITOR"))
	assert.Equal(t, "ed", sh.Locals.Get("EDITOR"))

	sh.AssignLocal("plain=1", shell.IO{})
	_, exported := sh.Env.Lookup("plain")
	assert.False(t, exported)
}

func TestMexit(t *testing.T) {
	cases := map[string]struct {
		args       []string
		wantStatus int
		wantExit   bool
	}{
		"last status":  {args: nil, wantStatus: 5, wantExit: true},
		"code":         {args: []string{"7"}, wantStatus: 7, wantExit: true},
		"wraps":        {args: []string{"257"}, wantStatus: 1, wantExit: true},
		"not a number": {args: []string{"x"}, wantStatus: 2, wantExit: true},
		"too many":     {args: []string{"1", "2"}, wantStatus: 1, wantExit: false},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			sh := newTestShell()
			sh.LastStatus = 5

			status, _, _ := callBuiltin(sh, append([]string{"mexit"}, tc.args...)...)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantExit, sh.Exited())
		})
	}
}

func TestSource_usage(t *testing.T) {
	status, _, stderr := callBuiltin(newTestShell(), ".")

	assert.Equal(t, 2, status)
	assert.Equal(t, ".: filename argument required\n", stderr)
}

func TestAlias(t *testing.T) {
	status, stdout, stderr := callBuiltin(newTestShell(), "alias", "ll=ls -l")

	assert.Equal(t, 1, status)
	assert.Empty(t, stdout)
	assert.Equal(t, "alias: aliases are not supported\n", stderr)
}

func TestUnescape(t *testing.T) {
	cases := map[string]string{
		`plain`:      "plain",
		`a\nb`:       "a\nb",
		`\\`:         `\`,
		`\x41\x4a`:   "AJ",
		`\xZZ`:       `\xZZ`,
		`\0101`:      "A",
		`\0`:         "\x00",
		`\q`:         `\q`,
		`trailing\`:  `trailing\`,
		`\a\b\f\v\r`: "\a\b\f\v\r",
	}

	for in, want := range cases {
		assert.Equal(t, want, unescape(in), "unescape(%q)", in)
	}
}
