package shell

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSplit(t *testing.T, line string) []string {
	t.Helper()
	tokens, err := Split(line)
	require.NoError(t, err)
	return tokens
}

// assertConnected checks that bytes written to w come out of r.
func assertConnected(t *testing.T, w, r *os.File) {
	t.Helper()
	require.NotNil(t, w)
	require.NotNil(t, r)

	_, err := w.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
}

func TestBuild_single(t *testing.T) {
	p, err := Build(mustSplit(t, "ls -la"))
	require.NoError(t, err)
	defer p.Close()

	require.Len(t, p.Stages, 1)
	assert.Equal(t, []string{"ls", "-la"}, p.Stages[0].Args)
	assert.Equal(t, Stdio{}, p.Stages[0].Stdio)
	assert.Equal(t, External, p.Stages[0].Type)
}

func TestBuild_threeStages(t *testing.T) {
	p, err := Build(mustSplit(t, "cmd1 | cmd2 a | cmd3"))
	require.NoError(t, err)
	defer p.Close()

	require.Len(t, p.Stages, 3)
	first, middle, last := p.Stages[0], p.Stages[1], p.Stages[2]

	assert.Equal(t, []string{"cmd1"}, first.Args)
	assert.Equal(t, []string{"cmd2", "a"}, middle.Args)
	assert.Equal(t, []string{"cmd3"}, last.Args)

	assert.True(t, first.Stdio[Stdin].Inherited())
	assert.True(t, last.Stdio[Stdout].Inherited())
	for _, stage := range p.Stages {
		assert.True(t, stage.Stdio[Stderr].Inherited())
	}

	assertConnected(t, first.Stdio[Stdout].File(), middle.Stdio[Stdin].File())
	assertConnected(t, middle.Stdio[Stdout].File(), last.Stdio[Stdin].File())
}

func TestBuild_emptyStage(t *testing.T) {
	lines := []string{
		"cmd1 | | cmd2",
		"cmd1 |",
		"| cmd1",
		"|",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, err := Build(mustSplit(t, line))
			assert.ErrorIs(t, err, ErrEmptyStage)
		})
	}
}

func TestPipeline_Close(t *testing.T) {
	p, err := Build(mustSplit(t, "a | b"))
	require.NoError(t, err)

	w := p.Stages[0].Stdio[Stdout].File()
	r := p.Stages[1].Stdio[Stdin].File()

	require.NoError(t, p.Close())
	assertClosed(t, w)
	_, err = r.Read(make([]byte, 1))
	assert.ErrorIs(t, err, os.ErrClosed)

	assert.NoError(t, p.Close())
}

func TestPipeline_DetectSubshells(t *testing.T) {
	p, err := Build(mustSplit(t, "echo $(ls) 'not $(x)' pre$(a)post | cat"))
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.DetectSubshells())
	assert.Equal(t, map[int][]Span{
		1: {{0, 4}},
		3: {{3, 6}},
	}, p.Stages[0].Subshells)
	assert.Nil(t, p.Stages[1].Subshells)

	err = p.RejectSubshells()
	assert.ErrorIs(t, err, ErrSubstitution)
	assert.Contains(t, err.Error(), `"$(ls)"`)
}

func TestPipeline_RejectSubshells_none(t *testing.T) {
	p, err := Build(mustSplit(t, "echo 'not $(x)' | cat"))
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.DetectSubshells())
	assert.NoError(t, p.RejectSubshells())
}

func TestClassify(t *testing.T) {
	isBuiltin := func(name string) bool {
		return name == "mecho" || name == "."
	}

	cases := []struct {
		args     []string
		expected CommandType
	}{
		{[]string{"mecho", "hi"}, Internal},
		{[]string{"."}, Internal},
		{[]string{"x=5"}, LocalVar},
		{[]string{"ls", "x=5"}, External},
		{[]string{"x=5", "ls"}, External},
		{[]string{"ls"}, External},
		{nil, External},
	}

	for _, tc := range cases {
		t.Run(tc.expected.String(), func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.args, isBuiltin))
		})
	}
}
