package shell

import (
	"os"
	"sort"
)

// PipeToken separates the stages of a pipeline.
const PipeToken = "|"

// BackgroundToken at the end of a stage runs it without waiting.
const BackgroundToken = "&"

// CommandType says how a stage gets executed.
type CommandType int

const (
	External CommandType = iota
	Internal
	LocalVar
)

func (t CommandType) String() string {
	switch t {
	case Internal:
		return "internal"
	case LocalVar:
		return "localvar"
	default:
		return "external"
	}
}

// Stage is one command of a pipeline.
type Stage struct {
	Args  []string
	Stdio Stdio
	Type  CommandType

	// Subshells maps an argument index to the $(...) spans found in it.
	Subshells map[int][]Span
}

// Pipeline holds the stages built from a single line. It owns every pipe and
// redirected file until they are handed to a process or builtin.
type Pipeline struct {
	Stages []*Stage
}

// Build partitions tokens into stages on | and connects adjacent stages with
// OS pipes.
func Build(tokens []string) (*Pipeline, error) {
	p := &Pipeline{Stages: []*Stage{{}}}
	for _, tok := range tokens {
		if tok == PipeToken {
			p.Stages = append(p.Stages, &Stage{})
			continue
		}
		last := p.Stages[len(p.Stages)-1]
		last.Args = append(last.Args, tok)
	}

	for i := 1; i < len(p.Stages); i++ {
		r, w, err := os.Pipe()
		if err != nil {
			p.Close()
			return nil, &ResourceError{Op: "pipe", Err: err}
		}
		p.Stages[i-1].Stdio[Stdout] = Owned(w)
		p.Stages[i].Stdio[Stdin] = Owned(r)
	}

	for _, stage := range p.Stages {
		if len(stage.Args) == 0 {
			p.Close()
			return nil, parseErr(ErrEmptyStage, PipeToken)
		}
	}

	return p, nil
}

// Close releases every descriptor still held by the pipeline.
func (p *Pipeline) Close() error {
	var firstErr error
	for _, stage := range p.Stages {
		if err := stage.Stdio.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DetectSubshells records the $(...) spans of every argument.
func (p *Pipeline) DetectSubshells() error {
	for _, stage := range p.Stages {
		stage.Subshells = nil
		for i, arg := range stage.Args {
			spans, err := SubshellSpans(arg)
			if err != nil {
				return err
			}
			if len(spans) == 0 {
				continue
			}
			if stage.Subshells == nil {
				stage.Subshells = make(map[int][]Span)
			}
			stage.Subshells[i] = spans
		}
	}
	return nil
}

// RejectSubshells returns a ParseError naming the first argument that uses
// $(...). DetectSubshells must have run.
func (p *Pipeline) RejectSubshells() error {
	for _, stage := range p.Stages {
		if len(stage.Subshells) == 0 {
			continue
		}
		var arg string
		if i := firstKey(stage.Subshells); i < len(stage.Args) {
			arg = stage.Args[i]
		}
		return parseErr(ErrSubstitution, arg)
	}
	return nil
}

func firstKey(m map[int][]Span) int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys[0]
}

// Substitute expands variables in every argument of every stage.
func (p *Pipeline) Substitute(sub *Substituter) {
	for _, stage := range p.Stages {
		for i, arg := range stage.Args {
			stage.Args[i] = sub.Expand(arg)
		}
	}
}

// Classify sets the type of every stage.
func (p *Pipeline) Classify(isBuiltin func(string) bool) {
	for _, stage := range p.Stages {
		stage.Type = Classify(stage.Args, isBuiltin)
	}
}
