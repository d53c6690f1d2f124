package shell

import (
	"errors"
	"os"
)

// dupStderrToken is only understood as the tail of "> FILE 2>&1".
const dupStderrToken = "2>&1"

// redirections maps an operator to the slots it overwrites.
var redirections = map[string][]Slot{
	">":  {Stdout},
	"2>": {Stderr},
	"&>": {Stdout, Stderr},
	">&": {Stdout, Stderr},
	"<":  {Stdin},
}

// IsRedirection reports whether tok is a redirection operator.
func IsRedirection(tok string) bool {
	_, ok := redirections[tok]
	return ok || tok == dupStderrToken
}

// Redirect applies the redirections of every stage.
func (p *Pipeline) Redirect(expand func(string) string) error {
	for _, stage := range p.Stages {
		if err := stage.Redirect(expand); err != nil {
			return err
		}
	}
	return nil
}

// Redirect removes the redirection operators and their targets from the
// stage's arguments and points the affected slots at the opened files.
// Targets are passed through expand before they are opened, a target using
// $(...) is rejected.
func (s *Stage) Redirect(expand func(string) string) error {
	args := combineStderrDup(s.Args)

	var kept []string
	for i := 0; i < len(args); i++ {
		op := args[i]
		if op == dupStderrToken {
			return parseErr(ErrUnsupportedDup, op)
		}

		slots, ok := redirections[op]
		if !ok {
			kept = append(kept, op)
			continue
		}

		if i+1 >= len(args) || IsRedirection(args[i+1]) {
			return parseErr(ErrMissingTarget, op)
		}
		i++
		target := args[i]
		if spans, err := SubshellSpans(target); err != nil {
			return err
		} else if len(spans) > 0 {
			return parseErr(ErrSubstitution, target)
		}
		if expand != nil {
			target = expand(target)
		}

		f, err := openTarget(op, target)
		if err != nil {
			return err
		}
		for _, slot := range slots {
			if err := s.Stdio.Replace(slot, Owned(f)); err != nil {
				return err
			}
		}
	}

	s.Args = kept
	if len(s.Args) == 0 {
		return parseErr(ErrEmptyStage, "")
	}
	return nil
}

// combineStderrDup rewrites a trailing "> FILE 2>&1" into "&> FILE". Both
// streams end up in the same file, which differs from POSIX when earlier
// redirections moved stdout.
func combineStderrDup(args []string) []string {
	end := len(args)
	if end > 0 && args[end-1] == BackgroundToken {
		end--
	}
	if end < 3 || args[end-1] != dupStderrToken || args[end-3] != ">" {
		return args
	}

	out := make([]string, 0, len(args)-1)
	out = append(out, args[:end-3]...)
	out = append(out, "&>", args[end-2])
	return append(out, args[end:]...)
}

func openTarget(op, path string) (*os.File, error) {
	var (
		f   *os.File
		err error
	)
	if op == "<" {
		f, err = os.Open(path)
	} else {
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	}
	if err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			err = pathErr.Err
		}
		return nil, &ResourceError{Op: "open", Path: path, Err: err}
	}
	return f, nil
}
