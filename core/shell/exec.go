package shell

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

// ErrNotFound is the error resulting if a path search failed to find a file.
var ErrNotFound = exec.ErrNotFound

// StatusNotFound is reported for commands that aren't on the search path.
const StatusNotFound = 127

// SearchPath builds the ordered directory list used to find programs: the
// entries of a PATH style list followed by the extra directories.
func SearchPath(pathList string, extra ...string) []string {
	dirs := filepath.SplitList(pathList)
	for _, dir := range extra {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// LookPath returns the first dir/name that exists in dirs. If name contains a
// slash it is tried directly and dirs are not consulted.
func LookPath(dirs []string, name string) (string, error) {
	if strings.Contains(name, "/") {
		if isFile(name) {
			return name, nil
		}
		return "", ErrNotFound
	}

	for _, dir := range dirs {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, name)
		if isFile(path) {
			return path, nil
		}
	}
	return "", ErrNotFound
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Runner executes the stages that don't spawn a process.
type Runner interface {
	// IsBuiltin reports whether name is handled in-process.
	IsBuiltin(name string) bool
	// RunBuiltin runs a builtin to completion and returns its status.
	RunBuiltin(args []string, stdio IO) int
	// AssignLocal handles a NAME=VALUE statement.
	AssignLocal(assignment string, stdio IO) int
}

// Engine runs pipelines.
type Engine struct {
	// Name prefixes the engine's own error messages.
	Name string
	// SearchPath is the ordered list of directories programs are found in.
	SearchPath []string
	// Runner handles builtins and assignments.
	Runner Runner
	// Std holds the shell's own standard files, used by Inherit slots.
	Std [3]*os.File
	// Environ returns the environment of started programs, nil inherits the
	// process environment.
	Environ func() []string
	// Debug, if set, receives a dump of every pipeline before it runs.
	Debug *log.Logger
}

type child struct {
	stage int
	cmd   *exec.Cmd
}

// Execute runs every stage of the pipeline and returns the status of the
// first stage that failed, or 0. External programs are all started before any
// builtin runs so a builtin writing into a pipe always has its reader. The
// pipeline is closed when Execute returns.
//
// A non-nil error means the line could not run (ParseError) or the shell is
// in an unrecoverable state (SpawnError).
func (e *Engine) Execute(p *Pipeline) (int, error) {
	defer p.Close()

	if err := p.RejectSubshells(); err != nil {
		return 1, err
	}

	e.dump(p)

	statuses := make([]int, len(p.Stages))
	var children []child

	for i, stage := range p.Stages {
		if stage.Type != External {
			continue
		}
		cmd, status, err := e.spawn(stage)
		if err != nil {
			p.Close()
			e.wait(children, statuses)
			return 1, err
		}
		statuses[i] = status
		if cmd != nil {
			children = append(children, child{stage: i, cmd: cmd})
		}
	}

	for i, stage := range p.Stages {
		if stage.Type == Internal || stage.Type == LocalVar {
			statuses[i] = e.runInProcess(stage)
		}
	}

	e.wait(children, statuses)

	for _, status := range statuses {
		if status != 0 {
			return status, nil
		}
	}
	return 0, nil
}

// spawn starts an external stage and hands its descriptors to the child. The
// returned command is nil if there's nothing to wait for.
func (e *Engine) spawn(stage *Stage) (*exec.Cmd, int, error) {
	defer stage.Stdio.Release()

	files := stage.Stdio.Files(e.Std)
	args, background := stripBackground(stage.Args)
	if len(args) == 0 {
		e.errorf(files[Stderr], "%v", parseErr(ErrEmptyStage, BackgroundToken))
		return nil, 1, nil
	}

	path, err := LookPath(e.SearchPath, args[0])
	if err != nil {
		e.errorf(files[Stderr], "command not found: %s", args[0])
		return nil, StatusNotFound, nil
	}

	cmd := exec.Command(path, args[1:]...)
	cmd.Args[0] = args[0]
	// A nil file would reach the child as a closed descriptor, leave the
	// field unset so exec uses the null device instead.
	if f := files[Stdin]; f != nil {
		cmd.Stdin = f
	}
	if f := files[Stdout]; f != nil {
		cmd.Stdout = f
	}
	if f := files[Stderr]; f != nil {
		cmd.Stderr = f
	}
	if e.Environ != nil {
		cmd.Env = e.Environ()
	}

	if err := cmd.Start(); err != nil {
		return nil, 1, &SpawnError{Path: path, Err: err}
	}

	if background {
		go func() {
			_ = cmd.Wait()
		}()
		return nil, 0, nil
	}
	return cmd, 0, nil
}

// runInProcess calls into the Runner with the stage's streams and releases
// them afterwards so downstream readers see EOF.
func (e *Engine) runInProcess(stage *Stage) int {
	defer stage.Stdio.Release()

	stdio := NewIO(stage.Stdio.Files(e.Std))
	args, _ := stripBackground(stage.Args)
	switch {
	case len(args) == 0:
		e.errorf(stdio.Stderr, "%v", parseErr(ErrEmptyStage, BackgroundToken))
		return 1
	case stage.Type == LocalVar:
		return e.Runner.AssignLocal(args[0], stdio)
	default:
		return e.Runner.RunBuiltin(args, stdio)
	}
}

func (e *Engine) wait(children []child, statuses []int) {
	for _, c := range children {
		statuses[c.stage] = ExitStatus(c.cmd.Wait())
	}
}

// ExitStatus converts the result of waiting on a process into a shell status.
// Processes killed by a signal report 128 plus the signal number.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return exitErr.ExitCode()
}

func stripBackground(args []string) ([]string, bool) {
	if n := len(args); n > 0 && args[n-1] == BackgroundToken {
		return args[:n-1], true
	}
	return args, false
}

func (e *Engine) errorf(w io.Writer, format string, a ...interface{}) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "%s: %s\n", e.Name, fmt.Sprintf(format, a...))
}

func (e *Engine) dump(p *Pipeline) {
	if e.Debug == nil {
		return
	}
	e.Debug.Printf("n_stages = %d", len(p.Stages))
	for i, stage := range p.Stages {
		e.Debug.Printf("stage %d: %q type=%s stdio=[%s %s %s]",
			i, stage.Args, stage.Type,
			stage.Stdio[Stdin], stage.Stdio[Stdout], stage.Stdio[Stderr])
	}
}
