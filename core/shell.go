package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/josephlewis42/myshell/core/config"
	"github.com/josephlewis42/myshell/core/logger"
	"github.com/josephlewis42/myshell/core/shell"
	"github.com/josephlewis42/myshell/core/vars"
)

const (
	EnvHome = "HOME"
	EnvPWD  = "PWD"
	EnvPath = "PATH"
	EnvUser = "USER"

	// StatusVar is the variable holding the previous line's status.
	StatusVar = "?"

	// maxSourceDepth limits how deeply scripts may source each other.
	maxSourceDepth = 64
)

// ErrSourceDepth is returned when scripts source each other too deeply.
var ErrSourceDepth = errors.New("maximum source depth exceeded")

// Shell interprets command lines.
type Shell struct {
	Config *config.Configuration
	// Locals holds variables visible only to the shell.
	Locals *vars.Table
	// Env holds the environment passed to programs.
	Env *vars.Table
	// Events receives one event per interpreted line. Without WithEvents
	// they are discarded.
	Events *logger.SessionLogger
	// Readline is set while the interactive loop runs.
	Readline *readline.Instance

	// LastStatus is the status of the most recent line.
	LastStatus int

	engine      *shell.Engine
	substituter *shell.Substituter
	fs          afero.Fs
	std         [3]*os.File
	stderr      io.Writer

	quit        bool
	fatal       error
	sourceDepth int
}

// Option configures a Shell.
type Option func(*Shell)

// WithFs sets the filesystem scripts are read from.
func WithFs(fs afero.Fs) Option {
	return func(s *Shell) {
		s.fs = fs
	}
}

// WithEvents sets the event logger.
func WithEvents(events *logger.SessionLogger) Option {
	return func(s *Shell) {
		s.Events = events
	}
}

// WithDebug sets the logger receiving pipeline dumps.
func WithDebug(debug *log.Logger) Option {
	return func(s *Shell) {
		s.engine.Debug = debug
	}
}

// NewShell creates a shell that reads and writes the given standard files
// and starts programs with environ.
func NewShell(cfg *config.Configuration, std [3]*os.File, environ []string, opts ...Option) *Shell {
	env := vars.FromEnviron(environ)

	s := &Shell{
		Config: cfg,
		Locals: vars.New(),
		Env:    env,
		Events: logger.NewNopLogger().Sessionless(),
		fs:     afero.NewOsFs(),
		std:    std,
		stderr: os.Stderr,
	}
	if std[shell.Stderr] != nil {
		s.stderr = std[shell.Stderr]
	}

	s.substituter = shell.NewSubstituter(s.lookupSpecial, s.Locals.Lookup, s.Env.Lookup)
	s.engine = &shell.Engine{
		Name:       cfg.ShellName,
		SearchPath: shell.SearchPath(env.Get(EnvPath), searchExtras(cfg)...),
		Runner:     s,
		Std:        std,
		Environ:    s.Env.Environ,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// searchExtras returns the directories searched after PATH: the one holding
// the shell's own executable followed by the configured ones.
func searchExtras(cfg *config.Configuration) []string {
	var extra []string
	if exe, err := os.Executable(); err == nil {
		extra = append(extra, filepath.Dir(exe))
	}
	return append(extra, cfg.ExtraPath...)
}

func (s *Shell) lookupSpecial(name string) (string, bool) {
	if name == StatusVar {
		return fmt.Sprintf("%d", s.LastStatus), true
	}
	return "", false
}

// SearchPath returns the directories programs are looked up in.
func (s *Shell) SearchPath() []string {
	return s.engine.SearchPath
}

// Exited reports whether mexit ran or the shell hit an unrecoverable error.
func (s *Shell) Exited() bool {
	return s.quit
}

// Interpret runs a single command line and returns its status. The returned
// error is non-nil only if the shell can't continue.
func (s *Shell) Interpret(line string) (int, error) {
	line = strings.TrimSpace(shell.StripComment(line))
	if line == "" {
		return 0, nil
	}

	command, status, err := s.interpret(line)
	if err == nil && s.fatal != nil {
		// A sourced script already reported and recorded the failure.
		s.LastStatus = 1
		return 1, s.fatal
	}
	s.record(line, command, status, err)

	if err != nil {
		fmt.Fprintf(s.stderr, "%s: %v\n", s.Config.ShellName, err)

		var spawnErr *shell.SpawnError
		if errors.As(err, &spawnErr) {
			s.quit = true
			s.fatal = err
			s.LastStatus = 1
			return 1, err
		}
		status = shell.Status(err)
	}

	s.LastStatus = status
	return status, nil
}

// interpret compiles the line into a pipeline and executes it. command holds
// the first stage's arguments for the event log.
func (s *Shell) interpret(line string) (command []string, status int, err error) {
	tokens, err := shell.Split(line)
	if err != nil {
		return nil, 0, err
	}

	p, err := shell.Build(tokens)
	if err != nil {
		return nil, 0, err
	}
	defer p.Close()

	// Nothing may be opened for a line that gets rejected.
	if err := p.DetectSubshells(); err != nil {
		return nil, 0, err
	}
	if err := p.RejectSubshells(); err != nil {
		return nil, 0, err
	}
	if err := p.Redirect(s.substituter.Expand); err != nil {
		return nil, 0, err
	}
	p.Substitute(s.substituter)
	p.Classify(s.IsBuiltin)

	command = append(command, p.Stages[0].Args...)
	status, err = s.engine.Execute(p)
	return command, status, err
}

func (s *Shell) record(line string, command []string, status int, err error) {
	event := logger.Event{
		Type:    logger.TypeRunCommand,
		Line:    line,
		Command: command,
		Status:  status,
	}

	var (
		parseErr    *shell.ParseError
		resourceErr *shell.ResourceError
		spawnErr    *shell.SpawnError
	)
	switch {
	case errors.As(err, &parseErr):
		event.Type = logger.TypeSyntaxError
	case errors.As(err, &resourceErr):
		event.Type = logger.TypeResourceError
	case errors.As(err, &spawnErr):
		event.Type = logger.TypeSpawnError
	case status == shell.StatusNotFound:
		event.Type = logger.TypeUnknownCommand
	}
	if err != nil {
		event.Status = shell.Status(err)
		event.Error = err.Error()
	}

	if recordErr := s.Events.Record(event); recordErr != nil {
		log.Printf("couldn't record event: %v", recordErr)
	}
}

// RunScript interprets every line of the file at path and returns the status
// of the last line. It stops early when the shell exits.
func (s *Shell) RunScript(path string) (int, error) {
	if s.sourceDepth >= maxSourceDepth {
		return 1, ErrSourceDepth
	}
	s.sourceDepth++
	defer func() { s.sourceDepth-- }()

	fd, err := s.fs.Open(path)
	if err != nil {
		return 1, err
	}
	defer fd.Close()

	return s.run(fd)
}

// redirectStd points the shell's standard files at the non-nil entries of
// files until restore is called.
func (s *Shell) redirectStd(files [3]*os.File) (restore func()) {
	prevStd, prevStderr := s.std, s.stderr

	for i, f := range files {
		if f != nil {
			s.std[i] = f
		}
	}
	if f := files[shell.Stderr]; f != nil {
		s.stderr = f
	}
	s.engine.Std = s.std

	return func() {
		s.std, s.stderr = prevStd, prevStderr
		s.engine.Std = prevStd
	}
}

// RunReader interprets lines read from r until EOF or the shell exits.
func (s *Shell) RunReader(r io.Reader) (int, error) {
	return s.run(r)
}

func (s *Shell) run(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if _, err := s.Interpret(scanner.Text()); err != nil {
			return 1, err
		}
		if s.quit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return 1, err
	}

	return s.LastStatus, nil
}

// RunInteractive reads lines with a prompt and history until EOF or mexit.
func (s *Shell) RunInteractive() (int, error) {
	cfg := &readline.Config{
		Prompt:          s.Prompt(),
		HistoryFile:     s.Config.HistoryPath(),
		HistoryLimit:    s.Config.HistoryLimit,
		AutoComplete:    builtinCompleter(),
		InterruptPrompt: "^C",
	}
	if f := s.std[shell.Stdin]; f != nil {
		cfg.Stdin = readline.NewCancelableStdin(f)
	}
	if f := s.std[shell.Stdout]; f != nil {
		cfg.Stdout = f
	}
	if f := s.std[shell.Stderr]; f != nil {
		cfg.Stderr = f
	}

	if err := touch(s.Config.HistoryPath()); err != nil {
		log.Printf("couldn't create history file: %v", err)
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return 1, err
	}
	defer rl.Close()
	s.Readline = rl
	defer func() { s.Readline = nil }()

	for !s.quit {
		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()

		switch {
		case err == io.EOF:
			return s.LastStatus, nil // Input closed, quit.

		case err == readline.ErrInterrupt:
			continue // Discard the line.

		case err != nil:
			return 1, err

		default:
			if _, err := s.Interpret(line); err != nil {
				return 1, err
			}
		}
	}

	return s.LastStatus, nil
}

// touch creates the file at path if it doesn't exist.
func touch(path string) error {
	if path == "" {
		return nil
	}
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	return fd.Close()
}

var promptDirColor = color.New(color.FgBlue, color.Bold)

// Prompt renders the configured prompt template.
func (s *Shell) Prompt() string {
	prompt := s.Config.Prompt

	host, _ := os.Hostname()
	prompt = strings.ReplaceAll(prompt, `\u`, s.Env.Get(EnvUser))
	prompt = strings.ReplaceAll(prompt, `\h`, host)

	pwd, _ := os.Getwd()
	if home := s.Env.Get(EnvHome); home != "" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}
	if s.colorEnabled() {
		promptDirColor.EnableColor()
		pwd = promptDirColor.Sprint(pwd)
	}
	prompt = strings.ReplaceAll(prompt, `\w`, pwd)

	if os.Getuid() == 0 {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	return prompt
}

func (s *Shell) colorEnabled() bool {
	switch s.Config.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		out := s.std[shell.Stdout]
		return out != nil && !color.NoColor && term.IsTerminal(int(out.Fd()))
	}
}

// IsBuiltin implements shell.Runner.
func (s *Shell) IsBuiltin(name string) bool {
	_, ok := AllBuiltins[name]
	return ok
}

// RunBuiltin implements shell.Runner.
func (s *Shell) RunBuiltin(args []string, stdio shell.IO) int {
	builtin, ok := AllBuiltins[args[0]]
	if !ok {
		fmt.Fprintf(stdio.Stderr, "%s: %s: not a builtin\n", s.Config.ShellName, args[0])
		return 1
	}
	return builtin.Main(s, args, stdio)
}

// AssignLocal implements shell.Runner.
func (s *Shell) AssignLocal(assignment string, stdio shell.IO) int {
	name, value, ok := vars.ParseAssignment(assignment)
	if !ok {
		fmt.Fprintf(stdio.Stderr, "%s: invalid assignment: %q\n", s.Config.ShellName, assignment)
		return 1
	}

	s.Locals.Set(name, value)
	if _, exported := s.Env.Lookup(name); exported {
		s.Env.Set(name, value)
	}
	return 0
}

var _ shell.Runner = (*Shell)(nil)
