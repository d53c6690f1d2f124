package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/josephlewis42/myshell/core"
	"github.com/josephlewis42/myshell/core/config"
	"github.com/josephlewis42/myshell/core/logger"
	"github.com/josephlewis42/myshell/core/shell"
)

// Version is reported by --version.
const Version = "2.0.0"

var (
	cfgPath    string
	scriptPath string
	command    string

	// exitStatus is the status the process exits with.
	exitStatus int
)

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "myshell")
}

func loadConfig() (*config.Configuration, error) {
	return config.LoadOrDefault(cfgPath)
}

// newShell creates a shell attached to the process's standard files. The
// returned closer releases the event log.
func newShell(cmd *cobra.Command, cfg *config.Configuration) (*core.Shell, io.Closer, error) {
	var opts []core.Option
	var closer io.Closer = nopCloser{}

	if cfg.EventLog != "" {
		fd, err := cfg.OpenEventLog()
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't open event log: %w", err)
		}
		closer = fd
		opts = append(opts, core.WithEvents(logger.NewJsonLinesLogRecorder(fd).NewSession()))
	}

	if cfg.Debug {
		opts = append(opts, core.WithDebug(log.New(cmd.ErrOrStderr(), "[debug] ", 0)))
	}

	std := [3]*os.File{os.Stdin, os.Stdout, os.Stderr}
	return core.NewShell(cfg, std, os.Environ(), opts...), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}

// runShell runs the shell in the mode selected by the flags and records the
// exit status.
func runShell(sh *core.Shell, args []string) error {
	var (
		status int
		err    error
	)

	switch {
	case command != "":
		status, err = sh.Interpret(command)
	case scriptPath != "":
		status, err = sh.RunScript(scriptPath)
	case len(args) == 1:
		status, err = sh.RunScript(args[0])
	default:
		status, err = sh.RunInteractive()
	}

	exitStatus = status

	var spawnErr *shell.SpawnError
	if errors.As(err, &spawnErr) {
		// Already reported by the shell.
		exitStatus = 1
		return nil
	}
	return err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "myshell [SCRIPT]",
	Short: "A small command shell.",
	Long: `myshell reads command lines, splits them into pipelines and runs them.

It supports quoting, pipes, file redirection, local and exported variables,
background commands and a handful of builtins. Run "myshell builtins" to list
them.`,
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		sh, closer, err := newShell(cmd, cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		return runShell(sh, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitStatus)
}

func init() {
	rootCmd.SetVersionTemplate("Myshell, bash but worse, version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigDir(), "config directory")
	rootCmd.Flags().StringVar(&scriptPath, "script", "", "run the script at `PATH` instead of reading commands interactively")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run a single command line and exit")
}
