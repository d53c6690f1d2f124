package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephlewis42/myshell/core/config"
)

// playgroundCmd runs the shell with a throwaway configuration
var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Run the shell with a temporary configuration, event log and debug output.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir, err := os.MkdirTemp("", "playground")
		if err != nil {
			return err
		}

		playgroundLogger := log.New(cmd.ErrOrStderr(), "[playground] ", 0)
		cfg, err := config.Initialize(dir, playgroundLogger)
		if err != nil {
			return err
		}
		cfg.EventLog = config.DefaultEventLog
		cfg.HistoryFile = ""
		cfg.Debug = true
		cfg.Prompt = `playground \w $ `

		sh, closer, err := newShell(cmd, cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		playgroundLogger.Printf("Logging to: file://%s\n", dir)
		playgroundLogger.Printf("See a report with: myshell --config %s events report\n", dir)
		playgroundLogger.Println(strings.Repeat("=", 80))

		status, err := sh.RunInteractive()
		fmt.Fprintf(cmd.OutOrStdout(), "Exit code: %d\n", status)
		return err
	},
}

func init() {
	rootCmd.AddCommand(playgroundCmd)
}
