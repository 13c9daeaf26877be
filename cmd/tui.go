package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"querydesk/client"
	"querydesk/tui"
)

var tuiLogFile string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive query panel",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The terminal belongs to the UI; logs go to a file.
		f, err := os.OpenFile(tuiLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)

		logger := log.WithField("component", "tui")
		return tui.Start(cmd.Context(), cfg.ServerURL, client.New(cfg.ServerURL, client.WithLogger(logger)), logger)
	},
}

func init() {
	tuiCmd.Flags().StringVar(&tuiLogFile, "log-file", "querydesk-tui.log", "file receiving logs while the panel is open")
}
