// Package cmd contains the cobra commands of querydesk.
package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"querydesk/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "querydesk",
	Short: "Ask questions about a SQL database in plain English",
	Long: `querydesk turns natural-language questions into read-only SQL, runs them
and shows the rows as a table.

  querydesk serve          start the HTTP API (POST /api/query)
  querydesk ask "..."      submit one question to a running server
  querydesk tui            interactive query panel in the terminal
  querydesk seed           create the sample shop database`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded

		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		log.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("server", "", "query API base URL used by ask and tui (default http://localhost:9090)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default info)")

	rootCmd.AddCommand(serveCmd, askCmd, tuiCmd, seedCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
