package cmd

import (
	"github.com/spf13/cobra"

	"querydesk/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create and fill the sample shop database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := seed.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		return seed.Seed(cmd.Context(), db, seed.Options{})
	},
}

func init() {
	seedCmd.Flags().String("database-path", "", "SQLite database to create (default ecommerce.db)")
}
