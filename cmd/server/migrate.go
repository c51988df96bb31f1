package main

import (
	"github.com/spf13/cobra"

	"github.com/ahsanfayaz52/notesapp/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Long:  `Migrate creates the users and notes tables if they do not exist yet. It is safe to run repeatedly.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Open migrates on connect.
		conn, err := db.Open(cmd.Context(), cfg.DBOptions())
		if err != nil {
			return err
		}
		defer conn.Close()

		logger.Info("schema is up to date", "driver", conn.Dialect)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
