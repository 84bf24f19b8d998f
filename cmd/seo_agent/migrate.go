package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.Close()

	database, err := a.db(cmd.Context())
	if err != nil {
		return err
	}
	if err := database.Migrate(cmd.Context()); err != nil {
		return err
	}

	version, err := database.MigrationVersion(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database at migration version %d\n", version)
	return nil
}
