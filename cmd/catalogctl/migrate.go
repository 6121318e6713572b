// cmd/catalogctl/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/biologist/catalog-backend/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrations(a); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations complete.")
			return nil
		},
	}
}

func runMigrations(a *app) error {
	if err := database.RunMigrations(a.db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
