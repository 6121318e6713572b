// cmd/catalogctl/seed.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import the default source if the catalog has no products",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.importService()
			if err != nil {
				return err
			}

			result, err := svc.SeedIfEmpty(cmd.Context())
			if err != nil {
				return err
			}
			if result == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog already populated; nothing imported.")
				return nil
			}

			return printResult(cmd.OutOrStdout(), result, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}
