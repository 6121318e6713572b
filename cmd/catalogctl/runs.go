// cmd/catalogctl/runs.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/biologist/catalog-backend/internal/utils"
)

func newRunsCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent import runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.importService()
			if err != nil {
				return err
			}

			params := utils.DefaultPagination(limit)
			params.Sort = "started_at"
			runs, _, err := svc.ListRuns(params)
			if err != nil {
				return err
			}

			return printRuns(cmd.OutOrStdout(), runs, asJSON)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}
