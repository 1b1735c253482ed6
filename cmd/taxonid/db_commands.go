package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taxonid/internal/store"
)

func newDatabaseCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
	}
	dbCmd.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check database connectivity, schema version and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				health, err := st.CheckHealth(commandCtx(cmd))
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, health)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Driver: %s\n", health.Driver)
				fmt.Fprintf(out, "Location: %s\n", health.Location)
				fmt.Fprintf(out, "Database exists: %s\n", yesNo(health.DatabaseExists))
				fmt.Fprintf(out, "Schema version: %d (expected %d)\n", health.SchemaVersion, health.ExpectedVersion)
				fmt.Fprintf(out, "Taxa: %d\n", health.Taxa)
				fmt.Fprintf(out, "Observations: %d\n", health.Observations)
				fmt.Fprintf(out, "Identifications: %d\n", health.Identifications)
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
				return nil
			})
		},
	})
	return dbCmd
}
