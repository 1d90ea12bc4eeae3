package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"meetdesk/internal/adapters/sheets"
	auditStore "meetdesk/internal/adapters/storage/audit"
	eventStore "meetdesk/internal/adapters/storage/event"
	programStore "meetdesk/internal/adapters/storage/program"
	"meetdesk/internal/application/orchestrators"
)

func newRosterCmd(c *cli) *cobra.Command {
	roster := &cobra.Command{
		Use:   "roster",
		Short: "Export event rosters",
	}

	var programID string
	var toSheets bool
	export := &cobra.Command{
		Use:   "export",
		Short: "Write a program's rosters as CSV, or to Google Sheets",
		Long: `Export every event roster of a program. --program takes a program ID
or "active". Without --sheets the CSV goes to stdout; with --sheets the
program's tab in MEETDESK_SHEETS_SPREADSHEET_ID is rewritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := withTimeout(cmd, 2*time.Minute)
			defer cancel()

			programs := programStore.NewSQLiteStore(db)
			if programID == "active" {
				p, err := programs.GetActive(ctx)
				if err != nil {
					return err
				}
				programID = p.ID
			}
			deps := orchestrators.ExportDeps{
				Events:   eventStore.NewSQLiteStore(db),
				Programs: programs,
				Audit:    auditStore.NewSQLiteStore(db),
				Now:      c.now,
			}

			if !toSheets {
				t, err := orchestrators.ExecuteExportProgramRoster(ctx, programID, deps)
				if err != nil {
					return err
				}
				return t.WriteCSV(cmd.OutOrStdout())
			}

			if !c.cfg.SheetsEnabled() {
				return fmt.Errorf("--sheets needs MEETDESK_SHEETS_CREDENTIALS and MEETDESK_SHEETS_SPREADSHEET_ID")
			}
			client, err := sheets.New(ctx, c.cfg.SheetsCredentials, c.cfg.SheetsSpreadsheetID)
			if err != nil {
				return err
			}
			deps.Sheets = client
			n, err := orchestrators.ExecuteExportToSheets(ctx, cliActor, programID, deps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to spreadsheet %s\n", n, client.SpreadsheetID())
			return nil
		},
	}
	export.Flags().StringVar(&programID, "program", "", `Program ID, or "active" (required)`)
	export.Flags().BoolVar(&toSheets, "sheets", false, "Write to Google Sheets instead of stdout")
	export.MarkFlagRequired("program")

	roster.AddCommand(export)
	return roster
}
