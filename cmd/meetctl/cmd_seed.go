package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	auditStore "meetdesk/internal/adapters/storage/audit"
	eventStore "meetdesk/internal/adapters/storage/event"
	participantStore "meetdesk/internal/adapters/storage/participant"
	programStore "meetdesk/internal/adapters/storage/program"
	resourceStore "meetdesk/internal/adapters/storage/resource"
	"meetdesk/internal/application/orchestrators"
)

func newSeedCmd(c *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load departments, batches, programs, events and participants from YAML",
		Long: `Load a YAML seed file. Rows that already exist are skipped, so the
same file can be applied more than once.

Example:
  departments:
    - {code: CSE, name: Computer Science}
  batches:
    - {name: 2023-2027, start_year: 2023, end_year: 2027}
  programs:
    - name: Annual Sports Meet
      start_date: 2026-02-10
      end_date: 2026-02-12
      active: true
      events:
        - {name: 100m, category: track, gender: male, capacity: 16}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			db, err := c.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			audit := auditStore.NewSQLiteStore(db)
			programs := programStore.NewSQLiteStore(db)
			resources := resourceStore.NewSQLiteStore(db)
			deps := orchestrators.SeedDeps{
				Resources: orchestrators.ResourceDeps{Store: resources, Audit: audit, GenerateID: c.newID, Now: c.now},
				Programs:  orchestrators.ProgramDeps{Store: programs, Audit: audit, GenerateID: c.newID, Now: c.now},
				Events: orchestrators.EventDeps{
					Store: eventStore.NewSQLiteStore(db), Programs: programs, Audit: audit, GenerateID: c.newID, Now: c.now,
				},
				Participants: orchestrators.ParticipantDeps{
					Store: participantStore.NewSQLiteStore(db), Resources: resources, Audit: audit, GenerateID: c.newID, Now: c.now,
				},
			}

			ctx, cancel := withTimeout(cmd, 5*time.Minute)
			defer cancel()
			res, err := orchestrators.ExecuteSeed(ctx, f, deps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d departments, %d batches, %d programs, %d events, %d participants; skipped %d\n",
				res.Departments, res.Batches, res.Programs, res.Events, res.Participants, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file (required)")
	cmd.MarkFlagRequired("file")
	return cmd
}
