package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	accountStore "meetdesk/internal/adapters/storage/account"
	auditStore "meetdesk/internal/adapters/storage/audit"
	outboxStore "meetdesk/internal/adapters/storage/outbox"
	settingsStore "meetdesk/internal/adapters/storage/settings"
	"meetdesk/internal/application/orchestrators"
	"meetdesk/internal/domain/account"
	"meetdesk/internal/domain/audit"
)

// cliActor is recorded in the audit log for changes made with meetctl.
var cliActor = audit.Actor{ID: "meetctl", Role: "system"}

func newStaffCmd(c *cli) *cobra.Command {
	staff := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts",
	}

	var email, name, role, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a staff or admin account",
		Long: `Create an account. Admins are active at once and need --password.
Staff accounts start pending activation; the invitation email is queued and
sent by the server's outbox dispatcher.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			outbox := outboxStore.NewSQLiteStore(db)
			settings := settingsStore.NewSQLiteStore(db)
			deps := orchestrators.StaffDeps{
				AccountStore: accountStore.NewSQLiteStore(db),
				Audit:        auditStore.NewSQLiteStore(db),
				Mailer: &orchestrators.Mailer{
					Outbox:     outbox,
					Settings:   settings,
					PublicURL:  c.cfg.PublicURL,
					GenerateID: c.newID,
					Now:        c.now,
				},
				GenerateID: c.newID,
				Now:        c.now,
			}

			ctx, cancel := withTimeout(cmd, 30*time.Second)
			defer cancel()
			acct, err := orchestrators.ExecuteCreateStaff(ctx, orchestrators.CreateStaffInput{
				Actor:    cliActor,
				Email:    email,
				Name:     name,
				Role:     role,
				Password: password,
			}, deps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s), status %s\n", acct.Role, acct.Email, acct.ID, acct.Status)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "Login email (required)")
	create.Flags().StringVar(&name, "name", "", "Display name (required)")
	create.Flags().StringVar(&role, "role", account.RoleStaff, "admin or staff")
	create.Flags().StringVar(&password, "password", "", "Initial password, required for admins")
	create.MarkFlagRequired("email")
	create.MarkFlagRequired("name")

	staff.AddCommand(create)
	return staff
}
