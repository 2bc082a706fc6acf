package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/taskflow-api/internal/app"
)

var (
	seedFullName string
	seedEmail    string
	seedPassword string
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the initial admin account",
	Long: `Creates an admin user unless one with the same email already exists.

Flags fall back to ADMIN_FULL_NAME, ADMIN_EMAIL and ADMIN_PASSWORD, then to
built-in defaults. Change the default password after the first login.`,
	RunE: runSeedAdmin,
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)

	seedAdminCmd.Flags().StringVar(&seedFullName, "name", "", "Full name (env ADMIN_FULL_NAME)")
	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "Login email (env ADMIN_EMAIL)")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "Initial password (env ADMIN_PASSWORD)")
}

func runSeedAdmin(cmd *cobra.Command, args []string) error {
	fullName := firstNonEmpty(seedFullName, os.Getenv("ADMIN_FULL_NAME"), "System Admin")
	email := firstNonEmpty(seedEmail, os.Getenv("ADMIN_EMAIL"), "admin@example.com")
	password := firstNonEmpty(seedPassword, os.Getenv("ADMIN_PASSWORD"), "ChangeMe123!")

	return withApp(func(a *app.App) error {
		user, created, err := a.Services.Users.SeedAdmin(fullName, email, password)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !created {
			fmt.Fprintf(out, "Admin %s already exists (id %d)\n", user.Email, user.ID)
			return nil
		}
		fmt.Fprintf(out, "Created admin %s (id %d)\n", user.Email, user.ID)
		return nil
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
