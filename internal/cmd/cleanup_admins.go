package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yukikurage/taskflow-api/internal/app"
)

var cleanupAdminsCmd = &cobra.Command{
	Use:   "cleanup-admins",
	Short: "Detach admins from teams and remove reserved-name teams",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			result, err := a.Services.Users.CleanupAdmins()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Admins detached from teams: %d\n", result.AdminsDetached)
			if len(result.TeamsRemoved) == 0 {
				fmt.Fprintln(out, "Reserved-name teams removed: none")
				return nil
			}
			fmt.Fprintf(out, "Reserved-name teams removed: %s\n", strings.Join(result.TeamsRemoved, ", "))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cleanupAdminsCmd)
}
