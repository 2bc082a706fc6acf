package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yukikurage/taskflow-api/internal/app"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Email overdue task digests once",
	Long: `Finds every overdue task and sends each assignee a single digest email
listing their overdue work. This is the job the server scheduler runs daily.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			result, err := a.Automation.RunOverdueReminders(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Overdue tasks: %d, users notified: %d, emails sent: %d\n",
				result.OverdueTasks, result.UsersNotified, result.EmailsSent)
			return nil
		})
	},
}

var weeklyReportCmd = &cobra.Command{
	Use:   "weekly-report",
	Short: "Email the weekly PDF report to admin and HR users once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			result, err := a.Automation.RunWeeklyReports(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.Sent {
				fmt.Fprintf(out, "Weekly report %s not sent, no recipients\n", result.Filename)
				return nil
			}
			fmt.Fprintf(out, "Sent %s to %d recipients (%d tasks)\n",
				result.Filename, result.EmailsSent, result.TotalTasks)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(weeklyReportCmd)
}
