package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jivas-io/jvmanager/internal/common"
	"github.com/jivas-io/jvmanager/internal/models"
)

var analyticsCmd = &cobra.Command{
	Use:               "analytics",
	Short:             "Show interaction, user and channel totals for the selected agent",
	PersistentPreRunE: preAuthenticateE,
	RunE: func(cmd *cobra.Command, args []string) error {
		window, _ := cmd.Flags().GetString("window")
		timezone, _ := cmd.Flags().GetString("timezone")

		now := time.Now()
		duration, err := common.ParseWindow(window, now)
		if err != nil {
			return err
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		agent, err := selectedAgent(ctx, cmd)
		if err != nil {
			return err
		}

		query := models.NewReportQuery(agent.ID, now.Add(-duration), now, timezone)

		client, _ := newClient(cmd)
		dashboard, err := withSpinner(ctx, "Loading analytics...", func(ctx context.Context) (*models.Dashboard, error) {
			return client.Dashboard(ctx, query)
		})
		if err != nil {
			return clientError(err)
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("Analytics for %s", agent.Name)))
		fmt.Printf("%s to %s (%s)\n\n", query.StartDate, query.EndDate, query.Timezone)

		fmt.Printf("Interactions:  %v\n", reportTotal(dashboard.Interactions))
		fmt.Printf("Users:         %v\n", reportTotal(dashboard.Users))
		fmt.Printf("Channels:      %v\n", reportTotal(dashboard.Channels))

		return nil
	},
}

func reportTotal(report models.Report) any {
	if total, ok := report["total"]; ok {
		return total
	}
	return "-"
}

func init() {
	analyticsCmd.Flags().String("window", "P7D", "Reporting window as ISO 8601 (P30D) or a duration (72h)")
	analyticsCmd.Flags().String("timezone", "UTC", "IANA timezone the dates are reported in")

	rootCmd.AddCommand(analyticsCmd)
}
