package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jivas-io/jvmanager/internal/common"
	"github.com/jivas-io/jvmanager/internal/guard"
	"github.com/jivas-io/jvmanager/internal/models"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the stored session and platform health",
	PreRunE: preRunConfigE,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := newClient(cmd)

		fmt.Println(headerStyle.Render("Session"))
		fmt.Println()

		host, err := client.Host()
		if err != nil {
			fmt.Println(warningStyle.Render("No Jivas host configured"))
		} else {
			fmt.Printf("Host:      %s\n", host)
		}

		cred := models.ReadCredential(store)
		now := time.Now()

		switch {
		case !cred.HasToken:
			fmt.Printf("Token:     %s\n", expiredStyle.Render("NONE"))
		case !cred.HasExpiry:
			fmt.Printf("Token:     %s\n", activeStyle.Render("ACTIVE (no expiry)"))
		case cred.IsExpiredAt(now):
			fmt.Printf("Token:     %s\n", expiredStyle.Render(fmt.Sprintf("EXPIRED %s",
				cred.Expiry.Local().Format("2006-01-02 15:04:05"))))
		default:
			fmt.Printf("Token:     %s\n", activeStyle.Render(fmt.Sprintf("ACTIVE until %s (%s remaining)",
				cred.Expiry.Local().Format("2006-01-02 15:04:05"),
				common.FormatDurationRemaining(cred.Expiry.Sub(now)))))
		}

		if agentID, ok := client.SelectedAgent(); ok {
			fmt.Printf("Agent:     %s\n", agentID)
		}

		outcome := guard.New(store, guard.WithLoginPath(cfg.GetLoginPath())).Check(cfg.GetHomePath())
		fmt.Printf("Console:   %s (%s)\n", outcome.Decision, outcome.Reason)
		fmt.Printf("File:      %s\n", store.Path())

		if err != nil {
			return nil
		}

		fmt.Println()
		fmt.Println(headerStyle.Render("Platform"))
		fmt.Println()

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		health := client.Health(ctx, now)
		switch health.State {
		case models.HealthStatusHealthy:
			fmt.Printf("Health:    %s\n", successStyle.Render("healthy"))
		case models.HealthStatusUnhealthy:
			fmt.Printf("Health:    %s %s\n", errorStyle.Render("unhealthy"), health.Error)
		default:
			fmt.Printf("Health:    %s\n", warningStyle.Render(string(health.State)))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
