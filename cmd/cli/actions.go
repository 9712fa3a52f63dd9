package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jivas-io/jvmanager/internal/common"
	"github.com/jivas-io/jvmanager/internal/jivas"
	"github.com/jivas-io/jvmanager/internal/models"
)

var actionsCmd = &cobra.Command{
	Use:               "actions",
	Short:             "List the actions installed on the selected agent",
	PersistentPreRunE: preAuthenticateE,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		agent, err := selectedAgent(ctx, cmd)
		if err != nil {
			return err
		}

		client, _ := newClient(cmd)
		actions, err := withSpinner(ctx, "Loading actions...", func(ctx context.Context) ([]models.Action, error) {
			return client.ListActions(ctx, agent.ID)
		})
		if err != nil {
			return clientError(err)
		}

		sorted := jivas.SortActions(actions)

		fmt.Println(headerStyle.Render(fmt.Sprintf("Actions for %s", agent.Name)))
		fmt.Println()

		if len(sorted) == 0 {
			fmt.Println(infoStyle.Render("No actions installed"))
			return nil
		}

		for _, action := range sorted {
			state := expiredStyle.Render("disabled")
			if action.Enabled {
				state = activeStyle.Render("enabled")
			}

			fmt.Printf("%s  %s", headerStyle.Render(action.Title()), state)
			if len(action.Version) > 0 {
				fmt.Printf("  v%s", action.Version)
			}
			fmt.Println()

			if action.Package != nil && len(action.Package.Meta.Description) > 0 {
				fmt.Printf("    %s\n", action.Package.Meta.Description)
			} else if len(action.Description) > 0 {
				fmt.Printf("    %s\n", action.Description)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(actionsCmd)
}
