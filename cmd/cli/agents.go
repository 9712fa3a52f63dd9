package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/jivas-io/jvmanager/internal/common"
	"github.com/jivas-io/jvmanager/internal/models"
)

var agentsCmd = &cobra.Command{
	Use:               "agents",
	Short:             "List and select agents",
	PersistentPreRunE: preAuthenticateE,
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the agents on the platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")

		agents, selected, err := loadAgents(cmd)
		if err != nil {
			return err
		}

		agents = filterAgents(agents, filter)
		if len(agents) == 0 {
			fmt.Println(infoStyle.Render("No agents found"))
			return nil
		}

		fmt.Println(headerStyle.Render("Agents"))
		fmt.Println()

		for _, agent := range agents {
			marker := "  "
			if agent.ID == selected {
				marker = activeStyle.Render("* ")
			}

			state := infoStyle.Render("draft")
			if agent.Published {
				state = activeStyle.Render("published")
			}

			fmt.Printf("%s%s  %s  %s\n", marker, headerStyle.Render(agent.Name), agent.ID, state)
			if len(agent.Description) > 0 {
				fmt.Printf("    %s\n", agent.Description)
			}
		}

		return nil
	},
}

var agentsSelectCmd = &cobra.Command{
	Use:   "select [agent-id]",
	Short: "Select the agent the other commands operate on",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agents, selected, err := loadAgents(cmd)
		if err != nil {
			return err
		}
		if len(agents) == 0 {
			return fmt.Errorf("no agents available")
		}

		agentID := selected
		if len(args) > 0 {
			agentID = args[0]
		} else {
			options := make([]huh.Option[string], 0, len(agents))
			for _, agent := range agents {
				options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", agent.Name, agent.ID), agent.ID))
			}

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewSelect[string]().
						Title("Select an agent").
						Options(options...).
						Value(&agentID),
				),
			)
			if err := form.Run(); err != nil {
				return fmt.Errorf("selection cancelled: %w", err)
			}
		}

		var found *models.Agent
		for i := range agents {
			if agents[i].ID == agentID {
				found = &agents[i]
			}
		}
		if found == nil {
			return fmt.Errorf("agent %s not found", agentID)
		}

		client, _ := newClient(cmd)
		if err := client.SelectAgent(found.ID); err != nil {
			return fmt.Errorf("failed to store selection: %w", err)
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Selected %s", found.Name)))
		return nil
	},
}

func loadAgents(cmd *cobra.Command) ([]models.Agent, string, error) {
	client, _ := newClient(cmd)

	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	agents, err := withSpinner(ctx, "Loading agents...", func(ctx context.Context) ([]models.Agent, error) {
		return client.ListAgents(ctx)
	})
	if err != nil {
		return nil, "", clientError(err)
	}

	selected, _ := client.SelectedAgent()
	return agents, selected, nil
}

// filterAgents keeps agents whose name or id contains filter, ignoring case.
func filterAgents(agents []models.Agent, filter string) []models.Agent {
	if len(filter) == 0 {
		return agents
	}

	var out []models.Agent
	for _, agent := range agents {
		if common.ContainsInsensitive(agent.Name, filter) || common.ContainsInsensitive(agent.ID, filter) {
			out = append(out, agent)
		}
	}
	return out
}

// selectedAgent resolves the agent for commands that need one.
func selectedAgent(ctx context.Context, cmd *cobra.Command) (*models.Agent, error) {
	client, _ := newClient(cmd)

	agent, err := client.SelectedAgentInfo(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	if agent == nil {
		return nil, fmt.Errorf("no agent selected, run 'jvmanager agents select' first")
	}
	return agent, nil
}

func init() {
	agentsListCmd.Flags().String("filter", "", "Only show agents whose name or id contains this text")

	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsSelectCmd)
	rootCmd.AddCommand(agentsCmd)
}
