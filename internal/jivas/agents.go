package jivas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jivas-io/jvmanager/internal/fetch"
	"github.com/jivas-io/jvmanager/internal/models"
)

const (
	avatarModuleRoot = "actions.jivas.avatar_action"
	avatarWalker     = "get_avatar"
)

func (c *Client) ListAgents(ctx context.Context) ([]models.Agent, error) {
	reply, err := c.walker(ctx, "list_agents", map[string]any{})
	if err != nil {
		return nil, err
	}

	var agents []models.Agent
	if err := extract(allReports, reply, &agents); err != nil {
		return nil, fmt.Errorf("failed to read agents: %w", err)
	}
	return agents, nil
}

func (c *Client) GetAgent(ctx context.Context, agentID string) (*models.Agent, error) {
	reply, err := c.walker(ctx, "get_agent", map[string]any{"agent_id": agentID})
	if err != nil {
		return nil, err
	}

	var agent *models.Agent
	if err := extract(firstReport, reply, &agent); err != nil {
		return nil, fmt.Errorf("failed to read agent: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s not found", agentID)
	}
	return agent, nil
}

// GetAvatar returns the agent's avatar as a data URI, or an empty string
// when the agent has none.
func (c *Client) GetAvatar(ctx context.Context, agentID string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := [][2]string{
		{"args", `{"base64_prefix": false}`},
		{"module_root", avatarModuleRoot},
		{"agent_id", agentID},
		{"walker", avatarWalker},
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return "", fmt.Errorf("failed to build avatar form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build avatar form: %w", err)
	}

	reply, err := c.post(ctx, "/action/walker", writer.FormDataContentType(), body.Bytes())
	if err != nil {
		return "", err
	}

	return avatarDataURI(reply), nil
}

func avatarDataURI(reply any) string {
	encoded, ok := reply.(string)
	if !ok || len(encoded) == 0 || strings.Contains(encoded, "unable") {
		return ""
	}
	return "data:image/png;base64," + encoded
}

// SelectAgent records the agent the console pages operate on.
func (c *Client) SelectAgent(agentID string) error {
	return c.Store().Set(models.AgentKey, agentID)
}

func (c *Client) SelectedAgent() (string, bool) {
	agentID, ok := c.Store().Get(models.AgentKey)
	return agentID, ok && len(agentID) > 0
}

// ClearSelectedAgent forgets the selected agent, used when it can no longer
// be loaded.
func (c *Client) ClearSelectedAgent() error {
	return c.Store().Delete(models.AgentKey)
}

// SelectedAgentInfo loads the selected agent with its avatar. A missing
// avatar is not an error unless the credential was rejected.
func (c *Client) SelectedAgentInfo(ctx context.Context) (*models.Agent, error) {
	agentID, ok := c.SelectedAgent()
	if !ok {
		return nil, nil
	}

	agent, err := c.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	thumbnail, err := c.GetAvatar(ctx, agent.ID)
	if errors.Is(err, fetch.ErrUnauthorized) {
		return nil, err
	}
	if err != nil {
		logrus.WithError(err).WithField("agent_id", agent.ID).Debugln("Failed to load agent avatar")
	}
	agent.Thumbnail = thumbnail

	return agent, nil
}
