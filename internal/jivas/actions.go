package jivas

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jivas-io/jvmanager/internal/models"
)

// Actions with this label are internal to the interact pipeline and are never
// listed.
const exitInteractAction = "ExitInteractAction"

func (c *Client) ListActions(ctx context.Context, agentID string) ([]models.Action, error) {
	reply, err := c.walker(ctx, "list_actions", map[string]any{"agent_id": agentID})
	if err != nil {
		return nil, err
	}

	var actions []models.Action
	if err := extract(firstReport, reply, &actions); err != nil {
		return nil, fmt.Errorf("failed to read actions: %w", err)
	}
	return actions, nil
}

// SortActions orders actions by title using locale-aware comparison and
// removes internal actions. The input slice is not modified.
func SortActions(actions []models.Action) []models.Action {
	collator := collate.New(language.English)

	out := make([]models.Action, 0, len(actions))
	for _, action := range actions {
		if action.Label == exitInteractAction {
			continue
		}
		out = append(out, action)
	}

	slices.SortStableFunc(out, func(a, b models.Action) int {
		return collator.CompareString(a.Title(), b.Title())
	})

	return out
}
