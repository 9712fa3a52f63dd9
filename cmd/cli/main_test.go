package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jivas-io/jvmanager/internal/models"
)

func TestCommandPath(t *testing.T) {
	assert.Equal(t, "/login", commandPath(loginCmd))
	assert.Equal(t, "/agents/list", commandPath(agentsListCmd))
	assert.Equal(t, "/service/status", commandPath(serviceStatusCmd))
	assert.Equal(t, "/", commandPath(rootCmd))
}

func TestFilterAgents(t *testing.T) {
	agents := []models.Agent{
		{ID: "n::1", Name: "Support Bot"},
		{ID: "n::2", Name: "Sales"},
	}

	assert.Len(t, filterAgents(agents, ""), 2)
	assert.Equal(t, []models.Agent{agents[0]}, filterAgents(agents, "support"))
	assert.Equal(t, []models.Agent{agents[1]}, filterAgents(agents, "n::2"))
	assert.Empty(t, filterAgents(agents, "missing"))
}

func TestReportTotal(t *testing.T) {
	assert.Equal(t, float64(3), reportTotal(models.Report{"total": float64(3)}))
	assert.Equal(t, "-", reportTotal(models.Report{}))
	assert.Equal(t, "-", reportTotal(nil))
}
