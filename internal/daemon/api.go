package daemon

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jivas-io/jvmanager/internal/config"
	"github.com/jivas-io/jvmanager/internal/guard"
	"github.com/jivas-io/jvmanager/internal/models"
)

// SessionResponse reports what the guard would decide for a navigation.
type SessionResponse struct {
	Path          string        `json:"path"`
	Outcome       guard.Outcome `json:"outcome"`
	Authenticated bool          `json:"authenticated"`
	Host          string        `json:"host,omitempty"`
	Agent         string        `json:"agent,omitempty"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
}

// getSession evaluates the guard for ?path= (the home page by default)
// without redirecting.
func (s *Server) getSession(c *gin.Context) {
	path := c.DefaultQuery("path", s.Config.GetHomePath())
	if !strings.HasPrefix(path, "/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path must start with /"})
		return
	}

	outcome := s.checkGuard(c, path)

	client := getClient(c)
	response := SessionResponse{
		Path:          path,
		Outcome:       outcome,
		Authenticated: outcome.Reason == guard.ReasonAuthenticated || outcome.Reason == guard.ReasonNoExpiry,
	}
	response.Host, _ = client.Host()
	response.Agent, _ = client.SelectedAgent()

	if cred := models.ReadCredential(client.Store()); cred.HasToken && cred.HasExpiry {
		expiry := cred.Expiry.UTC()
		response.ExpiresAt = &expiry
	}

	c.JSON(http.StatusOK, response)
}

// getLogs serves the in-memory log buffer. Supports ?level=warn,error,
// ?since=RFC3339 and ?limit=N.
func (s *Server) getLogs(c *gin.Context) {
	logger := s.Config.GetLogger()
	if logger == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []*models.LogEntry{}})
		return
	}

	var filter config.LogFilter

	for _, raw := range strings.Split(c.Query("level"), ",") {
		if len(strings.TrimSpace(raw)) == 0 {
			continue
		}
		level, err := logrus.ParseLevel(strings.TrimSpace(raw))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Levels = append(filter.Levels, level)
	}

	if raw := c.Query("since"); len(raw) > 0 {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC3339 timestamp"})
			return
		}
		filter.Since = &since
	}

	if raw := c.Query("limit"); len(raw) > 0 {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
			return
		}
		filter.Limit = limit
	}

	c.JSON(http.StatusOK, gin.H{
		"instance": logger.Instance(),
		"entries":  logger.GetEventsWithFilter(filter),
	})
}

func (s *Server) getAgents(c *gin.Context) {
	client := getClient(c)

	agents, err := client.ListAgents(c.Request.Context())
	if err != nil {
		s.handleAPIError(c, err)
		return
	}

	selected, _ := client.SelectedAgent()

	c.JSON(http.StatusOK, gin.H{
		"agents":   agents,
		"selected": selected,
	})
}

func (s *Server) getDashboard(c *gin.Context) {
	client := getClient(c)

	agentID := c.Query("agent_id")
	if len(agentID) == 0 {
		agentID, _ = client.SelectedAgent()
	}
	if len(agentID) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no agent selected"})
		return
	}

	query, err := s.reportQuery(c, agentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dashboard, err := client.Dashboard(c.Request.Context(), query)
	if err != nil {
		s.handleAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// handleAPIError reports a rejected credential as 401 with the login page
// as location; JSON clients cannot follow a forced navigation.
func (s *Server) handleAPIError(c *gin.Context, err error) {
	if target, ok := getNavigator(c).Target(); ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":    "credential rejected",
			"location": target,
		})
		return
	}

	LogWithCorrelation(c).WithError(err).Warnln("Platform request failed")
	c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
