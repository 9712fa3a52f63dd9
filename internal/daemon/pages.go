package daemon

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jivas-io/jvmanager/internal/common"
	"github.com/jivas-io/jvmanager/internal/fetch"
	"github.com/jivas-io/jvmanager/internal/jivas"
	"github.com/jivas-io/jvmanager/internal/models"
)

const defaultReportDays = 7

// TemplateData is shared by every console page.
type TemplateData struct {
	ServiceName   string
	Version       string
	Path          string
	Host          string
	Authenticated bool
	Agent         *models.Agent
}

type ErrorPageData struct {
	TemplateData
	Error models.ErrorResponse
}

type LoginPageData struct {
	TemplateData
	Email     string
	CSRFToken string
	Error     string
}

type DashboardPageData struct {
	TemplateData
	Dashboard *models.Dashboard
}

type AgentsPageData struct {
	TemplateData
	Agents    []models.Agent
	Selected  string
	CSRFToken string
}

type ActionView struct {
	models.Action
	Title       string
	Description template.HTML
}

type ActionsPageData struct {
	TemplateData
	Actions []ActionView
}

type GraphPageData struct {
	TemplateData
	RootID    string
	ViewerURL string
}

func (s *Server) GetTemplateData(c *gin.Context) TemplateData {
	data := TemplateData{
		ServiceName: "JIVAS Manager",
		Version:     s.GetVersion(),
		Path:        c.Request.URL.Path,
	}

	if value, ok := c.Get(ClientContextKey); ok {
		if client, ok := value.(*jivas.Client); ok {
			data.Host, _ = client.Host()
			token, _ := client.Store().Get(models.TokenKey)
			data.Authenticated = len(token) > 0
		}
	}

	return data
}

// getErrorPage handles the request for the error page
func (s *Server) getErrorPage(c *gin.Context, code int, message string, err ...error) {
	var messages []string

	for _, e := range err {
		if e == nil {
			continue
		}
		LogWithCorrelation(c).WithError(e).Errorln(message)
		messages = append(messages, e.Error())
	}
	if len(messages) == 0 {
		LogWithCorrelation(c).WithField("code", code).Errorln(message)
	}

	errorMessage := strings.Join(messages, ". ")
	if code == http.StatusInternalServerError {
		errorMessage = fmt.Sprintf("An internal error occurred. Details are available in the logs at: %s.",
			s.Clock.Now().UTC().Format("2006-01-02 15:04:05"))
	}

	response := models.ErrorResponse{
		Code:    code,
		Title:   message,
		Message: errorMessage,
	}

	if s.canAcceptHtml(c) {
		s.renderHtml(c, code, "error.html", ErrorPageData{
			TemplateData: s.GetTemplateData(c),
			Error:        response,
		})
	} else {
		c.JSON(code, response)
	}

	c.Abort()
}

func (s *Server) renderHtml(c *gin.Context, code int, name string, data any) {
	var body bytes.Buffer
	if err := s.GetTemplateEngine().ExecuteTemplate(&body, name, data); err != nil {
		LogWithCorrelation(c).WithError(err).WithField("template", name).Errorln("Failed to render page")
		c.String(http.StatusInternalServerError, "Error rendering page: %v", err)
		return
	}
	c.Data(code, "text/html; charset=utf-8", body.Bytes())
}

func (s *Server) getLoginPage(c *gin.Context) {
	s.renderLogin(c, http.StatusOK, "")
}

func (s *Server) renderLogin(c *gin.Context, code int, message string) {
	token, err := setCSRFToken(c)
	if err != nil {
		s.getErrorPage(c, http.StatusInternalServerError, "Failed to prepare login form", err)
		return
	}

	email := c.PostForm("email")
	if len(email) == 0 {
		email = s.Config.Jivas.User
	}

	s.renderHtml(c, code, "login.html", LoginPageData{
		TemplateData: s.GetTemplateData(c),
		Email:        email,
		CSRFToken:    token,
		Error:        message,
	})
}

type loginForm struct {
	Host      string `form:"host"`
	Email     string `form:"email" binding:"required"`
	Password  string `form:"password" binding:"required"`
	CSRFToken string `form:"csrf_token"`
}

func (s *Server) postLogin(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderLogin(c, http.StatusBadRequest, "Email and password are required.")
		return
	}

	if !validateAndClearCSRFToken(c, form.CSRFToken) {
		s.renderLogin(c, http.StatusForbidden, "Your login form expired. Please try again.")
		return
	}

	client := getClient(c)

	_, err := client.Login(c.Request.Context(), form.Host, form.Email, form.Password)
	switch {
	case err == nil:
	case errors.Is(err, jivas.ErrInvalidLogin):
		s.renderLogin(c, http.StatusUnauthorized, "Invalid email or password.")
		return
	case errors.Is(err, jivas.ErrNoHost), errors.Is(err, jivas.ErrInvalidHost):
		s.renderLogin(c, http.StatusBadRequest, err.Error())
		return
	default:
		LogWithCorrelation(c).WithError(err).Warnln("Login failed")
		s.renderLogin(c, http.StatusBadGateway, "Unable to reach the Jivas platform.")
		return
	}

	LogWithCorrelation(c).WithField("email", form.Email).Infoln("User logged in")

	c.Redirect(http.StatusSeeOther, s.Config.GetHomePath())
}

func (s *Server) getLogout(c *gin.Context) {
	if err := getClient(c).Logout(); err != nil {
		s.getErrorPage(c, http.StatusInternalServerError, "Failed to log out", err)
		return
	}
	c.Redirect(http.StatusSeeOther, s.Config.GetLoginPath())
}

// requireSelectedAgent loads the selected agent. When it returns false the
// response has been written: no agent is selected, or the selection could
// not be loaded and was cleared.
func (s *Server) requireSelectedAgent(c *gin.Context) (*models.Agent, bool) {
	client := getClient(c)

	agent, err := client.SelectedAgentInfo(c.Request.Context())
	if err != nil {
		if errors.Is(err, fetch.ErrUnauthorized) {
			s.handleUpstreamError(c, err)
			return nil, false
		}

		LogWithCorrelation(c).WithError(err).Warnln("Selected agent could not be loaded, clearing selection")
		if err := client.ClearSelectedAgent(); err != nil {
			LogWithCorrelation(c).WithError(err).Errorln("Failed to clear selected agent")
		}
		agent = nil
	}

	if agent == nil {
		c.Redirect(http.StatusSeeOther, "/agents")
		c.Abort()
		return nil, false
	}

	return agent, true
}

// reportQuery reads start_date, end_date and timezone from the query string.
// A window such as P30D or 72h replaces start_date. The default covers the
// last seven days.
func (s *Server) reportQuery(c *gin.Context, agentID string) (models.ReportQuery, error) {
	now := s.Clock.Now()

	end := now
	if raw := c.Query("end_date"); len(raw) > 0 {
		parsed, err := time.Parse(models.ReportDateLayout, raw)
		if err != nil {
			return models.ReportQuery{}, fmt.Errorf("invalid end_date %q", raw)
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -(defaultReportDays - 1))
	if raw := c.Query("start_date"); len(raw) > 0 {
		parsed, err := time.Parse(models.ReportDateLayout, raw)
		if err != nil {
			return models.ReportQuery{}, fmt.Errorf("invalid start_date %q", raw)
		}
		start = parsed
	}
	if raw := c.Query("window"); len(raw) > 0 {
		window, err := common.ParseWindow(raw, end)
		if err != nil {
			return models.ReportQuery{}, err
		}
		start = end.Add(-window)
	}

	return models.NewReportQuery(agentID, start, end, c.DefaultQuery("timezone", "UTC")), nil
}

func (s *Server) getDashboardPage(c *gin.Context) {
	agent, ok := s.requireSelectedAgent(c)
	if !ok {
		return
	}

	query, err := s.reportQuery(c, agent.ID)
	if err != nil {
		s.getErrorPage(c, http.StatusBadRequest, "Invalid report range", err)
		return
	}

	dashboard, err := getClient(c).Dashboard(c.Request.Context(), query)
	if err != nil {
		s.handleUpstreamError(c, err)
		return
	}

	data := s.GetTemplateData(c)
	data.Agent = agent

	s.renderHtml(c, http.StatusOK, "dashboard.html", DashboardPageData{
		TemplateData: data,
		Dashboard:    dashboard,
	})
}

func (s *Server) getAgentsPage(c *gin.Context) {
	client := getClient(c)

	agents, err := client.ListAgents(c.Request.Context())
	if err != nil {
		s.handleUpstreamError(c, err)
		return
	}

	selected, _ := client.SelectedAgent()

	token, err := setCSRFToken(c)
	if err != nil {
		s.getErrorPage(c, http.StatusInternalServerError, "Failed to prepare agent selection", err)
		return
	}

	data := s.GetTemplateData(c)
	for i := range agents {
		if agents[i].ID == selected {
			data.Agent = &agents[i]
		}
	}

	s.renderHtml(c, http.StatusOK, "agents.html", AgentsPageData{
		TemplateData: data,
		Agents:       agents,
		Selected:     selected,
		CSRFToken:    token,
	})
}

func (s *Server) postSelectAgent(c *gin.Context) {
	if !validateAndClearCSRFToken(c, c.PostForm("csrf_token")) {
		s.getErrorPage(c, http.StatusForbidden, "Agent selection expired, reload the agents page")
		return
	}

	agentID := strings.TrimSpace(c.PostForm("agent_id"))
	if len(agentID) == 0 {
		s.getErrorPage(c, http.StatusBadRequest, "No agent selected")
		return
	}

	if err := getClient(c).SelectAgent(agentID); err != nil {
		s.getErrorPage(c, http.StatusInternalServerError, "Failed to select agent", err)
		return
	}

	LogWithCorrelation(c).WithField("agent_id", agentID).Debugln("Agent selected")

	c.Redirect(http.StatusSeeOther, s.Config.GetHomePath())
}

func (s *Server) getActionsPage(c *gin.Context) {
	agent, ok := s.requireSelectedAgent(c)
	if !ok {
		return
	}

	actions, err := getClient(c).ListActions(c.Request.Context(), agent.ID)
	if err != nil {
		s.handleUpstreamError(c, err)
		return
	}

	sorted := jivas.SortActions(actions)
	views := make([]ActionView, 0, len(sorted))
	for _, action := range sorted {
		views = append(views, ActionView{
			Action:      action,
			Title:       action.Title(),
			Description: s.renderMarkdown(actionDescription(action)),
		})
	}

	data := s.GetTemplateData(c)
	data.Agent = agent

	s.renderHtml(c, http.StatusOK, "actions.html", ActionsPageData{
		TemplateData: data,
		Actions:      views,
	})
}

func actionDescription(action models.Action) string {
	if action.Package != nil && len(action.Package.Meta.Description) > 0 {
		return action.Package.Meta.Description
	}
	return action.Description
}

// renderMarkdown converts action descriptions. Raw HTML in the source is
// dropped by the renderer.
func (s *Server) renderMarkdown(source string) template.HTML {
	if len(source) == 0 {
		return ""
	}

	var out bytes.Buffer
	if err := s.Markdown.Convert([]byte(source), &out); err != nil {
		logrus.WithError(err).Debugln("Failed to render markdown")
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(out.String())
}

func (s *Server) getGraphPage(c *gin.Context) {
	agent, ok := s.requireSelectedAgent(c)
	if !ok {
		return
	}

	client := getClient(c)
	rootID, _ := client.Store().Get(models.RootIDKey)

	data := s.GetTemplateData(c)
	data.Agent = agent

	s.renderHtml(c, http.StatusOK, "graph.html", GraphPageData{
		TemplateData: data,
		RootID:       rootID,
		ViewerURL:    s.Config.Console.GraphURL,
	})
}
