// Package daemon serves the JVManager web console. Each request carries its
// own credential store, backed by the session cookie, and its own navigator,
// so the session guard and the authenticated client behave per browser.
package daemon

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jivas-io/jvmanager/internal/common"
	"github.com/jivas-io/jvmanager/internal/config"
	"github.com/jivas-io/jvmanager/internal/fetch"
	"github.com/jivas-io/jvmanager/internal/guard"
	"github.com/jivas-io/jvmanager/internal/jivas"
	"github.com/jivas-io/jvmanager/internal/metrics"
	"github.com/jivas-io/jvmanager/internal/models"
	jvsessions "github.com/jivas-io/jvmanager/internal/sessions"
)

// SessionCookieName holds the console's credential store.
const SessionCookieName = "jvmanager"

//go:embed static/*
var staticFiles embed.FS

type Option func(*Server)

// WithClock replaces the clock used by the session guard and the upstream
// monitor.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		s.Clock = clock
	}
}

// WithHTTPClient replaces the client used for platform calls.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Server) {
		s.httpClient = client
	}
}

func NewServer(cfg *config.Config, opts ...Option) *Server {
	funcMap := template.FuncMap{
		"toJSON": func(v any) string {
			jsonBytes, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return fmt.Sprintf("Error: %v", err)
			}
			return string(jsonBytes)
		},
		// Avatars arrive as data URIs, which html/template rejects
		"imageURL": func(uri string) template.URL {
			if strings.HasPrefix(uri, "data:image/") {
				return template.URL(uri)
			}
			return ""
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "never"
			}
			return t.UTC().Format("2006-01-02 15:04:05 MST")
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(staticFiles, "static/*.html")
	if err != nil {
		logrus.WithError(err).Fatal("Failed to parse templates")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := &Server{
		Config:         cfg,
		TemplateEngine: tmpl,
		Clock:          clockwork.NewRealClock(),
		Registry:       registry,
		Metrics: metrics.New(
			metrics.WithNamespace(cfg.Server.Metrics.Namespace),
			metrics.WithRegistry(registry),
		),
		Markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		httpClient: &http.Client{
			Timeout:   cfg.Jivas.Timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}

	for _, opt := range opts {
		opt(server)
	}

	server.StartTime = server.Clock.Now().UTC()
	server.Upstream = NewUpstreamMonitor(
		server.newClient(jvsessions.NewMemoryStore(), nil),
		server.Clock,
		cfg.Jivas.HealthInterval,
	)
	server.loginLimiter = NewRateLimiter(
		float64(cfg.Server.Limits.LoginRequestsPerMinute)/60,
		cfg.Server.Limits.LoginBurst,
		server.Clock,
	)
	server.router = server.newRouter()

	return server
}

// Server represents the web console
type Server struct {
	Config         *config.Config
	TemplateEngine *template.Template
	Clock          clockwork.Clock
	Registry       *prometheus.Registry
	Metrics        *metrics.Metrics
	Markdown       goldmark.Markdown
	Upstream       *UpstreamMonitor
	StartTime      time.Time
	TotalRequests  int64

	httpClient   *http.Client
	loginLimiter *RateLimiter
	router       *gin.Engine
	server       *http.Server
}

func (s *Server) GetConfig() *config.Config {
	return s.Config
}

func (s *Server) GetVersion() string {
	return common.GetVersion()
}

func (s *Server) GetTemplateEngine() *template.Template {
	return s.TemplateEngine
}

// Handler exposes the routed console, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// newClient builds a platform client over store. Each call gets its own
// resty wrapper around the shared transport.
func (s *Server) newClient(store jvsessions.Store, navigator fetch.Navigator) *jivas.Client {
	fetcher := fetch.New(store, navigator,
		fetch.WithRestyClient(resty.NewWithClient(s.httpClient)),
		fetch.WithObserver(s.Metrics),
		fetch.WithLoginPath(s.Config.GetLoginPath()),
	)
	return jivas.NewClient(fetcher, s.Config.GetJivasHost())
}

func (s *Server) newGuard(store jvsessions.Store) *guard.Guard {
	return guard.New(store,
		guard.WithClock(s.Clock),
		guard.WithLoginPath(s.Config.GetLoginPath()),
	)
}

// Start initializes and starts the web service
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	if err := s.Upstream.Start(); err != nil {
		return fmt.Errorf("failed to start upstream monitor: %w", err)
	}

	addr := s.Config.GetServerAddress()
	logrus.WithField("address", addr).Infoln("Starting web console")

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.Config.Server.Limits.ReadTimeout,
		WriteTimeout: s.Config.Server.Limits.WriteTimeout,
		IdleTimeout:  s.Config.Server.Limits.IdleTimeout,
	}

	s.server = server

	errChan := make(chan error, 1)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Surface bind failures to the caller
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start server: %w", err)
	case <-time.After(100 * time.Millisecond):
		logrus.WithField("url", s.Config.GetLocalServerUrl()).Infoln("Web console started")
		return nil
	}
}

func (s *Server) Stop() {
	s.Upstream.Stop()
	s.loginLimiter.Stop()

	if s.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Errorln("Server shutdown failed")
	}
	logrus.Infoln("Web console stopped")
}

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()

	router.Use(CorrelationMiddleware())
	router.Use(s.requestLogMiddleware())
	router.Use(gin.CustomRecovery(s.recoverPanic))
	router.Use(s.requestMetricsMiddleware())
	router.Use(sessions.Sessions(SessionCookieName, getSessionStore(
		s.sessionSecret(),
		s.Config.Server.Security.SecureCookies,
	)))

	router.SetHTMLTemplate(s.TemplateEngine)

	s.setupRoutes(router)

	return router
}

// setupRoutes configures all the HTTP routes
func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/styles.css", s.getStyle)

	if s.Config.Server.Health.Enabled {
		router.GET(s.Config.Server.Health.Path, s.healthHandler)
	}

	if s.Config.Server.Ready.Enabled {
		router.GET(s.Config.Server.Ready.Path, s.readyHandler)
	}

	if s.Config.Server.Metrics.Enabled {
		router.GET(s.Config.Server.Metrics.Path, gin.WrapH(
			promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}),
		))
	}

	loginPath := s.Config.GetLoginPath()

	// The guard never redirects away from the login page but still clears
	// an expired credential.
	router.GET(loginPath, s.ConsoleMiddleware(), s.GuardMiddleware(), s.getLoginPage)
	router.POST(loginPath, s.loginLimiter.Middleware(), s.ConsoleMiddleware(), s.postLogin)
	router.GET("/logout", s.ConsoleMiddleware(), s.getLogout)

	console := router.Group("/", s.ConsoleMiddleware(), s.GuardMiddleware())
	{
		console.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, s.Config.GetHomePath())
		})
		console.GET("/dashboard", s.getDashboardPage)
		console.GET("/agents", s.getAgentsPage)
		console.POST("/agents/select", s.postSelectAgent)
		console.GET("/actions", s.getActionsPage)
		console.GET("/graph", s.getGraphPage)
	}

	cfgCORS := s.Config.Server.Security.CORS

	api := router.Group("/api/v1",
		cors.New(cors.Config{
			AllowOrigins:     cfgCORS.AllowedOrigins,
			AllowMethods:     cfgCORS.AllowedMethods,
			AllowHeaders:     cfgCORS.AllowedHeaders,
			ExposeHeaders:    []string{correlationHeader},
			AllowCredentials: true,
			AllowWildcard:    true,
			MaxAge:           time.Duration(cfgCORS.MaxAge) * time.Second,
		}),
		s.ConsoleMiddleware(),
	)
	{
		api.GET("/session", s.getSession)
		api.GET("/logs", s.APIGuardMiddleware(), s.getLogs)
		api.GET("/agents", s.APIGuardMiddleware(), s.getAgents)
		api.GET("/dashboard", s.APIGuardMiddleware(), s.getDashboard)
	}
}

// healthHandler reports liveness together with the last upstream probe.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    models.HealthStatusHealthy,
		Timestamp: s.Clock.Now().UTC(),
		Version:   s.GetVersion(),
		Upstream:  s.Upstream.Last(),
	})
}

// readyHandler fails only when the platform was probed and found down. A
// console without a configured host is ready; the host is entered at login.
func (s *Server) readyHandler(c *gin.Context) {
	upstream := s.Upstream.Last()

	status := http.StatusOK
	state := "ready"
	if upstream.State == models.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
		state = "unavailable"
	}

	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": s.Clock.Now().UTC().Format(time.RFC3339),
		"version":   s.GetVersion(),
		"uptime":    s.Clock.Now().Sub(s.StartTime).Round(time.Second).String(),
		"requests":  atomic.LoadInt64(&s.TotalRequests),
		"upstream":  upstream,
	})
}

func (s *Server) getStyle(c *gin.Context) {
	c.FileFromFS("static/styles.css", http.FS(staticFiles))
}

// sessionSecret falls back to a per-process secret, which logs every user
// out on restart.
func (s *Server) sessionSecret() string {
	secret := s.Config.GetSecret()
	if len(secret) > 0 && secret != config.DefaultSecret {
		return secret
	}

	generated, err := common.GenerateSecureRandomString(64)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to generate session secret")
	}

	logrus.Warnln("No session secret configured, sessions will not survive a restart")
	return generated
}

func getSessionStore(secret string, secure bool) sessions.Store {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}
