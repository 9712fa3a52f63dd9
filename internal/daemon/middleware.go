package daemon

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jivas-io/jvmanager/internal/fetch"
	"github.com/jivas-io/jvmanager/internal/guard"
	"github.com/jivas-io/jvmanager/internal/jivas"
)

const (
	// Context keys
	StoreContextKey     = "store"
	NavigatorContextKey = "navigator"
	ClientContextKey    = "client"
	OutcomeContextKey   = "outcome"
)

// ConsoleMiddleware attaches the request's credential store, navigator and
// platform client to the context.
func (s *Server) ConsoleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		store := NewCookieStore(sessions.Default(c))
		navigator := fetch.NewPathNavigator(c.Request.URL.Path)

		client := s.newClient(store, navigator)
		if correlationID := GetCorrelationID(c); len(correlationID) > 0 {
			client = client.WithHeader(correlationHeader, correlationID)
		}

		c.Set(StoreContextKey, store)
		c.Set(NavigatorContextKey, navigator)
		c.Set(ClientContextKey, client)

		c.Next()
	}
}

// GuardMiddleware runs the session guard for the requested path and
// redirects to the login page when it says so.
func (s *Server) GuardMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		outcome := s.checkGuard(c, c.Request.URL.Path)

		if outcome.Proceeds() {
			c.Next()
			return
		}

		LogWithCorrelation(c).WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"reason": outcome.Reason,
		}).Debugln("Redirecting to login")

		c.Redirect(http.StatusFound, outcome.Location)
		c.Abort()
	}
}

// APIGuardMiddleware is GuardMiddleware for JSON endpoints: a redirect
// outcome becomes a 401.
func (s *Server) APIGuardMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		outcome := s.checkGuard(c, c.Request.URL.Path)

		if outcome.Proceeds() {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":    "authentication required",
			"reason":   outcome.Reason,
			"location": outcome.Location,
		})
	}
}

func (s *Server) checkGuard(c *gin.Context, path string) guard.Outcome {
	outcome := s.newGuard(getStore(c)).Check(path)
	s.Metrics.ObserveGuard(outcome.Decision.String(), string(outcome.Reason))
	c.Set(OutcomeContextKey, outcome)
	return outcome
}

func (s *Server) requestMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		atomic.AddInt64(&s.TotalRequests, 1)

		started := time.Now()
		c.Next()

		s.Metrics.ObserveHTTP(c.FullPath(), c.Writer.Status(), time.Since(started))
	}
}

func (s *Server) requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		entry := LogWithCorrelation(c).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(started).String(),
			"ip":      c.ClientIP(),
		})

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Warnln("Request failed")
		default:
			entry.Debugln("Request handled")
		}
	}
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	err, ok := recovered.(error)
	if !ok {
		err = errors.New("unexpected panic")
	}

	LogWithCorrelation(c).WithField("panic", recovered).Errorln("Recovered from panic")

	s.getErrorPage(c, http.StatusInternalServerError, "Internal Server Error", err)
}

// handleUpstreamError turns a failed platform call into a response. A
// rejected credential has already been cleared and the navigator holds the
// login page, which becomes a 303.
func (s *Server) handleUpstreamError(c *gin.Context, err error) {
	if target, ok := getNavigator(c).Target(); ok {
		LogWithCorrelation(c).WithError(err).Infoln("Credential rejected, sending to login")
		c.Redirect(http.StatusSeeOther, target)
		c.Abort()
		return
	}

	if errors.Is(err, fetch.ErrUnauthorized) {
		s.getErrorPage(c, http.StatusUnauthorized, "Session rejected", err)
		return
	}

	s.getErrorPage(c, http.StatusBadGateway, "Jivas platform request failed", err)
}

func (s *Server) canAcceptHtml(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

func getStore(c *gin.Context) *CookieStore {
	return c.MustGet(StoreContextKey).(*CookieStore)
}

func getNavigator(c *gin.Context) *fetch.PathNavigator {
	return c.MustGet(NavigatorContextKey).(*fetch.PathNavigator)
}

func getClient(c *gin.Context) *jivas.Client {
	return c.MustGet(ClientContextKey).(*jivas.Client)
}
