package daemon

import (
	"crypto/subtle"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/jivas-io/jvmanager/internal/common"
)

const (
	// Session key for the CSRF token of the last rendered form
	csrfSessionKey = "_jvmanager_csrf"

	csrfTokenLength = 43
)

// setCSRFToken stores a fresh token in the session for the form being
// rendered.
func setCSRFToken(c *gin.Context) (string, error) {
	token, err := common.GenerateSecureRandomString(csrfTokenLength)
	if err != nil {
		return "", err
	}

	session := sessions.Default(c)
	session.Set(csrfSessionKey, token)
	if err := session.Save(); err != nil {
		return "", err
	}

	return token, nil
}

// validateAndClearCSRFToken checks token against the stored one. Tokens are
// single use; the stored token is removed whatever the result.
func validateAndClearCSRFToken(c *gin.Context, token string) bool {
	session := sessions.Default(c)
	stored, _ := session.Get(csrfSessionKey).(string)

	session.Delete(csrfSessionKey)
	if err := session.Save(); err != nil {
		LogWithCorrelation(c).WithError(err).Warnln("Failed to clear CSRF token")
	}

	if len(stored) == 0 || len(token) == 0 {
		LogWithCorrelation(c).Warnln("CSRF validation failed: no token")
		return false
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		LogWithCorrelation(c).Warnln("CSRF validation failed: token mismatch")
		return false
	}

	return true
}
