package jivas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/jivas-io/jvmanager/internal/models"
)

var ErrInvalidLogin = errors.New("invalid email or password")

// Login exchanges credentials for a bearer token at host and persists the
// session. The request is sent without any stored credential.
func (c *Client) Login(ctx context.Context, host string, email string, password string) (*models.LoginResponse, error) {
	if len(host) == 0 {
		host = c.defaultHost
	}
	if len(host) == 0 {
		return nil, ErrNoHost
	}

	host, err := NormalizeHost(host)
	if err != nil {
		return nil, err
	}

	var result models.LoginResponse

	req := c.fetch.Resty().R()
	req.Header = c.headers("application/json")

	resp, err := req.
		SetContext(ctx).
		SetBody(models.LoginRequest{Email: email, Password: password}).
		SetResult(&result).
		Post(host + "/user/login")
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized,
		resp.StatusCode() == http.StatusBadRequest,
		resp.StatusCode() == http.StatusNotFound,
		resp.StatusCode() == http.StatusUnprocessableEntity:
		return nil, ErrInvalidLogin
	case resp.IsError():
		return nil, fmt.Errorf("%w: login returned %s", ErrUnexpectedStatus, resp.Status())
	}

	if len(result.Token) == 0 {
		return nil, fmt.Errorf("login response did not include a token")
	}

	store := c.Store()

	if err := store.Set(models.HostKey, host); err != nil {
		return nil, fmt.Errorf("failed to store host: %w", err)
	}

	if err := models.WriteCredential(store, result.Token, tokenExpiry(result)); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	if len(result.User.RootID) > 0 {
		if err := store.Set(models.RootIDKey, result.User.RootID); err != nil {
			return nil, fmt.Errorf("failed to store root id: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"host":  host,
		"email": result.User.Email,
	}).Infoln("Logged in to Jivas")

	return &result, nil
}

// Logout forgets the credential. The host and selected agent are kept so the
// next login is prefilled.
func (c *Client) Logout() error {
	return models.ClearCredential(c.Store())
}

// tokenExpiry prefers the expiration reported with the user and falls back
// to the token's own exp claim. The token is not verified; the platform
// remains the authority on validity.
func tokenExpiry(resp models.LoginResponse) *time.Time {
	if resp.User.Expiration > 0 {
		expiry := time.Unix(resp.User.Expiration, 0)
		return &expiry
	}

	token, _, err := jwt.NewParser().ParseUnverified(resp.Token, jwt.MapClaims{})
	if err != nil {
		logrus.WithError(err).Debugln("Token is not a JWT, expiry unknown")
		return nil
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}

	expiry := exp.Time
	return &expiry
}
