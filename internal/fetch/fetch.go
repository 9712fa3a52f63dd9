// Package fetch sends requests to the Jivas platform with the stored bearer
// credential attached and handles authorization failures uniformly.
package fetch

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/jivas-io/jvmanager/internal/guard"
	"github.com/jivas-io/jvmanager/internal/models"
	"github.com/jivas-io/jvmanager/internal/sessions"
)

// ErrUnauthorized is returned when the server rejected the credential. The
// stored credential has already been cleared when a caller sees it.
var ErrUnauthorized = errors.New("unauthorized: credential rejected by server")

// Options mirrors a standard request configuration. Header values are sent as
// given, except Authorization which is replaced when a token is stored.
type Options struct {
	Method string
	Header http.Header
	Body   any
}

// Navigator performs the forced navigation to the login page. Navigate must
// be safe to call more than once with the same target.
type Navigator interface {
	Location() string
	Navigate(path string)
}

// Observer receives one call per completed request.
type Observer interface {
	ObserveResponse(method string, status int, elapsed time.Duration)
	ObserveRejected()
}

type Client struct {
	client    *resty.Client
	store     sessions.Store
	navigator Navigator
	observer  Observer
	loginPath string
}

type Option func(*Client)

// WithRestyClient replaces the underlying resty client. Retries configured on
// it are disabled.
func WithRestyClient(client *resty.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.SetTimeout(timeout)
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

func WithLoginPath(path string) Option {
	return func(c *Client) {
		if len(path) > 0 {
			c.loginPath = path
		}
	}
}

func New(store sessions.Store, navigator Navigator, opts ...Option) *Client {
	c := &Client{
		client:    resty.New(),
		store:     store,
		navigator: navigator,
		loginPath: guard.DefaultLoginPath,
	}
	for _, opt := range opts {
		opt(c)
	}

	// A single attempt per call.
	c.client.SetRetryCount(0)

	return c
}

func (c *Client) Store() sessions.Store {
	return c.store
}

func (c *Client) Resty() *resty.Client {
	return c.client
}

// Fetch issues one request to url. Any status other than 401 is returned to
// the caller as received. Transport errors are returned unchanged.
func (c *Client) Fetch(ctx context.Context, url string, opts Options) (*resty.Response, error) {
	method := strings.ToUpper(opts.Method)
	if len(method) == 0 {
		method = http.MethodGet
	}

	req := c.client.R().SetContext(ctx)

	for key, values := range opts.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	if opts.Body != nil {
		req.SetBody(opts.Body)
	}

	if token, ok := c.store.Get(models.TokenKey); ok && len(token) > 0 {
		req.SetAuthToken(token)
	}

	started := time.Now()
	resp, err := req.Execute(method, url)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"url":    url,
			"method": method,
		}).WithError(err).Debugln("Request failed")
		return nil, err
	}

	if c.observer != nil {
		c.observer.ObserveResponse(method, resp.StatusCode(), time.Since(started))
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		c.reject(url)
		return nil, ErrUnauthorized
	}

	return resp, nil
}

// reject clears the credential and sends the user to the login page. It is
// idempotent so concurrent 401s are harmless.
func (c *Client) reject(url string) {
	logrus.WithFields(logrus.Fields{
		"url": url,
	}).Warnln("Credential rejected by server, clearing session")

	if c.observer != nil {
		c.observer.ObserveRejected()
	}

	if err := models.ClearCredential(c.store); err != nil {
		logrus.WithError(err).Errorln("Failed to clear rejected credential")
	}

	if c.navigator == nil {
		return
	}

	if c.navigator.Location() != c.loginPath {
		c.navigator.Navigate(c.loginPath)
	}
}
