// Package jivas is the console's client for the Jivas platform API. Every
// authenticated call goes through fetch.Client.
package jivas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/sirupsen/logrus"

	"github.com/jivas-io/jvmanager/internal/common"
	"github.com/jivas-io/jvmanager/internal/fetch"
	"github.com/jivas-io/jvmanager/internal/models"
	"github.com/jivas-io/jvmanager/internal/sessions"
)

var (
	ErrNoHost           = errors.New("no jivas host configured")
	ErrInvalidHost      = errors.New("invalid jivas host")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// Compiled once; walker replies are {"status": n, "reports": [...]}.
var (
	firstReport = mustCompile(".reports[0] // null")
	allReports  = mustCompile(".reports // []")
)

func mustCompile(expression string) *gojq.Code {
	query, err := gojq.Parse(expression)
	if err != nil {
		panic(fmt.Sprintf("failed to parse jq expression %q: %v", expression, err))
	}
	code, err := gojq.Compile(query)
	if err != nil {
		panic(fmt.Sprintf("failed to compile jq expression %q: %v", expression, err))
	}
	return code
}

type Client struct {
	fetch       *fetch.Client
	defaultHost string
	header      http.Header
}

func NewClient(fetcher *fetch.Client, defaultHost string) *Client {
	return &Client{
		fetch:       fetcher,
		defaultHost: strings.TrimRight(defaultHost, "/"),
	}
}

// WithHeader returns a copy of the client that adds header to every request.
func (c *Client) WithHeader(key string, value string) *Client {
	clone := *c
	clone.header = c.header.Clone()
	if clone.header == nil {
		clone.header = http.Header{}
	}
	clone.header.Set(key, value)
	return &clone
}

func (c *Client) Store() sessions.Store {
	return c.fetch.Store()
}

// Host returns the platform base URL, preferring the one recorded at login.
func (c *Client) Host() (string, error) {
	host, ok := c.Store().Get(models.HostKey)
	if !ok || len(host) == 0 {
		host = c.defaultHost
	}
	if len(host) == 0 {
		return "", ErrNoHost
	}
	return NormalizeHost(host)
}

// NormalizeHost validates an http(s) base URL and strips trailing slashes.
func NormalizeHost(host string) (string, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")

	parsed, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHost, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: %q must use http or https", ErrInvalidHost, host)
	}
	if len(parsed.Host) == 0 {
		return "", fmt.Errorf("%w: %q has no hostname", ErrInvalidHost, host)
	}
	return host, nil
}

func (c *Client) headers(contentType string) http.Header {
	header := c.header.Clone()
	if header == nil {
		header = http.Header{}
	}
	if len(contentType) > 0 {
		header.Set("Content-Type", contentType)
	}
	return header
}

// post sends an authenticated POST and decodes the JSON reply.
func (c *Client) post(ctx context.Context, path string, contentType string, body any) (any, error) {
	host, err := c.Host()
	if err != nil {
		return nil, err
	}

	endpoint := host + path

	resp, err := c.fetch.Fetch(ctx, endpoint, fetch.Options{
		Method: http.MethodPost,
		Header: c.headers(contentType),
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s returned %s", ErrUnexpectedStatus, path, resp.Status())
	}

	var decoded any
	if len(resp.Body()) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return decoded, nil
}

// walker invokes a named walker with a JSON body.
func (c *Client) walker(ctx context.Context, name string, body any) (any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", name, err)
	}

	logrus.WithFields(logrus.Fields{
		"walker": name,
	}).Debugln("Invoking walker")

	return c.post(ctx, "/walker/"+name, "application/json", payload)
}

// extract runs a compiled jq program against a decoded reply and converts
// the first result into out.
func extract(code *gojq.Code, input any, out any) error {
	iter := code.Run(input)
	result, ok := iter.Next()
	if !ok {
		return errors.New("no result from jq evaluation")
	}
	if err, isErr := result.(error); isErr {
		return fmt.Errorf("jq evaluation error: %w", err)
	}
	return common.ConvertInterfaceToInterface(result, out)
}
