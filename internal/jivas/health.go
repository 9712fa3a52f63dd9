package jivas

import (
	"context"
	"fmt"
	"time"

	"github.com/jivas-io/jvmanager/internal/models"
)

// Health probes the platform's unauthenticated /healthz endpoint.
func (c *Client) Health(ctx context.Context, now time.Time) models.UpstreamHealth {
	health := models.UpstreamHealth{
		State:     models.HealthStatusUnknown,
		CheckedAt: now.UTC(),
	}

	host, err := c.Host()
	if err != nil {
		health.Error = err.Error()
		return health
	}
	health.Host = host

	resp, err := c.fetch.Resty().R().SetContext(ctx).Get(host + "/healthz")
	if err != nil {
		health.State = models.HealthStatusUnhealthy
		health.Error = err.Error()
		return health
	}

	if resp.IsError() {
		health.State = models.HealthStatusUnhealthy
		health.Error = fmt.Sprintf("healthz returned %s", resp.Status())
		return health
	}

	health.State = models.HealthStatusHealthy
	return health
}
