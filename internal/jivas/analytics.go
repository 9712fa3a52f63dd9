package jivas

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jivas-io/jvmanager/internal/fetch"
	"github.com/jivas-io/jvmanager/internal/models"
)

func (c *Client) report(ctx context.Context, walker string, query models.ReportQuery) (models.Report, error) {
	reply, err := c.walker(ctx, walker, models.ReportRequest{
		Reporting:   true,
		ReportQuery: query,
	})
	if err != nil {
		return nil, err
	}

	var report models.Report
	if err := extract(firstReport, reply, &report); err != nil {
		return nil, fmt.Errorf("failed to read %s report: %w", walker, err)
	}
	if report == nil {
		report = models.Report{}
	}
	return report, nil
}

func (c *Client) GetChannelsByDate(ctx context.Context, query models.ReportQuery) (models.Report, error) {
	return c.report(ctx, "get_channels_by_date", query)
}

// GetInteractionsByDate reports an empty interaction list when the walker
// fails for any reason other than a rejected credential.
func (c *Client) GetInteractionsByDate(ctx context.Context, query models.ReportQuery) (models.Report, error) {
	report, err := c.report(ctx, "get_interactions_by_date", query)
	if err != nil {
		if errors.Is(err, fetch.ErrUnauthorized) {
			return nil, err
		}
		logrus.WithError(err).WithField("agent_id", query.AgentID).Warnln("Interactions report unavailable")
		return emptyInteractions(), nil
	}
	return report, nil
}

func (c *Client) GetUsersByDate(ctx context.Context, query models.ReportQuery) (models.Report, error) {
	return c.report(ctx, "get_users_by_date", query)
}

func emptyInteractions() models.Report {
	return models.Report{
		"total":        0,
		"interactions": []any{},
	}
}

// Dashboard loads the three analytics reports in parallel.
func (c *Client) Dashboard(ctx context.Context, query models.ReportQuery) (*models.Dashboard, error) {
	dashboard := &models.Dashboard{Query: query}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var foundErrors []error

	load := func(name string, fn func(context.Context, models.ReportQuery) (models.Report, error), dst *models.Report) {
		wg.Go(func() {
			report, err := fn(ctx, query)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				foundErrors = append(foundErrors, fmt.Errorf("loading %s: %w", name, err))
				return
			}
			*dst = report
		})
	}

	load("channels", c.GetChannelsByDate, &dashboard.Channels)
	load("interactions", c.GetInteractionsByDate, &dashboard.Interactions)
	load("users", c.GetUsersByDate, &dashboard.Users)

	wg.Wait()

	if len(foundErrors) > 0 {
		return dashboard, errors.Join(foundErrors...)
	}
	return dashboard, nil
}
