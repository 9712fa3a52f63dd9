package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/jivas-io/jvmanager/internal/jivas"
	"github.com/jivas-io/jvmanager/internal/models"
)

const defaultHealthInterval = 30 * time.Second

// UpstreamMonitor polls the platform's health endpoint on a schedule and
// keeps the latest result for /health and /ready.
type UpstreamMonitor struct {
	client   *jivas.Client
	clock    clockwork.Clock
	interval time.Duration

	mu        sync.RWMutex
	last      models.UpstreamHealth
	scheduler *gocron.Scheduler
}

func NewUpstreamMonitor(client *jivas.Client, clock clockwork.Clock, interval time.Duration) *UpstreamMonitor {
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	return &UpstreamMonitor{
		client:   client,
		clock:    clock,
		interval: interval,
		last:     models.UpstreamHealth{State: models.HealthStatusUnknown},
	}
}

// Check probes the platform once and records the result.
func (m *UpstreamMonitor) Check(ctx context.Context) models.UpstreamHealth {
	health := m.client.Health(ctx, m.clock.Now())

	m.mu.Lock()
	previous := m.last.State
	m.last = health
	m.mu.Unlock()

	if previous != health.State {
		entry := logrus.WithFields(logrus.Fields{
			"host":  health.Host,
			"state": health.State,
		})
		if health.State == models.HealthStatusUnhealthy {
			entry.WithField("error", health.Error).Warnln("Jivas platform is unhealthy")
		} else {
			entry.Infoln("Jivas platform health changed")
		}
	}

	return health
}

func (m *UpstreamMonitor) Last() models.UpstreamHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Start schedules Check every interval, beginning immediately.
func (m *UpstreamMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scheduler != nil {
		return nil
	}

	scheduler := gocron.NewScheduler(time.UTC)
	_, err := scheduler.Every(m.interval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.interval)
		defer cancel()
		m.Check(ctx)
	})
	if err != nil {
		return err
	}

	scheduler.StartAsync()
	m.scheduler = scheduler

	logrus.WithField("interval", m.interval.String()).Debugln("Upstream health polling started")

	return nil
}

// Stop waits for a running check, so the lock is released first.
func (m *UpstreamMonitor) Stop() {
	m.mu.Lock()
	scheduler := m.scheduler
	m.scheduler = nil
	m.mu.Unlock()

	if scheduler != nil {
		scheduler.Stop()
	}
}
