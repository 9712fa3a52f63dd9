package config

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jivas-io/jvmanager/internal/models"
)

const defaultLogBufferSize = 1000

// ConsoleLogger is a logrus hook that keeps the most recent entries in a
// ring buffer so the console can show them on /api/v1/logs.
type ConsoleLogger struct {
	instance uuid.UUID
	entries  []*models.LogEntry
	next     int
	full     bool
	mu       sync.RWMutex
}

func NewConsoleLogger(size int) *ConsoleLogger {
	if size <= 0 {
		size = defaultLogBufferSize
	}
	return &ConsoleLogger{
		instance: uuid.New(),
		entries:  make([]*models.LogEntry, size),
	}
}

// Instance identifies this process in exported log batches.
func (l *ConsoleLogger) Instance() uuid.UUID {
	return l.instance
}

func (l *ConsoleLogger) Fire(entry *logrus.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = models.NewLogEntry(entry)
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
	return nil
}

func (l *ConsoleLogger) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
}

func (l *ConsoleLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = make([]*models.LogEntry, len(l.entries))
	l.next = 0
	l.full = false
}

// GetEvents returns the buffered entries, oldest first.
func (l *ConsoleLogger) GetEvents() []*models.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot()
}

func (l *ConsoleLogger) GetRecentEvents(count int) []*models.LogEntry {
	events := l.GetEvents()
	if len(events) <= count {
		return events
	}
	return events[len(events)-count:]
}

// LogFilter contains the filtering criteria for log events
type LogFilter struct {
	// Empty means every level
	Levels []logrus.Level `json:"levels,omitempty"`
	Since  *time.Time     `json:"since,omitempty"`
	Until  *time.Time     `json:"until,omitempty"`
	// Zero means no limit
	Limit int `json:"limit,omitempty"`
}

func (l *ConsoleLogger) GetEventsWithFilter(filter LogFilter) []*models.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	levels := make(map[logrus.Level]bool, len(filter.Levels))
	for _, level := range filter.Levels {
		levels[level] = true
	}

	filtered := []*models.LogEntry{}
	for _, entry := range l.snapshot() {
		if len(levels) > 0 && !levels[entry.Level] {
			continue
		}
		if filter.Since != nil && entry.Time.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && entry.Time.After(*filter.Until) {
			continue
		}

		filtered = append(filtered, entry)

		if filter.Limit > 0 && len(filtered) >= filter.Limit {
			break
		}
	}
	return filtered
}

// snapshot assumes the caller holds the lock.
func (l *ConsoleLogger) snapshot() []*models.LogEntry {
	if !l.full {
		result := make([]*models.LogEntry, l.next)
		copy(result, l.entries[:l.next])
		return result
	}

	result := make([]*models.LogEntry, len(l.entries))
	copy(result, l.entries[l.next:])
	copy(result[len(l.entries)-l.next:], l.entries[:l.next])
	return result
}
