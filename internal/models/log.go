package models

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogEntry is a buffered log line as served by /api/v1/logs.
type LogEntry struct {
	Data    logrus.Fields `json:"data,omitempty"`
	Time    time.Time     `json:"time"`
	Level   logrus.Level  `json:"level"`
	Message string        `json:"message,omitempty"`
}

// NewLogEntry copies the entry's fields; the logrus entry is reused by the
// logger after the hook returns.
func NewLogEntry(entry *logrus.Entry) *LogEntry {
	data := make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}

	return &LogEntry{
		Data:    data,
		Time:    entry.Time,
		Level:   entry.Level,
		Message: entry.Message,
	}
}
