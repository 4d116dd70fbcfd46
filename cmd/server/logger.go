package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	temporallog "go.temporal.io/sdk/log"
)

// temporalLogger routes Temporal SDK logs through logrus.
type temporalLogger struct {
	entry *logrus.Entry
}

var _ temporallog.Logger = (*temporalLogger)(nil)

func newTemporalLogger(logger *logrus.Logger) *temporalLogger {
	return &temporalLogger{entry: logger.WithField("component", "temporal")}
}

func (l *temporalLogger) Debug(msg string, keyvals ...interface{}) {
	l.with(keyvals).Debug(msg)
}

func (l *temporalLogger) Info(msg string, keyvals ...interface{}) {
	l.with(keyvals).Info(msg)
}

func (l *temporalLogger) Warn(msg string, keyvals ...interface{}) {
	l.with(keyvals).Warn(msg)
}

func (l *temporalLogger) Error(msg string, keyvals ...interface{}) {
	l.with(keyvals).Error(msg)
}

func (l *temporalLogger) with(keyvals []interface{}) *logrus.Entry {
	fields := make(logrus.Fields, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fields[fmt.Sprint(keyvals[i])] = keyvals[i+1]
	}
	if len(keyvals)%2 == 1 {
		fields["extra"] = keyvals[len(keyvals)-1]
	}
	return l.entry.WithFields(fields)
}
