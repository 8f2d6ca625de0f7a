// Package logrus adapts a logrus logger to routedcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/routedcache"
)

var _ routedcache.Logger = Logger{}

// Logger writes router events through a logrus entry, so fields set on the
// entry (service, component) are kept on every line.
type Logger struct{ E *logrus.Entry }

// New wraps l and tags every line with component=routedcache.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "routedcache")}
}

func (l Logger) Debug(msg string, f routedcache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f routedcache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f routedcache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f routedcache.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f routedcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}
