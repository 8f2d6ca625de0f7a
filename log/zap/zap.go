// Package zap adapts a zap logger to routedcache.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/routedcache"
)

var _ routedcache.Logger = Logger{}

type Logger struct{ L *zap.Logger }

func New(l *zap.Logger) Logger { return Logger{L: l.Named("routedcache")} }

func (z Logger) Debug(msg string, f routedcache.Fields) { z.log(zapcore.DebugLevel, msg, f) }
func (z Logger) Info(msg string, f routedcache.Fields)  { z.log(zapcore.InfoLevel, msg, f) }
func (z Logger) Warn(msg string, f routedcache.Fields)  { z.log(zapcore.WarnLevel, msg, f) }
func (z Logger) Error(msg string, f routedcache.Fields) { z.log(zapcore.ErrorLevel, msg, f) }

// log skips field conversion when the level is disabled.
func (z Logger) log(lvl zapcore.Level, msg string, f routedcache.Fields) {
	ce := z.L.Check(lvl, msg)
	if ce == nil {
		return
	}
	ce.Write(fields(f)...)
}

// fields sorts keys so repeated events print identically.
func fields(f routedcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
