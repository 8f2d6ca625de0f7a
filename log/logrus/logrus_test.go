package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/routedcache"
)

func TestLoggerForwardsLevelAndFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Debug("rule pushed", routedcache.Fields{"rule": "sessions", "total": 2})
	l.Warn("provider close failed", nil)

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != logrus.DebugLevel || entries[0].Data["rule"] != "sessions" {
		t.Fatalf("debug entry: %+v", entries[0])
	}
	if entries[0].Data["component"] != "routedcache" {
		t.Fatalf("component field missing: %+v", entries[0].Data)
	}
	if entries[1].Level != logrus.WarnLevel || entries[1].Message != "provider close failed" {
		t.Fatalf("warn entry: %+v", entries[1])
	}
}
