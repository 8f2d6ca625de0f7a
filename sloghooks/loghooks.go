// Package sloghooks reports routedcache.Hooks events through log/slog.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/routedcache"
)

type Options struct {
	// Sampling to avoid floods on hot bulk paths; 0/1 = log all.
	BulkEvery uint64
	// CapabilityEvery samples missing-capability events. Keys and TTL calls
	// against a store without them repeat on every request.
	CapabilityEvery uint64
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	bulkCtr atomic.Uint64
	capCtr  atomic.Uint64
}

var _ routedcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) RulePushed(rule string, total int) {
	if h.l == nil {
		return
	}
	h.l.Debug("routedcache.rule_pushed",
		"rule", rule,
		"total", total)
}

func (h *Hooks) BulkDispatched(op, rule string, keys int) {
	if h.l == nil || !sample(h.opts.BulkEvery, &h.bulkCtr) {
		return
	}
	h.l.Debug("routedcache.bulk_dispatched",
		"op", op,
		"rule", rule,
		"keys", keys)
}

func (h *Hooks) CapabilityMissing(op, rule string) {
	if h.l == nil || !sample(h.opts.CapabilityEvery, &h.capCtr) {
		return
	}
	h.l.Info("routedcache.capability_missing",
		"op", op,
		"rule", rule)
}

func (h *Hooks) ProviderCloseFailed(rule string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("routedcache.provider_close_failed",
		"rule", rule,
		"err", err)
}
