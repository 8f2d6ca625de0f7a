// Package asynchook moves routedcache.Hooks callbacks off the calling
// goroutine. Events are queued to a fixed worker pool and dropped when the
// queue is full, so a slow sink never stalls routing.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{BulkEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000)
//	defer hooks.Close()
//
//	router, _ := routedcache.New(routedcache.Options{Fallback: local, Hooks: hooks})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/routedcache"
)

type Hooks struct {
	inner   routedcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against concurrent sends
	closed  bool
	dropped atomic.Uint64
}

var _ routedcache.Hooks = (*Hooks)(nil)

// New starts workers goroutines draining a queue of qlen events.
// workers <= 0 => 1, qlen <= 0 => 1024.
func New(inner routedcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are
// dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) RulePushed(rule string, total int) {
	h.try(func() { h.inner.RulePushed(rule, total) })
}

func (h *Hooks) BulkDispatched(op, rule string, keys int) {
	h.try(func() { h.inner.BulkDispatched(op, rule, keys) })
}

func (h *Hooks) CapabilityMissing(op, rule string) {
	h.try(func() { h.inner.CapabilityMissing(op, rule) })
}

func (h *Hooks) ProviderCloseFailed(rule string, err error) {
	h.try(func() { h.inner.ProviderCloseFailed(rule, err) })
}
