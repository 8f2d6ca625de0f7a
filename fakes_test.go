package routedcache

import (
	"context"
	"sort"
	"time"

	pr "github.com/unkn0wn-root/routedcache/provider"
)

type call struct {
	op   string
	keys []string
	ttl  time.Duration
}

// memProvider is a recording in-memory provider with only the mandatory
// capabilities.
type memProvider struct {
	data     map[string][]byte
	calls    []call
	fail     map[string]error // op -> error
	closeErr error
	closes   int
	flushes  int
}

var _ pr.Provider = (*memProvider)(nil)

func newMem() *memProvider {
	return &memProvider{data: map[string][]byte{}, fail: map[string]error{}}
}

func (m *memProvider) record(op string, ttl time.Duration, keys ...string) error {
	cp := append([]string(nil), keys...)
	sort.Strings(cp)
	m.calls = append(m.calls, call{op: op, keys: cp, ttl: ttl})
	return m.fail[op]
}

func (m *memProvider) callsOf(op string) []call {
	var out []call
	for _, c := range m.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (m *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := m.record("Get", 0, key); err != nil {
		return nil, false, err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := m.record("Set", ttl, key); err != nil {
		return false, err
	}
	m.data[key] = value
	return true, nil
}

func (m *memProvider) Add(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := m.record("Add", ttl, key); err != nil {
		return false, err
	}
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

func (m *memProvider) Replace(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := m.record("Replace", ttl, key); err != nil {
		return false, err
	}
	if _, ok := m.data[key]; !ok {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

func (m *memProvider) Del(_ context.Context, key string) (bool, error) {
	if err := m.record("Del", 0, key); err != nil {
		return false, err
	}
	_, ok := m.data[key]
	delete(m.data, key)
	return ok, nil
}

func (m *memProvider) Incr(_ context.Context, key string, delta uint64) (int64, error) {
	if err := m.record("Incr", 0, key); err != nil {
		return 0, err
	}
	return m.step(key, delta, false)
}

func (m *memProvider) Decr(_ context.Context, key string, delta uint64) (int64, error) {
	if err := m.record("Decr", 0, key); err != nil {
		return 0, err
	}
	return m.step(key, delta, true)
}

func (m *memProvider) step(key string, delta uint64, negative bool) (int64, error) {
	n, err := pr.ParseCounter(m.data[key])
	if err != nil {
		return 0, err
	}
	n, err = pr.AddDelta(n, delta, negative)
	if err != nil {
		return 0, err
	}
	m.data[key] = pr.FormatCounter(n)
	return n, nil
}

func (m *memProvider) GetMany(_ context.Context, keys []string) (map[string][]byte, error) {
	if err := m.record("GetMany", 0, keys...); err != nil {
		return nil, err
	}
	out := map[string][]byte{}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memProvider) SetMany(_ context.Context, items map[string][]byte, ttl time.Duration) error {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	if err := m.record("SetMany", ttl, keys...); err != nil {
		return err
	}
	for k, v := range items {
		m.data[k] = v
	}
	return nil
}

func (m *memProvider) DelMany(_ context.Context, keys []string) error {
	if err := m.record("DelMany", 0, keys...); err != nil {
		return err
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memProvider) Flush(context.Context) error {
	m.flushes++
	if err := m.record("Flush", 0); err != nil {
		return err
	}
	clear(m.data)
	return nil
}

func (m *memProvider) Close(context.Context) error {
	m.closes++
	return m.closeErr
}

// extProvider adds TTL and key scanning to memProvider.
type extProvider struct {
	memProvider
	ttls map[string]time.Duration
}

var _ pr.Extended = (*extProvider)(nil)

func newExt() *extProvider {
	return &extProvider{memProvider: *newMem(), ttls: map[string]time.Duration{}}
}

func (e *extProvider) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	if err := e.record("TTL", 0, key); err != nil {
		return 0, false, err
	}
	if _, ok := e.data[key]; !ok {
		return 0, false, nil
	}
	if d, ok := e.ttls[key]; ok {
		return d, true, nil
	}
	return pr.NoExpiry, true, nil
}

func (e *extProvider) Keys(_ context.Context, pattern string) ([]string, error) {
	if err := e.record("Keys", 0); err != nil {
		return nil, err
	}
	var out []string
	for k := range e.data {
		if pr.MatchGlob(pattern, k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

type hookEvent struct {
	kind string
	op   string
	rule string
	n    int
}

type recordingHooks struct {
	events []hookEvent
}

func (h *recordingHooks) RulePushed(rule string, total int) {
	h.events = append(h.events, hookEvent{kind: "pushed", rule: rule, n: total})
}

func (h *recordingHooks) BulkDispatched(op, rule string, keys int) {
	h.events = append(h.events, hookEvent{kind: "bulk", op: op, rule: rule, n: keys})
}

func (h *recordingHooks) CapabilityMissing(op, rule string) {
	h.events = append(h.events, hookEvent{kind: "missing", op: op, rule: rule})
}

func (h *recordingHooks) ProviderCloseFailed(rule string, _ error) {
	h.events = append(h.events, hookEvent{kind: "closeFailed", rule: rule})
}

func (h *recordingHooks) of(kind string) []hookEvent {
	var out []hookEvent
	for _, e := range h.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

var _ Hooks = (*recordingHooks)(nil)
