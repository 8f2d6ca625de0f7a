package ristretto

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/routedcache/provider"
)

// Provider stores entries in Ristretto. It reports TTLs but cannot list keys,
// so it does not implement provider.KeyScanner.
type Provider struct {
	c    *rc.Cache
	mu   sync.Mutex // serializes read-modify-write ops (Add, Replace, Incr)
	cost func(key string, value []byte) int64
}

var (
	_ pr.Provider  = (*Provider)(nil)
	_ pr.TTLReader = (*Provider)(nil)
)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
	// Cost computes the admission cost of an entry; nil => 1 per entry.
	Cost func(key string, value []byte) int64
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	cost := cfg.Cost
	if cost == nil {
		cost = func(string, []byte) int64 { return 1 }
	}
	return &Provider{c: c, cost: cost}, nil
}

func (p *Provider) load(key string) ([]byte, bool) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false
	}
	return bytes.Clone(b), true
}

// store writes a private copy through the buffer and waits so the entry is
// visible to the next read. ok=false means admission rejected it.
func (p *Provider) store(key string, value []byte, ttl time.Duration) bool {
	if ttl < 0 {
		ttl = 0
	}
	value = cloneValue(value)
	ok := p.c.SetWithTTL(key, value, p.cost(key, value), ttl)
	p.c.Wait()
	return ok
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := p.load(key)
	return b, ok, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store(key, value, ttl), nil
}

func (p *Provider) Add(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.load(key); ok {
		return false, nil
	}
	return p.store(key, value, ttl), nil
}

func (p *Provider) Replace(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.load(key); !ok {
		return false, nil
	}
	return p.store(key, value, ttl), nil
}

func (p *Provider) Del(_ context.Context, key string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.load(key)
	p.c.Del(key)
	return ok, nil
}

func (p *Provider) Incr(_ context.Context, key string, delta uint64) (int64, error) {
	return p.step(key, delta, false)
}

func (p *Provider) Decr(_ context.Context, key string, delta uint64) (int64, error) {
	return p.step(key, delta, true)
}

func (p *Provider) step(key string, delta uint64, negative bool) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, _ := p.load(key)
	n, err := pr.ParseCounter(cur)
	if err != nil {
		return 0, err
	}
	n, err = pr.AddDelta(n, delta, negative)
	if err != nil {
		return 0, err
	}
	var ttl time.Duration
	if cur != nil {
		ttl, _ = p.c.GetTTL(key) // keep the remaining lifetime; 0 => none
	}
	if !p.store(key, pr.FormatCounter(n), ttl) {
		return 0, errors.New("ristretto: counter write rejected")
	}
	return n, nil
}

func (p *Provider) GetMany(_ context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if b, ok := p.load(k); ok {
			out[k] = b
		}
	}
	return out, nil
}

func (p *Provider) SetMany(_ context.Context, items map[string][]byte, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ttl < 0 {
		ttl = 0
	}
	for k, v := range items {
		v = cloneValue(v)
		p.c.SetWithTTL(k, v, p.cost(k, v), ttl)
	}
	p.c.Wait()
	return nil
}

func (p *Provider) DelMany(_ context.Context, keys []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		p.c.Del(k)
	}
	return nil
}

func (p *Provider) Flush(_ context.Context) error {
	p.c.Clear()
	return nil
}

func (p *Provider) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	d, ok := p.c.GetTTL(key)
	if !ok {
		return 0, false, nil
	}
	if d == 0 {
		return pr.NoExpiry, true, nil
	}
	return d, true, nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// cloneValue copies value so later writes to the caller's buffer don't reach
// the cache. A nil value is stored as empty, since load treats nil as a miss.
func cloneValue(value []byte) []byte {
	if value == nil {
		return []byte{}
	}
	return bytes.Clone(value)
}

// Helper to expose metrics if desired by the application (not part of provider.Provider).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
