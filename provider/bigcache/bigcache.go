package bigcache

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/routedcache/internal/wire"
	pr "github.com/unkn0wn-root/routedcache/provider"
)

const defaultLifeWindow = 24 * time.Hour

// Provider stores entries in BigCache. BigCache only knows a global life
// window, so every value is framed with its own deadline and expired entries
// are dropped on read.
type Provider struct {
	c   *bc.BigCache
	mu  sync.Mutex // serializes read-modify-write ops (Add, Replace, Incr)
	now func() time.Time

	closeOnce sync.Once
	closeErr  error
}

var _ pr.Extended = (*Provider)(nil)

type Config struct {
	LifeWindow         time.Duration // upper bound for any entry; 0 => 24h
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Provider, error) {
	life := cfg.LifeWindow
	if life <= 0 {
		life = defaultLifeWindow
	}
	conf := bc.DefaultConfig(life)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, now: time.Now}, nil
}

// read decodes the entry for key without side effects. A stale entry
// (expired or corrupt) comes back with live=false and its raw bytes.
func (p *Provider) read(key string) (raw []byte, exp time.Time, payload []byte, live bool, err error) {
	raw, err = p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, time.Time{}, nil, false, nil
	}
	if err != nil {
		return nil, time.Time{}, nil, false, err
	}
	exp, payload, err = wire.DecodeEntry(raw)
	if err != nil || (!exp.IsZero() && !p.now().Before(exp)) {
		return raw, time.Time{}, nil, false, nil
	}
	return raw, exp, payload, true, nil
}

// load returns the live entry for key and drops a stale one.
// Caller must hold p.mu.
func (p *Provider) load(key string) (time.Time, []byte, bool, error) {
	raw, exp, payload, live, err := p.read(key)
	if err != nil {
		return time.Time{}, nil, false, err
	}
	if !live {
		if raw != nil {
			_ = p.c.Delete(key)
		}
		return time.Time{}, nil, false, nil
	}
	return exp, payload, true, nil
}

// get is load for callers that don't hold p.mu.
func (p *Provider) get(key string) (time.Time, []byte, bool, error) {
	raw, exp, payload, live, err := p.read(key)
	if err != nil {
		return time.Time{}, nil, false, err
	}
	if !live {
		if raw != nil {
			p.evict(key, raw)
		}
		return time.Time{}, nil, false, nil
	}
	return exp, payload, true, nil
}

// evict deletes key only while it still holds the stale bytes, so a write
// that landed after the read survives.
func (p *Provider) evict(key string, stale []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, err := p.c.Get(key)
	if err == nil && bytes.Equal(cur, stale) {
		_ = p.c.Delete(key)
	}
}

func (p *Provider) store(key string, value []byte, exp time.Time) error {
	return p.c.Set(key, wire.EncodeEntry(exp, value))
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	_, v, ok, err := p.get(key)
	return v, ok, err
}

func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store(key, value, wire.Deadline(p.now(), ttl)); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Add(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _, ok, err := p.load(key)
	if err != nil || ok {
		return false, err
	}
	if err := p.store(key, value, wire.Deadline(p.now(), ttl)); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Replace(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _, ok, err := p.load(key)
	if err != nil || !ok {
		return false, err
	}
	if err := p.store(key, value, wire.Deadline(p.now(), ttl)); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _, ok, err := p.load(key)
	if err != nil || !ok {
		return false, err
	}
	if err := p.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return false, err
	}
	return true, nil
}

func (p *Provider) Incr(_ context.Context, key string, delta uint64) (int64, error) {
	return p.step(key, delta, false)
}

func (p *Provider) Decr(_ context.Context, key string, delta uint64) (int64, error) {
	return p.step(key, delta, true)
}

// step keeps the existing deadline, like INCRBY on a key with a TTL.
func (p *Provider) step(key string, delta uint64, negative bool) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	exp, cur, _, err := p.load(key)
	if err != nil {
		return 0, err
	}
	n, err := pr.ParseCounter(cur)
	if err != nil {
		return 0, err
	}
	n, err = pr.AddDelta(n, delta, negative)
	if err != nil {
		return 0, err
	}
	if err := p.store(key, pr.FormatCounter(n), exp); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Provider) GetMany(_ context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		_, v, ok, err := p.get(k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}

func (p *Provider) SetMany(_ context.Context, items map[string][]byte, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	exp := wire.Deadline(p.now(), ttl)
	for k, v := range items {
		if err := p.store(k, v, exp); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) DelMany(_ context.Context, keys []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		if err := p.c.Delete(k); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
			return err
		}
	}
	return nil
}

func (p *Provider) Flush(_ context.Context) error {
	return p.c.Reset()
}

func (p *Provider) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	exp, _, ok, err := p.get(key)
	if err != nil || !ok {
		return 0, false, err
	}
	if exp.IsZero() {
		return pr.NoExpiry, true, nil
	}
	return exp.Sub(p.now()), true, nil
}

// Keys iterates every shard and matches with Redis glob rules.
func (p *Provider) Keys(_ context.Context, pattern string) ([]string, error) {
	now := p.now()
	var out []string
	it := p.c.Iterator()
	for it.SetNext() {
		info, err := it.Value()
		if err != nil {
			// entry evicted between SetNext and Value
			continue
		}
		exp, _, err := wire.DecodeEntry(info.Value())
		if err != nil || (!exp.IsZero() && !now.Before(exp)) {
			continue
		}
		if pr.MatchGlob(pattern, info.Key()) {
			out = append(out, info.Key())
		}
	}
	return out, nil
}

// Close stops the cleanup goroutine. bigcache panics on a second Close, so
// only the first call reaches it.
func (p *Provider) Close(_ context.Context) error {
	p.closeOnce.Do(func() { p.closeErr = p.c.Close() })
	return p.closeErr
}
