package routedcache

import (
	"context"
	"sort"
	"time"

	"github.com/unkn0wn-root/routedcache/match"
	pr "github.com/unkn0wn-root/routedcache/provider"
)

// Options configure a Router. Only Fallback is required.
type Options struct {
	// Fallback receives every key no pushed rule claims.
	Fallback pr.Provider

	FallbackName        string // "" => inferred from the provider type
	FallbackAutoDispose *bool  // nil => true
	Logger              Logger // nil => NopLogger
	Hooks               Hooks  // nil => NopHooks
}

// Router dispatches every cache operation to the provider of the rule that
// claims the key. It holds no data itself.
//
// A Router is not safe for concurrent mutation: callers must serialize
// PushRule, ClearRules and Close against every other call. Providers carry
// their own concurrency guarantees.
type Router struct {
	rules    []*Rule // registration order; rules[0] is the fallback
	log      Logger
	hooks    Hooks
	now      func() time.Time
	disposed bool
}

var _ pr.Extended = (*Router)(nil)

func New(opts Options) (*Router, error) {
	if opts.Fallback == nil {
		return nil, ErrNilProvider
	}
	ruleOpts := []RuleOption{WithAutoDispose(true)}
	if opts.FallbackAutoDispose != nil {
		ruleOpts[0] = WithAutoDispose(*opts.FallbackAutoDispose)
	}
	if opts.FallbackName != "" {
		ruleOpts = append(ruleOpts, WithName(opts.FallbackName))
	}
	fallback, err := NewRule(opts.Fallback, match.Always(), ruleOpts...)
	if err != nil {
		return nil, err
	}
	r := &Router{
		rules: []*Rule{fallback},
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
		hooks: coalesce[Hooks](opts.Hooks, NopHooks{}),
		now:   time.Now,
	}
	fallback.owner = r
	return r, nil
}

func (r *Router) resolve(op, key string) (*Rule, error) {
	if r.disposed {
		return nil, ErrDisposed
	}
	if key == "" {
		return nil, &ArgumentError{Op: op, Arg: "key", Msg: "empty"}
	}
	return r.FindRule(key)
}

// ttlUntil converts an absolute deadline. The zero time means no expiry; a
// deadline already passed becomes the smallest positive TTL.
func (r *Router) ttlUntil(expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return 0
	}
	if d := expiresAt.Sub(r.now()); d > 0 {
		return d
	}
	return time.Millisecond
}

func (r *Router) Get(ctx context.Context, key string) ([]byte, bool, error) {
	rule, err := r.resolve("Get", key)
	if err != nil {
		return nil, false, err
	}
	return rule.provider.Get(ctx, key)
}

func (r *Router) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	rule, err := r.resolve("Set", key)
	if err != nil {
		return false, err
	}
	return rule.provider.Set(ctx, key, value, ttl)
}

// SetUntil is Set with an absolute expiry.
func (r *Router) SetUntil(ctx context.Context, key string, value []byte, expiresAt time.Time) (bool, error) {
	rule, err := r.resolve("SetUntil", key)
	if err != nil {
		return false, err
	}
	return rule.provider.Set(ctx, key, value, r.ttlUntil(expiresAt))
}

func (r *Router) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	rule, err := r.resolve("Add", key)
	if err != nil {
		return false, err
	}
	return rule.provider.Add(ctx, key, value, ttl)
}

func (r *Router) AddUntil(ctx context.Context, key string, value []byte, expiresAt time.Time) (bool, error) {
	rule, err := r.resolve("AddUntil", key)
	if err != nil {
		return false, err
	}
	return rule.provider.Add(ctx, key, value, r.ttlUntil(expiresAt))
}

func (r *Router) Replace(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	rule, err := r.resolve("Replace", key)
	if err != nil {
		return false, err
	}
	return rule.provider.Replace(ctx, key, value, ttl)
}

func (r *Router) ReplaceUntil(ctx context.Context, key string, value []byte, expiresAt time.Time) (bool, error) {
	rule, err := r.resolve("ReplaceUntil", key)
	if err != nil {
		return false, err
	}
	return rule.provider.Replace(ctx, key, value, r.ttlUntil(expiresAt))
}

func (r *Router) Del(ctx context.Context, key string) (bool, error) {
	rule, err := r.resolve("Del", key)
	if err != nil {
		return false, err
	}
	return rule.provider.Del(ctx, key)
}

func (r *Router) Incr(ctx context.Context, key string, delta uint64) (int64, error) {
	rule, err := r.resolve("Incr", key)
	if err != nil {
		return 0, err
	}
	return rule.provider.Incr(ctx, key, delta)
}

func (r *Router) Decr(ctx context.Context, key string, delta uint64) (int64, error) {
	rule, err := r.resolve("Decr", key)
	if err != nil {
		return 0, err
	}
	return rule.provider.Decr(ctx, key, delta)
}

// TTL reports the remaining lifetime of key. A provider that cannot report
// TTLs yields (0, false, nil).
func (r *Router) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	rule, err := r.resolve("TTL", key)
	if err != nil {
		return 0, false, err
	}
	tr, ok := rule.provider.(pr.TTLReader)
	if !ok {
		r.hooks.CapabilityMissing("TTL", rule.Name())
		return 0, false, nil
	}
	return tr.TTL(ctx, key)
}

// validateKeys rejects a nil slice or any empty key before work is done.
func (r *Router) validateKeys(op string, keys []string) error {
	if r.disposed {
		return ErrDisposed
	}
	if keys == nil {
		return &ArgumentError{Op: op, Arg: "keys", Msg: "nil"}
	}
	for _, k := range keys {
		if k == "" {
			return &ArgumentError{Op: op, Arg: "keys", Msg: "empty key"}
		}
	}
	return nil
}

// GetMany issues one GetMany per provider group and returns the union of the
// hits.
func (r *Router) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := r.validateKeys("GetMany", keys); err != nil {
		return nil, err
	}
	agg := newAggregator(len(r.rules))
	defer agg.clear()
	if err := agg.collectAll(keys, r.FindRule); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for _, g := range agg.groups() {
		r.hooks.BulkDispatched("GetMany", g.rule.Name(), len(g.keys))
		part, err := g.rule.provider.GetMany(ctx, g.keys)
		if err != nil {
			return nil, err
		}
		for k, v := range part {
			out[k] = v
		}
	}
	return out, nil
}

// SetMany issues one SetMany per provider group with only that group's items.
// A failing provider leaves earlier groups written.
func (r *Router) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if items == nil {
		if r.disposed {
			return ErrDisposed
		}
		return &ArgumentError{Op: "SetMany", Arg: "items", Msg: "nil"}
	}
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if err := r.validateKeys("SetMany", keys); err != nil {
		return err
	}
	agg := newAggregator(len(r.rules))
	defer agg.clear()
	if err := agg.collectAll(keys, r.FindRule); err != nil {
		return err
	}
	for _, g := range agg.groups() {
		sub := make(map[string][]byte, len(g.keys))
		for _, k := range g.keys {
			sub[k] = items[k]
		}
		r.hooks.BulkDispatched("SetMany", g.rule.Name(), len(g.keys))
		if err := g.rule.provider.SetMany(ctx, sub, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) DelMany(ctx context.Context, keys []string) error {
	if err := r.validateKeys("DelMany", keys); err != nil {
		return err
	}
	agg := newAggregator(len(r.rules))
	defer agg.clear()
	if err := agg.collectAll(keys, r.FindRule); err != nil {
		return err
	}
	for _, g := range agg.groups() {
		r.hooks.BulkDispatched("DelMany", g.rule.Name(), len(g.keys))
		if err := g.rule.provider.DelMany(ctx, g.keys); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every distinct provider once, in registration order.
func (r *Router) Flush(ctx context.Context) error {
	if r.disposed {
		return ErrDisposed
	}
	seen := identitySet{}
	for _, rule := range r.rules {
		if !seen.add(rule.provider) {
			continue
		}
		if err := rule.provider.Flush(ctx); err != nil {
			return err
		}
	}
	r.log.Debug("flushed providers", Fields{"providers": len(seen)})
	return nil
}

// Keys concatenates the matches of every distinct provider that can scan,
// in registration order. Keys reported by several providers are repeated.
func (r *Router) Keys(ctx context.Context, pattern string) ([]string, error) {
	if r.disposed {
		return nil, ErrDisposed
	}
	var out []string
	seen := identitySet{}
	for _, rule := range r.rules {
		if !seen.add(rule.provider) {
			continue
		}
		ks, ok := rule.provider.(pr.KeyScanner)
		if !ok {
			r.hooks.CapabilityMissing("Keys", rule.Name())
			continue
		}
		keys, err := ks.Keys(ctx, pattern)
		if err != nil {
			return nil, err
		}
		out = append(out, keys...)
	}
	return out, nil
}
