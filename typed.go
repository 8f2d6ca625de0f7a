package routedcache

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/routedcache/codec"
	pr "github.com/unkn0wn-root/routedcache/provider"
)

// Typed is a typed view over a provider, usually a *Router. Values go
// through the codec; keys and routing are untouched.
type Typed[V any] struct {
	p     pr.Provider
	codec codec.Codec[V]
}

func NewTyped[V any](p pr.Provider, c codec.Codec[V]) (*Typed[V], error) {
	if p == nil {
		return nil, ErrNilProvider
	}
	if c == nil {
		return nil, &ArgumentError{Op: "NewTyped", Arg: "codec", Msg: "nil"}
	}
	return &Typed[V]{p: p, codec: c}, nil
}

// Provider returns the underlying byte store.
func (t *Typed[V]) Provider() pr.Provider { return t.p }

func (t *Typed[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	raw, ok, err := t.p.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := t.codec.Decode(raw)
	if err != nil {
		return zero, false, fmt.Errorf("routedcache: decode %q: %w", key, err)
	}
	return v, true, nil
}

func (t *Typed[V]) Set(ctx context.Context, key string, v V, ttl time.Duration) (bool, error) {
	b, err := t.encode(key, v)
	if err != nil {
		return false, err
	}
	return t.p.Set(ctx, key, b, ttl)
}

func (t *Typed[V]) Add(ctx context.Context, key string, v V, ttl time.Duration) (bool, error) {
	b, err := t.encode(key, v)
	if err != nil {
		return false, err
	}
	return t.p.Add(ctx, key, b, ttl)
}

func (t *Typed[V]) Replace(ctx context.Context, key string, v V, ttl time.Duration) (bool, error) {
	b, err := t.encode(key, v)
	if err != nil {
		return false, err
	}
	return t.p.Replace(ctx, key, b, ttl)
}

// GetMany decodes the hits. The first entry that fails to decode aborts the
// call.
func (t *Typed[V]) GetMany(ctx context.Context, keys []string) (map[string]V, error) {
	raw, err := t.p.GetMany(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make(map[string]V, len(raw))
	for k, b := range raw {
		v, err := t.codec.Decode(b)
		if err != nil {
			return nil, fmt.Errorf("routedcache: decode %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// SetMany encodes every item before writing any of them.
func (t *Typed[V]) SetMany(ctx context.Context, items map[string]V, ttl time.Duration) error {
	if items == nil {
		return &ArgumentError{Op: "SetMany", Arg: "items", Msg: "nil"}
	}
	raw := make(map[string][]byte, len(items))
	for k, v := range items {
		b, err := t.encode(k, v)
		if err != nil {
			return err
		}
		raw[k] = b
	}
	return t.p.SetMany(ctx, raw, ttl)
}

func (t *Typed[V]) encode(key string, v V) ([]byte, error) {
	b, err := t.codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("routedcache: encode %q: %w", key, err)
	}
	return b, nil
}
