package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/routedcache/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

const scanBatch = 256

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ pr.Extended = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0 // no expiry
	}
	return ttl
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := p.rdb.Set(ctx, key, value, expiry(ttl)).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return p.rdb.SetNX(ctx, key, value, expiry(ttl)).Result()
}

func (p *Redis) Replace(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return p.rdb.SetXX(ctx, key, value, expiry(ttl)).Result()
}

func (p *Redis) Del(ctx context.Context, key string) (bool, error) {
	n, err := p.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *Redis) Incr(ctx context.Context, key string, delta uint64) (int64, error) {
	if delta > 1<<63-1 {
		return 0, pr.ErrOverflow
	}
	n, err := p.rdb.IncrBy(ctx, key, int64(delta)).Result()
	return n, counterErr(err)
}

func (p *Redis) Decr(ctx context.Context, key string, delta uint64) (int64, error) {
	if delta > 1<<63-1 {
		return 0, pr.ErrOverflow
	}
	n, err := p.rdb.DecrBy(ctx, key, int64(delta)).Result()
	return n, counterErr(err)
}

// counterErr maps INCRBY/DECRBY error replies onto the provider sentinels so
// callers see the same errors from every store.
func counterErr(err error) error {
	var rerr goredis.Error
	if err == nil || !errors.As(err, &rerr) {
		return err
	}
	switch msg := rerr.Error(); {
	case strings.Contains(msg, "not an integer"):
		return fmt.Errorf("%w: %s", pr.ErrNotInteger, msg)
	case strings.Contains(msg, "overflow"):
		return fmt.Errorf("%w: %s", pr.ErrOverflow, msg)
	}
	return err
}

func (p *Redis) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := p.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		switch vv := v.(type) {
		case nil:
			// miss
		case string:
			out[keys[i]] = []byte(vv)
		case []byte:
			out[keys[i]] = vv
		}
	}
	return out, nil
}

// SetMany pipelines one SET per item so a per-item TTL can be applied
// (MSET has no expiry).
func (p *Redis) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	exp := expiry(ttl)
	_, err := p.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for k, v := range items {
			pipe.Set(ctx, k, v, exp)
		}
		return nil
	})
	return err
}

func (p *Redis) DelMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return p.rdb.Del(ctx, keys...).Err()
}

// Flush clears the selected database.
func (p *Redis) Flush(ctx context.Context) error {
	return p.rdb.FlushDB(ctx).Err()
}

func (p *Redis) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := p.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	// PTTL replies -2 for a missing key and -1 for a key without expiry;
	// go-redis passes both through unscaled.
	switch d {
	case -2:
		return 0, false, nil
	case -1:
		return pr.NoExpiry, true, nil
	}
	return d, true, nil
}

// Keys walks the keyspace with SCAN MATCH; KEYS would block the server.
func (p *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := p.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, err
		}
		out = append(out, keys...)
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
