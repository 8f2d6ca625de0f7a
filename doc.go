// Package routedcache routes cache operations across several backing stores.
//
// A Router holds an ordered list of rules. Each rule binds a key predicate
// (package match) to one provider (package provider). The most recently
// pushed rule whose predicate accepts a key owns that key; the fallback
// rule installed by New accepts every key, so routing is total.
//
//	local, _ := ristretto.New(ristretto.Config{NumCounters: 1e5, MaxCost: 1 << 26, BufferItems: 64})
//	sessions, _ := bigcache.New(bigcache.Config{LifeWindow: time.Hour})
//
//	r, _ := routedcache.New(routedcache.Options{Fallback: local})
//	r.PushSession(sessions)                        // "urn:iauthsession:*", "sess:*"
//	r.Push(remote, match.MustRegexp(`^report:`, match.Ordinal))
//
//	r.Set(ctx, "sess:42:cart", b, time.Hour)      // -> sessions
//	r.GetMany(ctx, []string{"sess:1", "user:9"})   // one GetMany per store
//
// Bulk calls are grouped by rule and issue one bulk call per group. Flush and
// Keys visit each distinct store once. TTL and Keys are optional capabilities
// (provider.TTLReader, provider.KeyScanner); stores without them are skipped.
//
// Close disposes the router and closes every auto-dispose provider once.
// Afterwards every call returns ErrDisposed.
//
// A Router does no locking. Serialize PushRule, ClearRules and Close against
// concurrent use.
package routedcache
