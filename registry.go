package routedcache

import (
	"context"
	"reflect"
	"strconv"

	"github.com/unkn0wn-root/routedcache/match"
	pr "github.com/unkn0wn-root/routedcache/provider"
)

// PushRule registers rule with the highest precedence. The same provider may
// be bound by any number of rules.
func (r *Router) PushRule(rule *Rule) error {
	if r.disposed {
		return ErrDisposed
	}
	if rule == nil {
		return ErrNilRule
	}
	if rule.disposed {
		return ErrDisposed
	}
	if rule.owner != nil && rule.owner != r {
		return &ArgumentError{Op: "PushRule", Arg: "rule", Msg: "registered with another router"}
	}
	rule.owner = r
	r.rules = append(r.rules, rule)
	r.log.Debug("rule pushed", Fields{"rule": rule.Name(), "kind": rule.Predicate().Kind().String(), "total": len(r.rules)})
	r.hooks.RulePushed(rule.Name(), len(r.rules))
	return nil
}

// Push builds a rule binding pred to p and registers it.
func (r *Router) Push(p pr.Provider, pred match.Predicate, opts ...RuleOption) (*Rule, error) {
	if r.disposed {
		return nil, ErrDisposed
	}
	rule, err := NewRule(p, pred, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.PushRule(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// PushSession routes session ids and session bag keys to p.
func (r *Router) PushSession(p pr.Provider, opts ...RuleOption) (*Rule, error) {
	if r.disposed {
		return nil, ErrDisposed
	}
	rule, err := SessionRule(p, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.PushRule(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// ClearRules drops every rule but the fallback. Providers are left open and
// the removed rules may be pushed again, here or into another router.
func (r *Router) ClearRules() error {
	if r.disposed {
		return ErrDisposed
	}
	removed := len(r.rules) - 1
	for i := 1; i < len(r.rules); i++ {
		if r.rules[i] != r.rules[0] {
			r.rules[i].owner = nil
		}
		r.rules[i] = nil
	}
	r.rules = r.rules[:1]
	if removed > 0 {
		r.log.Debug("rules cleared", Fields{"removed": removed})
	}
	return nil
}

// FindRule returns the most recently pushed rule matching key. The fallback
// matches every non-empty key, so a nil error always comes with a rule.
func (r *Router) FindRule(key string) (*Rule, error) {
	if r.disposed {
		return nil, ErrDisposed
	}
	for i := len(r.rules) - 1; i >= 0; i-- {
		rule := r.rules[i]
		ok, err := rule.Matches(key)
		if err != nil {
			return nil, err
		}
		if ok {
			return rule, nil
		}
	}
	return nil, &ArgumentError{Op: "FindRule", Arg: "key", Msg: "no rule matched"}
}

// Rules returns the registered rules in registration order; index 0 is the
// fallback.
func (r *Router) Rules() ([]*Rule, error) {
	if r.disposed {
		return nil, ErrDisposed
	}
	out := make([]*Rule, len(r.rules))
	copy(out, r.rules)
	return out, nil
}

func (r *Router) RuleCount() (int, error) {
	if r.disposed {
		return 0, ErrDisposed
	}
	return len(r.rules), nil
}

// Clients maps rule names to providers. A name already taken gets "_<n>"
// appended, counting per name in registration order.
func (r *Router) Clients() (map[string]pr.Provider, error) {
	if r.disposed {
		return nil, ErrDisposed
	}
	out := make(map[string]pr.Provider, len(r.rules))
	seen := make(map[string]int, len(r.rules))
	for _, rule := range r.rules {
		name := rule.Name()
		if _, taken := out[name]; taken {
			for {
				seen[rule.Name()]++
				name = rule.Name() + "_" + strconv.Itoa(seen[rule.Name()])
				if _, taken := out[name]; !taken {
					break
				}
			}
		}
		out[name] = rule.Provider()
	}
	return out, nil
}

func (r *Router) Disposed() bool { return r.disposed }

// Close disposes the router. Rules are popped newest first and every
// auto-dispose provider is closed at most once, even when several rules share
// it. Close failures are collected into a *DisposeError; the router is
// disposed either way. Closing a disposed router is a no-op.
func (r *Router) Close(ctx context.Context) error {
	if r.disposed {
		return nil
	}
	closed := identitySet{}
	var failures []CloseFailure
	for i := len(r.rules) - 1; i >= 0; i-- {
		rule := r.rules[i]
		r.rules[i] = nil
		rule.disposed = true
		if !rule.autoDispose || !closed.add(rule.provider) {
			continue
		}
		if err := rule.provider.Close(ctx); err != nil {
			failures = append(failures, CloseFailure{Rule: rule.Name(), Err: err})
			r.log.Warn("provider close failed", Fields{"rule": rule.Name(), "err": err})
			r.hooks.ProviderCloseFailed(rule.Name(), err)
		}
	}
	r.rules = nil
	r.disposed = true
	r.log.Debug("router disposed", Fields{"providersClosed": len(closed), "failures": len(failures)})
	if len(failures) > 0 {
		return &DisposeError{Failures: failures}
	}
	return nil
}

// identityKey returns a map key equal for the same provider instance.
// Pointer-shaped providers compare by address. Non-comparable values can't
// be keyed, so each gets a fresh key and is treated as distinct.
func identityKey(p pr.Provider) any {
	if reflect.TypeOf(p).Comparable() {
		return p
	}
	return new(byte)
}
