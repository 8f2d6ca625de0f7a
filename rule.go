package routedcache

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/routedcache/match"
	pr "github.com/unkn0wn-root/routedcache/provider"
)

// Key prefixes used for session state: session ids ("urn:iauthsession:<id>")
// and per-session bags ("sess:<id>:<key>").
const (
	SessionIDPrefix  = "urn:iauthsession:"
	SessionBagPrefix = "sess:"
)

// Rule binds a key predicate to one backing provider.
//
// A Rule is created with NewRule (or one of the helpers below) and belongs to
// the Router it is pushed to until ClearRules removes it. Pushing it into a
// second router fails. Several rules may share a provider.
type Rule struct {
	id          uuid.UUID
	name        string
	provider    pr.Provider
	pred        match.Predicate
	autoDispose bool
	disposed    bool
	owner       *Router
}

type ruleConfig struct {
	name        string
	autoDispose bool
}

// RuleOption customizes a Rule at construction.
type RuleOption func(*ruleConfig)

// WithName sets the display name. Without it the name is inferred from the
// provider type and suffixed with the rule ID.
func WithName(name string) RuleOption {
	return func(c *ruleConfig) { c.name = name }
}

// WithAutoDispose controls whether Router.Close closes the provider.
// Default true.
func WithAutoDispose(v bool) RuleOption {
	return func(c *ruleConfig) { c.autoDispose = v }
}

// NewRule binds pred to p.
func NewRule(p pr.Provider, pred match.Predicate, opts ...RuleOption) (*Rule, error) {
	if p == nil {
		return nil, ErrNilProvider
	}
	if pred == nil {
		return nil, ErrNilPredicate
	}
	cfg := ruleConfig{autoDispose: true}
	for _, o := range opts {
		o(&cfg)
	}
	r := &Rule{
		id:          uuid.New(),
		provider:    p,
		pred:        pred,
		autoDispose: cfg.autoDispose,
	}
	r.name = coalesce(cfg.name, inferName(p, r.id))
	return r, nil
}

// PrefixRule routes keys starting with any of tokens to p.
func PrefixRule(p pr.Provider, mode match.Mode, tokens []string, opts ...RuleOption) (*Rule, error) {
	pred, err := match.StartsWith(mode, tokens...)
	if err != nil {
		return nil, err
	}
	return NewRule(p, pred, opts...)
}

// SuffixRule routes keys ending with any of tokens to p.
func SuffixRule(p pr.Provider, mode match.Mode, tokens []string, opts ...RuleOption) (*Rule, error) {
	pred, err := match.EndsWith(mode, tokens...)
	if err != nil {
		return nil, err
	}
	return NewRule(p, pred, opts...)
}

// RegexpRule routes keys matched by pattern to p.
func RegexpRule(p pr.Provider, pattern string, mode match.Mode, opts ...RuleOption) (*Rule, error) {
	pred, err := match.Regexp(pattern, mode)
	if err != nil {
		return nil, err
	}
	return NewRule(p, pred, opts...)
}

// SessionRule routes session ids and session bag entries to p, ignoring case.
func SessionRule(p pr.Provider, opts ...RuleOption) (*Rule, error) {
	return PrefixRule(p, match.IgnoreCase, []string{SessionIDPrefix, SessionBagPrefix}, opts...)
}

func (r *Rule) ID() uuid.UUID              { return r.id }
func (r *Rule) Name() string               { return r.name }
func (r *Rule) Provider() pr.Provider      { return r.provider }
func (r *Rule) Predicate() match.Predicate { return r.pred }
func (r *Rule) AutoDispose() bool          { return r.autoDispose }

// SetAutoDispose changes whether Router.Close closes the provider.
func (r *Rule) SetAutoDispose(v bool) { r.autoDispose = v }

// Matches reports whether key belongs to this rule.
func (r *Rule) Matches(key string) (bool, error) {
	if r.disposed {
		return false, ErrDisposed
	}
	return r.pred.Matches(key)
}

// inferName turns *bigcache.Provider into "provider_<id>", *redis.Redis into
// "redis_<id>".
func inferName(p pr.Provider, id uuid.UUID) string {
	t := reflect.TypeOf(p)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = "provider"
	}
	first, size := utf8.DecodeRuneInString(name)
	name = string(unicode.ToLower(first)) + name[size:]
	return name + "_" + strings.ReplaceAll(id.String(), "-", "_")
}
