// Package match implements the key predicates used to select a routing rule.
//
// Predicates are immutable and safe for concurrent use. Token and
// always-true predicates reject empty keys; regular expressions accept them
// and leave the decision to the pattern.
package match

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// ErrInvalidArgument is wrapped by every validation error of this package.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrEmptyKey     = fmt.Errorf("%w: empty key", ErrInvalidArgument)
	ErrNoTokens     = fmt.Errorf("%w: at least one token is required", ErrInvalidArgument)
	ErrNoPredicates = fmt.Errorf("%w: at least one non-nil predicate is required", ErrInvalidArgument)
)

// DefaultRegexpTimeout bounds a single regular expression evaluation.
// regexp2 backtracks, so a hostile pattern could otherwise run unbounded.
const DefaultRegexpTimeout = 100 * time.Millisecond

type Kind uint8

const (
	KindAlways Kind = iota + 1
	KindStartsWith
	KindEndsWith
	KindRegexp
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindAlways:
		return "always"
	case KindStartsWith:
		return "starts_with"
	case KindEndsWith:
		return "ends_with"
	case KindRegexp:
		return "regexp"
	case KindAny:
		return "any"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Mode selects how tokens and patterns compare against keys.
type Mode uint8

const (
	Ordinal    Mode = iota // byte-for-byte
	IgnoreCase             // Unicode simple case folding
)

// Predicate decides whether a key belongs to a rule.
type Predicate interface {
	Kind() Kind
	Matches(key string) (bool, error)
}

type always struct{}

// Always matches every non-empty key.
func Always() Predicate { return always{} }

func (always) Kind() Kind { return KindAlways }

func (always) Matches(key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	return true, nil
}

type affix struct {
	kind   Kind
	mode   Mode
	tokens []string
}

// StartsWith matches keys starting with any of tokens.
func StartsWith(mode Mode, tokens ...string) (Predicate, error) {
	a, err := newAffix(KindStartsWith, mode, tokens)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// EndsWith matches keys ending with any of tokens.
func EndsWith(mode Mode, tokens ...string) (Predicate, error) {
	a, err := newAffix(KindEndsWith, mode, tokens)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newAffix(kind Kind, mode Mode, tokens []string) (*affix, error) {
	if len(tokens) == 0 {
		return nil, ErrNoTokens
	}
	cp := make([]string, len(tokens))
	copy(cp, tokens)
	return &affix{kind: kind, mode: mode, tokens: cp}, nil
}

func (a *affix) Kind() Kind { return a.kind }

// Mode reports the comparison mode.
func (a *affix) Mode() Mode { return a.mode }

// Tokens returns a copy of the configured tokens.
func (a *affix) Tokens() []string {
	out := make([]string, len(a.tokens))
	copy(out, a.tokens)
	return out
}

func (a *affix) Matches(key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	for _, tok := range a.tokens {
		if a.hit(key, tok) {
			return true, nil
		}
	}
	return false, nil
}

func (a *affix) hit(key, tok string) bool {
	switch {
	case a.mode == Ordinal && a.kind == KindStartsWith:
		return strings.HasPrefix(key, tok)
	case a.mode == Ordinal:
		return strings.HasSuffix(key, tok)
	case a.kind == KindStartsWith:
		return hasPrefixFold(key, tok)
	default:
		return hasSuffixFold(key, tok)
	}
}

func hasPrefixFold(s, prefix string) bool {
	kr, tr := []rune(s), []rune(prefix)
	if len(tr) > len(kr) {
		return false
	}
	return strings.EqualFold(string(kr[:len(tr)]), prefix)
}

func hasSuffixFold(s, suffix string) bool {
	kr, sr := []rune(s), []rune(suffix)
	if len(sr) > len(kr) {
		return false
	}
	return strings.EqualFold(string(kr[len(kr)-len(sr):]), suffix)
}

type regexpPredicate struct {
	re *regexp2.Regexp
}

// Regexp matches keys in which pattern finds a match anywhere; anchor the
// pattern to restrict it. The syntax is .NET-compatible (regexp2).
func Regexp(pattern string, mode Mode) (Predicate, error) {
	opts := regexp2.None
	if mode == IgnoreCase {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: regexp %q: %v", ErrInvalidArgument, pattern, err)
	}
	re.MatchTimeout = DefaultRegexpTimeout
	return &regexpPredicate{re: re}, nil
}

// MustRegexp is like Regexp but panics on an invalid pattern.
func MustRegexp(pattern string, mode Mode) Predicate {
	p, err := Regexp(pattern, mode)
	if err != nil {
		panic(err)
	}
	return p
}

func (r *regexpPredicate) Kind() Kind { return KindRegexp }

// Pattern returns the source expression.
func (r *regexpPredicate) Pattern() string { return r.re.String() }

func (r *regexpPredicate) Matches(key string) (bool, error) {
	return r.re.MatchString(key)
}

type anyOf struct {
	preds []Predicate
}

// Any matches when at least one of preds matches, evaluated in order.
func Any(preds ...Predicate) (Predicate, error) {
	if len(preds) == 0 {
		return nil, ErrNoPredicates
	}
	for _, p := range preds {
		if p == nil {
			return nil, ErrNoPredicates
		}
	}
	cp := make([]Predicate, len(preds))
	copy(cp, preds)
	return &anyOf{preds: cp}, nil
}

func (a *anyOf) Kind() Kind { return KindAny }

func (a *anyOf) Matches(key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	for _, p := range a.preds {
		ok, err := p.Matches(key)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
