package routedcache

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unkn0wn-root/routedcache/match"
)

var (
	// ErrInvalidArgument is wrapped by every argument validation failure,
	// including the ones raised by match predicates.
	ErrInvalidArgument = match.ErrInvalidArgument

	// ErrDisposed is returned by every call on a router (or one of its rules)
	// after Close.
	ErrDisposed = errors.New("routedcache: router is disposed")

	ErrNilProvider  = fmt.Errorf("%w: nil provider", ErrInvalidArgument)
	ErrNilPredicate = fmt.Errorf("%w: nil predicate", ErrInvalidArgument)
	ErrNilRule      = fmt.Errorf("%w: nil rule", ErrInvalidArgument)
)

// ArgumentError reports which argument of which operation was rejected.
type ArgumentError struct {
	Op  string
	Arg string
	Msg string
}

func (e *ArgumentError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("routedcache: %s: invalid %s", e.Op, e.Arg)
	}
	return fmt.Sprintf("routedcache: %s: invalid %s: %s", e.Op, e.Arg, e.Msg)
}

func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// CloseFailure is one provider that failed to close during Close.
type CloseFailure struct {
	Rule string
	Err  error
}

// DisposeError aggregates the provider close failures of Router.Close.
// The router is disposed regardless.
type DisposeError struct {
	Failures []CloseFailure
}

func (e *DisposeError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Rule, f.Err))
	}
	return fmt.Sprintf("routedcache: close: %d provider(s) failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *DisposeError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
