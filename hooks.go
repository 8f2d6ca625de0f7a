package routedcache

// Hooks lightweight callbacks for high-signal routing events.
// Implementations MUST be cheap and non-blocking; BulkDispatched runs once
// per provider group of every bulk call.
type Hooks interface {
	// A rule was pushed; total is the rule count including the fallback.
	RulePushed(rule string, total int)

	// One bulk sub-call was issued to the provider bound to rule.
	// op ∈ {"GetMany", "SetMany", "DelMany"}
	BulkDispatched(op, rule string, keys int)

	// An optional capability was requested from a provider lacking it.
	// op ∈ {"TTL", "Keys"}
	CapabilityMissing(op, rule string)

	// Closing an auto-dispose provider failed during Close.
	ProviderCloseFailed(rule string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) RulePushed(string, int)             {}
func (NopHooks) BulkDispatched(string, string, int) {}
func (NopHooks) CapabilityMissing(string, string)   {}
func (NopHooks) ProviderCloseFailed(string, error)  {}
