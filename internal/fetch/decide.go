package fetch

import "git.home.luguber.info/inful/docmirror/internal/config"

// Decision is the outcome of the conditional-cache decision.
type Decision int

const (
	// Miss means nothing usable is cached; read unconditionally.
	Miss Decision = iota
	// Reuse means the cached entry is served without contacting the source.
	Reuse
	// Refresh means the source is consulted and the cached entry kept if unchanged.
	Refresh
)

func (d Decision) String() string {
	switch d {
	case Reuse:
		return "reuse"
	case Refresh:
		return "refresh"
	default:
		return "miss"
	}
}

// CacheState describes the cached entry for a key, if any. Expired entries are
// reported as absent by the store, so Present implies fresh.
type CacheState struct {
	Present       bool
	HasValidators bool
}

// Decide chooses how to satisfy a read given the cache state and source mode.
func Decide(state CacheState, mode config.SourceMode) Decision {
	if !state.Present {
		return Miss
	}
	if mode == config.SourceModeLocal {
		return Refresh
	}
	if state.HasValidators {
		return Refresh
	}
	return Reuse
}
