// Package retention removes snapshots that have outlived their use:
// committed ones older than a configured age, and temporary leftovers
// from runs that never committed.
//
// Callers only invoke this after the current run's snapshot committed
// successfully — a failed backup must never cost previously good ones.
package retention

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/store"
)

// Policy deletes committed snapshots older than MaxAge.
type Policy struct {
	MaxAge time.Duration
	log    zerolog.Logger
}

// New creates a retention policy. A zero or negative MaxAge disables it.
func New(maxAge time.Duration) Policy {
	return Policy{
		MaxAge: maxAge,
		log:    logging.GetLogger("retention"),
	}
}

// Enabled reports whether the policy removes anything at all.
func (p Policy) Enabled() bool { return p.MaxAge > 0 }

// Apply removes every committed snapshot whose timestamp precedes
// now - MaxAge and returns the removed set. All deletion goes through the
// store's containment-checked RemoveTree.
func (p Policy) Apply(st *store.Store, now time.Time) ([]store.Snapshot, error) {
	if !p.Enabled() {
		return nil, nil
	}

	cutoff := now.Add(-p.MaxAge)
	old, err := st.ListOlderThan(cutoff)
	if err != nil {
		return nil, err
	}

	for _, sn := range old {
		p.log.Info().Str("snapshot", sn.Name).Time("stamp", sn.Stamp).Msg("removing expired snapshot")
		if err := st.RemoveTree(sn.Path); err != nil {
			return nil, err
		}
	}
	return old, nil
}

// CleanTemporary removes leftover temporary snapshot directories from
// prior incomplete runs, regardless of age.
func CleanTemporary(st *store.Store) ([]store.Snapshot, error) {
	tmp, err := st.ListTemporary()
	if err != nil {
		return nil, err
	}
	log := logging.GetLogger("retention")
	for _, sn := range tmp {
		log.Info().Str("snapshot", sn.Name).Msg("removing leftover temporary snapshot")
		if err := st.RemoveTree(sn.Path); err != nil {
			return nil, err
		}
	}
	return tmp, nil
}
