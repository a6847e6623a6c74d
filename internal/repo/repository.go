package repo

import (
	"context"

	"github.com/hamed0406/urlmonitor/internal/domain"
)

// Snapshot is the full persisted registry, keyed by target id.
type Snapshot map[domain.TargetID]domain.Target

// Clone returns a copy that shares nothing with s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, t := range s {
		out[id] = t
	}
	return out
}

// TargetStore persists the target registry as a whole. SaveAll replaces
// everything the store holds; LoadAll(SaveAll(x)) must return x.
type TargetStore interface {
	LoadAll(ctx context.Context) (Snapshot, error)
	SaveAll(ctx context.Context, s Snapshot) error
	Close() error
}
