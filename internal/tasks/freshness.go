package tasks

import "time"

// NeedsSync reports whether the destination must be rebuilt from the source.
//
// Both timestamps must already be normalized to UTC. Equal timestamps are fresh.
func NeedsSync(destinationUpdatedAt, sourceUpdatedAt time.Time, force bool) bool {
	return force || destinationUpdatedAt.Before(sourceUpdatedAt)
}
