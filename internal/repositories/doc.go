// Package repositories implements SQLite persistence for the sync run journal.
//
// Key Implementations:
//   - [SyncRunRepository] : One row per sync attempt with outcome, counters and the timestamps
//     that were compared. It implements tasks.RunRecorder.
//
// The journal is an audit log. A sync reads the latest entry only to warn about an earlier
// attempt that failed part way through; the decision itself always comes from the remote
// timestamps.
//
// Sequence numbers provide stable, human-readable ordering (run #42) independent of UUIDs and
// creation timestamps. The [NextSequence] function atomically increments per-table sequence
// counters in dedicated sequence tables.
package repositories
