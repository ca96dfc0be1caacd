// Package tasks keeps a Nixplay playlist in step with a Flickr album.
//
// # Decision
//
// [NeedsSync] compares the playlist's last-updated timestamp with the album's. Both come from
// independently clocked services and are normalized to UTC by the services layer before they
// get here. A playlist older than its album is stale; equal timestamps are fresh.
//
// # Replacement
//
// [Replacer] rebuilds the playlist in four steps:
//
//  1. Delete every item but the first, in pages of at most BatchSize. The destination closes
//     gaps on delete, so each page is read from offset 1 again.
//  2. Remember the surviving placeholder.
//  3. For each album page: fetch, map with [MapPhotos], reverse, insert. The destination appends
//     a call's items in reverse submission order, so reversing keeps album order.
//  4. Delete the placeholder.
//
// The playlist is therefore never empty while photos are being inserted. Any remote error
// aborts the pass where it stands; there is no rollback and no retry.
//
// # Driver
//
// [SyncEngine.RunOnce] resolves both sides by name, decides and replaces. [Poller] repeats it
// on a [time.Ticker] until its context is cancelled.
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Updates use select with default
// so reporting never blocks a sync.
//
// # Journal
//
// The optional [RunRecorder] (repositories.SyncRunRepository) stores one record per attempt.
// It is an audit log: a recorder error is logged and ignored, and its contents never change
// a decision.
package tasks
