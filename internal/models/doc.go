// Package models defines the domain entities shared by the Flickr and Nixplay services, the sync engine and the run journal.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): values read fresh from the remote services on every attempt
//   - [Photo] : A photo from the source album with its candidate URLs and dimensions
//   - [Album] : Source album metadata used to size the replacement
//   - [Playlist] : Destination playlist metadata used for the freshness check
//   - [PlaylistItem] : The shape the destination accepts for insertion
//   - [Frame] and [FrameStatus] : Photo frames registered on the Nixplay account
//
// 2. Persistent Entities: database-backed audit records
//   - [SyncRun] : One sync attempt, whatever its outcome
//
// [SyncRun] implements the [Model] interface providing ID, timestamps and validation.
package models
