// Package ui implements the `nixflix watch` terminal interface using bubbletea's Elm architecture.
//
// The watch [Model] sits on top of a running poller:
//   - progress updates from the sync engine show the current phase, with a bar while clearing or posting pages
//   - finished attempts are kept as a short history colored by outcome
//   - between attempts a countdown shows when the next tick is due
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Keys: s requests a sync now, f requests a forced sync, ? toggles full help and q quits.
//
// The package also exposes the lipgloss palette ([OK], [Warn], [Error], [Summary]) for plain CLI output.
package ui
