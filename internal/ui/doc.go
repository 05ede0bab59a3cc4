// Package ui is the postboard terminal interface, built on Bubble Tea.
//
// The UI never talks to the remote store. It reads state.State, which the
// effect orchestrator keeps current, and turns key presses into intents
// through the Actions interface. Store changes reach the Bubble Tea loop
// through a feed: the state subscriber queues every Change and the model
// drains them in order, so a collection error raised while the panel was
// dismissed shows the panel again.
//
// Screens:
//
//   - list: newest-first posts, a loader while the first fetch runs, an
//     error panel whose "go home" key re-fetches, and an empty state
//   - detail: the focused post, mirrored in the store while open
//   - form: add and edit; validation problems and the focused request
//     error are shown inline, and an accepted add closes once the post
//     list changes
//   - logs: the tail of the client log file
package ui
