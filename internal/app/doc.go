// Package app is the composition root of the postboard client.
//
// Run loads the configuration, opens the log file, builds the post API
// client, the state store and the effect orchestrator, and then starts:
//
//   - the orchestrator run loop, on a context cancelled when the UI exits
//   - the refresh poller, which raises a collection fetch every
//     refresh_seconds (disabled when zero)
//   - an initial collection fetch
//   - the Bubble Tea UI, which blocks until the user quits
//
// On exit Run waits for in-flight effect sequences, which are bounded by
// request_timeout.
package app
