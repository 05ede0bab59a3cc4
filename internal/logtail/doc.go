// Package logtail reads the end of the postboard client log for the in-app
// log view.
//
// Read seeks backwards from the end of the file in fixed-size blocks, so
// the cost depends on the number of lines requested rather than the file
// size. Level pulls the level attribute out of a slog text record so the UI
// can colour lines.
package logtail
