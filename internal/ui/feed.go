package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/postboard/internal/state"
)

// feed buffers store changes between deliveries to the Bubble Tea loop.
// Subscribers run on orchestrator goroutines and must not block, so changes
// are queued here and drained in order by waitForChanges.
type feed struct {
	mu      sync.Mutex
	pending []state.Change
	signal  chan struct{}
	done    chan struct{}
}

func newFeed() *feed {
	return &feed{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (f *feed) push(c state.Change) {
	f.mu.Lock()
	f.pending = append(f.pending, c)
	f.mu.Unlock()
	select {
	case f.signal <- struct{}{}:
	default:
	}
}

func (f *feed) close() {
	close(f.done)
}

// next blocks until changes are pending and returns all of them. It returns
// nil once the feed is closed.
func (f *feed) next() []state.Change {
	for {
		f.mu.Lock()
		batch := f.pending
		f.pending = nil
		f.mu.Unlock()
		if len(batch) > 0 {
			return batch
		}
		select {
		case <-f.signal:
		case <-f.done:
			return nil
		}
	}
}

type changesMsg []state.Change

func waitForChanges(f *feed) tea.Cmd {
	return func() tea.Msg {
		batch := f.next()
		if batch == nil {
			return nil
		}
		return changesMsg(batch)
	}
}
