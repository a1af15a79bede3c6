// Package clipboard reads and writes the system clipboard text.
package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"
)

var mu sync.Mutex

// Read returns the current clipboard text.
func Read() (string, error) {
	mu.Lock()
	defer mu.Unlock()
	return readText()
}

// Write replaces the clipboard contents with text.
func Write(text string) error {
	mu.Lock()
	defer mu.Unlock()
	return clipboard.WriteAll(text)
}

// Snapshot is a saved clipboard state.
type Snapshot struct {
	text string
	ok   bool
}

// Save captures the clipboard text so it can be put back later. A clipboard
// that cannot be read, or holds no text, yields a snapshot whose Restore is
// a no-op.
func Save() Snapshot {
	text, err := Read()
	if err != nil || text == "" {
		return Snapshot{}
	}
	return Snapshot{text: text, ok: true}
}

// Restore writes the saved text back.
func (s Snapshot) Restore() error {
	if !s.ok {
		return nil
	}
	return Write(s.text)
}
