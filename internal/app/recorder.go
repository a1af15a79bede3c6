package app

import (
	"log/slog"
	"time"

	"go.aimuz.me/vibeflow/dictation"
	"go.aimuz.me/vibeflow/internal/types"
)

// historyStore is the part of history.Store the app uses.
type historyStore interface {
	Add(types.HistoryEntry) (types.HistoryEntry, error)
	Recent(n int) ([]types.HistoryEntry, error)
	Last() (types.HistoryEntry, bool, error)
	Clear() error
	Close() error
}

// historyRecorder stores finished transcripts. Writes happen off the session
// loop.
type historyRecorder struct {
	store    historyStore
	provider func() string
	log      *slog.Logger
	async    func(func())
}

func newHistoryRecorder(store historyStore, provider func() string, log *slog.Logger) *historyRecorder {
	return &historyRecorder{
		store:    store,
		provider: provider,
		log:      log,
		async:    func(f func()) { go f() },
	}
}

func (r *historyRecorder) Record(t dictation.Transcript) {
	entry := types.HistoryEntry{
		ID:        t.SessionID,
		Text:      t.Text,
		Provider:  r.provider(),
		Duration:  t.Duration,
		CreatedAt: time.Now(),
	}
	r.async(func() {
		if _, err := r.store.Add(entry); err != nil {
			r.log.Warn("record history", "session", t.SessionID, "error", err)
		}
	})
}
