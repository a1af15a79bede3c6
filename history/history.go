// Package history keeps recent transcriptions in an embedded badger store.
package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"go.aimuz.me/vibeflow/internal/types"
)

var prefix = []byte("h/")

// Options tune a Store.
type Options struct {
	// MaxEntries caps the number of stored entries; 0 means unlimited.
	MaxEntries int
	// Retention expires entries after this long; 0 keeps them forever.
	Retention time.Duration
	Logger    *slog.Logger
}

// Store is a time-ordered transcription log.
type Store struct {
	db   *badger.DB
	opts Options
	log  *slog.Logger
}

// Open opens or creates a store in dir.
func Open(dir string, opts Options) (*Store, error) {
	return open(badger.DefaultOptions(dir), opts)
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory(opts Options) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), opts)
}

func open(bopts badger.Options, opts Options) (*Store, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	bopts = bopts.WithLogger(badgerLogger{log.With("component", "badger")}).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return &Store{db: db, opts: opts, log: log}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func entryKey(at time.Time, id string) []byte {
	return fmt.Appendf(nil, "h/%020d/%s", at.UnixNano(), id)
}

// Add stores e, filling in ID and CreatedAt when unset, and prunes the
// oldest entries beyond MaxEntries.
func (s *Store) Add(e types.HistoryEntry) (types.HistoryEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	val, err := json.Marshal(e)
	if err != nil {
		return e, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(entryKey(e.CreatedAt, e.ID), val)
		if s.opts.Retention > 0 {
			entry = entry.WithTTL(s.opts.Retention)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return e, fmt.Errorf("add history entry: %w", err)
	}

	if s.opts.MaxEntries > 0 {
		if err := s.prune(s.opts.MaxEntries); err != nil {
			s.log.Warn("prune history", "error", err)
		}
	}
	return e, nil
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (s *Store) Recent(n int) ([]types.HistoryEntry, error) {
	var out []types.HistoryEntry
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(reverseOptions(true))
		defer it.Close()

		for it.Seek(seekLast()); it.ValidForPrefix(prefix); it.Next() {
			if n > 0 && len(out) >= n {
				break
			}
			var e types.HistoryEntry
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &e)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Last returns the newest entry.
func (s *Store) Last() (types.HistoryEntry, bool, error) {
	entries, err := s.Recent(1)
	if err != nil || len(entries) == 0 {
		return types.HistoryEntry{}, false, err
	}
	return entries[0], true, nil
}

// Clear deletes every entry.
func (s *Store) Clear() error {
	return s.db.DropPrefix(prefix)
}

// prune deletes everything older than the newest keep entries.
func (s *Store) prune(keep int) error {
	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(reverseOptions(false))
		defer it.Close()

		seen := 0
		for it.Seek(seekLast()); it.ValidForPrefix(prefix); it.Next() {
			seen++
			if seen > keep {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil || len(stale) == 0 {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range stale {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func reverseOptions(values bool) badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.Prefix = prefix
	opts.PrefetchValues = values
	return opts
}

// seekLast positions a reverse iterator at the newest key.
func seekLast() []byte {
	return append(append([]byte(nil), prefix...), 0xFF)
}

// badgerLogger routes badger's printf logging into slog.
type badgerLogger struct{ log *slog.Logger }

func msg(f string, args []any) string { return strings.TrimSpace(fmt.Sprintf(f, args...)) }

func (l badgerLogger) Errorf(f string, args ...any)   { l.log.Error(msg(f, args)) }
func (l badgerLogger) Warningf(f string, args ...any) { l.log.Warn(msg(f, args)) }
func (l badgerLogger) Infof(f string, args ...any)    { l.log.Debug(msg(f, args)) }
func (l badgerLogger) Debugf(f string, args ...any)   { l.log.Debug(msg(f, args)) }
