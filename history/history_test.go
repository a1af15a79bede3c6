package history

import (
	"fmt"
	"testing"
	"time"

	"go.aimuz.me/vibeflow/internal/types"
)

func openTest(t *testing.T, opts Options) *Store {
	t.Helper()
	s, err := OpenInMemory(opts)
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecentNewestFirst(t *testing.T) {
	s := openTest(t, Options{})
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := range 5 {
		_, err := s.Add(types.HistoryEntry{
			Text:      fmt.Sprintf("entry %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got, err := s.Recent(3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	want := []string{"entry 4", "entry 3", "entry 2"}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i].Text, want[i])
		}
		if got[i].ID == "" {
			t.Errorf("entry %d has no id", i)
		}
	}

	all, err := s.Recent(0)
	if err != nil || len(all) != 5 {
		t.Errorf("Recent(0) = %d entries, %v", len(all), err)
	}
}

func TestMaxEntriesPrunes(t *testing.T) {
	s := openTest(t, Options{MaxEntries: 3})
	base := time.Now()
	for i := range 6 {
		if _, err := s.Add(types.HistoryEntry{
			Text:      fmt.Sprintf("e%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("kept %d entries, want 3", len(got))
	}
	if got[0].Text != "e5" || got[2].Text != "e3" {
		t.Errorf("kept %q..%q, want e5..e3", got[0].Text, got[2].Text)
	}
}

func TestLastAndClear(t *testing.T) {
	s := openTest(t, Options{})

	if _, ok, err := s.Last(); ok || err != nil {
		t.Fatalf("Last on empty store = %v, %v", ok, err)
	}

	if _, err := s.Add(types.HistoryEntry{Text: "hello", Duration: 2 * time.Second}); err != nil {
		t.Fatal(err)
	}
	last, ok, err := s.Last()
	if err != nil || !ok {
		t.Fatalf("Last = %v, %v", ok, err)
	}
	if last.Text != "hello" || last.Duration != 2*time.Second {
		t.Errorf("Last = %+v", last)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := s.Recent(0); len(got) != 0 {
		t.Errorf("after Clear: %d entries", len(got))
	}
}
