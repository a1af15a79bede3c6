package dictation

import (
	"sync"
	"testing"
)

func TestMailboxOrder(t *testing.T) {
	m := newMailbox()
	for i := range 100 {
		m.post(i)
	}
	<-m.notify

	got := m.drain()
	if len(got) != 100 {
		t.Fatalf("drained %d messages, want 100", len(got))
	}
	for i, msg := range got {
		if msg.(int) != i {
			t.Fatalf("message %d = %v", i, msg)
		}
	}
	if rest := m.drain(); len(rest) != 0 {
		t.Errorf("second drain returned %v", rest)
	}
}

func TestMailboxConcurrentPost(t *testing.T) {
	m := newMailbox()
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				m.post(w*1000 + i)
			}
		}()
	}
	wg.Wait()

	// Per-producer order is preserved.
	last := map[int]int{}
	for _, msg := range m.drain() {
		v := msg.(int)
		w, i := v/1000, v%1000
		if prev, ok := last[w]; ok && i <= prev {
			t.Fatalf("producer %d: %d after %d", w, i, prev)
		}
		last[w] = i
	}
	if len(last) != 8 {
		t.Errorf("saw %d producers, want 8", len(last))
	}
}
