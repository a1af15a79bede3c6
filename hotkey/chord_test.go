package hotkey

import "testing"

func TestParseChord(t *testing.T) {
	tests := []struct {
		name    string
		mods    string
		cancel  string
		want    Chord
		wantErr bool
	}{
		{"default", "ctrl+cmd", "escape", DefaultChord, false},
		{"aliases", "Control + Command", "esc", DefaultChord, false},
		{"windows_style", "ctrl+win", "Escape", DefaultChord, false},
		{"alt_shift", "alt+shift", "space", Chord{Mods: ModAlt | ModShift, Cancel: KeySpace}, false},
		{"unknown_modifier", "ctrl+hyper", "escape", Chord{}, true},
		{"empty", "", "escape", Chord{}, true},
		{"unknown_cancel", "ctrl+cmd", "f13", Chord{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChord(tt.mods, tt.cancel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChordString(t *testing.T) {
	if got, want := DefaultChord.String(), "ctrl+cmd (cancel: escape)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
