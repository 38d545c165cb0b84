package dialog

import (
	"testing"

	"voxnote/internal/config"
)

func TestLabelsRoundTrip(t *testing.T) {
	for _, k := range config.AvailableKeys() {
		got, ok := parseKey(keyLabel(k))
		if !ok || got != k {
			t.Errorf("parseKey(keyLabel(%q)) = %q, %v", k, got, ok)
		}
	}
	if _, ok := parseKey("Escape"); ok {
		t.Error("parseKey accepted an unknown key")
	}
}

func TestParseModifiersKeepsCanonicalOrder(t *testing.T) {
	got := parseModifiers([]string{"Shift", "Super (Win/Cmd)", "Ctrl", "Hyper"})
	want := []config.Modifier{config.ModCtrl, config.ModShift, config.ModSuper}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
