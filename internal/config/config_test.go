package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Locale() != "en-US" {
		t.Errorf("locale = %q", cfg.Locale())
	}
	if cfg.Vocabulary() != "english_words.txt" {
		t.Errorf("vocabulary = %q", cfg.Vocabulary())
	}
	if cfg.Sensor().ReadyDelay != 4*time.Second {
		t.Errorf("ready delay = %v", cfg.Sensor().ReadyDelay)
	}
	if cfg.ConfidenceThreshold() != 0.5 {
		t.Errorf("threshold = %v", cfg.ConfidenceThreshold())
	}
	if cfg.InitialMode() != "post_recording" {
		t.Errorf("initial mode = %q", cfg.InitialMode())
	}
	if got := cfg.Recognizer().Require["Grammar"]; got != "True" {
		t.Errorf("require Grammar = %q", got)
	}
	if cfg.Hotkeys().Annotating.String() != "ctrl+shift+f3" {
		t.Errorf("annotating hotkey = %q", cfg.Hotkeys().Annotating.String())
	}
}

func TestLoadOverridesAndEnv(t *testing.T) {
	t.Setenv("VOXNOTE_TEST_WORDS", "/data/words.txt")
	path := writeConfig(t, `
locale: ru-RU
vocabulary: ${VOXNOTE_TEST_WORDS}
sensor:
  match: "Xbox NUI"
  poll_interval: 500ms
  ready_delay: 1s
confidence_threshold: 0.7
initial_mode: annotating
recognizer:
  id: vosk-en-us-small
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Locale() != "ru-RU" {
		t.Errorf("locale = %q", cfg.Locale())
	}
	if cfg.Vocabulary() != "/data/words.txt" {
		t.Errorf("vocabulary = %q", cfg.Vocabulary())
	}
	s := cfg.Sensor()
	if s.Match != "Xbox NUI" || s.PollInterval != 500*time.Millisecond || s.ReadyDelay != time.Second {
		t.Errorf("sensor = %+v", s)
	}
	if s.Channels != 4 {
		t.Errorf("channels default lost: %d", s.Channels)
	}
	if cfg.ConfidenceThreshold() != 0.7 {
		t.Errorf("threshold = %v", cfg.ConfidenceThreshold())
	}
	if cfg.Recognizer().ID != "vosk-en-us-small" {
		t.Errorf("recognizer id = %q", cfg.Recognizer().ID)
	}
}

func TestLoadInvalidThresholdFallsBack(t *testing.T) {
	cfg, err := Load(writeConfig(t, "confidence_threshold: 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ConfidenceThreshold() != 0.5 {
		t.Errorf("threshold = %v, want 0.5", cfg.ConfidenceThreshold())
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "sensor: [broken")); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestSavePersists(t *testing.T) {
	path := writeConfig(t, "notifications: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ToggleNotifications() {
		t.Fatal("toggle should disable notifications")
	}
	cfg.SetRecognizerID("whisper-base-en")

	again, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.NotificationsEnabled() {
		t.Error("notifications not persisted")
	}
	if again.Recognizer().ID != "whisper-base-en" {
		t.Errorf("recognizer id = %q", again.Recognizer().ID)
	}
}

func TestRecognizerReturnsCopy(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	r := cfg.Recognizer()
	r.Require["Grammar"] = "False"
	if cfg.Recognizer().Require["Grammar"] != "True" {
		t.Error("Recognizer() leaked internal map")
	}
}

func TestSetHotkey(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	hk := HotkeyConfig{Modifiers: []Modifier{ModAlt}, Key: KeyF9}
	if !cfg.SetHotkey("annotating", hk) {
		t.Fatal("SetHotkey(annotating) = false")
	}
	if cfg.SetHotkey("idle", hk) {
		t.Error("SetHotkey(idle) = true")
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := reloaded.Hotkeys().For("annotating")
	if !ok || got.String() != "alt+f9" {
		t.Errorf("annotating hotkey = %q, %v", got.String(), ok)
	}
	if _, ok := reloaded.Hotkeys().For("idle"); ok {
		t.Error("For(idle) reported a hotkey")
	}
}
