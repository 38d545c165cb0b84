package app

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voxnote/internal/audio"
	"voxnote/internal/command"
	"voxnote/internal/config"
	"voxnote/internal/logging"
	"voxnote/internal/models"
)

func setup(t *testing.T, vocab bool, model string) *config.Config {
	t.Helper()
	logging.SetOutput(io.Discard, "error")

	dir := t.TempDir()
	vocabPath := filepath.Join(dir, "english_words.txt")
	if vocab {
		if err := os.WriteFile(vocabPath, []byte("hello\nworld\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	modelsDir := filepath.Join(dir, "models")
	if model != "" {
		if err := os.MkdirAll(filepath.Join(modelsDir, "vosk", model), 0755); err != nil {
			t.Fatal(err)
		}
	}

	content := "vocabulary: " + vocabPath + "\nmodels_dir: " + modelsDir + "\ninitial_mode: annotating\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestBuildMissingVocabulary(t *testing.T) {
	_, err := build(setup(t, false, "vosk-model-small-en-us-0.15"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
	var appErr *Error
	if !errors.As(err, &appErr) || !strings.HasPrefix(appErr.Message, "Cannot read vocabulary") {
		t.Errorf("message = %v", err)
	}
}

func TestBuildNoRecognizer(t *testing.T) {
	_, err := build(setup(t, true, ""))
	if !errors.Is(err, models.ErrNoRecognizer) {
		t.Fatalf("err = %v, want ErrNoRecognizer", err)
	}
	if !strings.Contains(err.Error(), "en-US") {
		t.Errorf("message %q does not name the culture", err.Error())
	}
}

func TestBuildSelectsInstalledRecognizer(t *testing.T) {
	cfg := setup(t, true, "vosk-model-small-en-us-0.15")
	a, err := build(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if a.recognizer.ID != "vosk-en-us-small" {
		t.Errorf("recognizer = %q", a.recognizer.ID)
	}
	if cfg.Recognizer().ID != "vosk-en-us-small" {
		t.Errorf("recognizer not remembered: %q", cfg.Recognizer().ID)
	}
	if !a.grammar.AcceptsText("cancel world") {
		t.Error("grammar rejects a command plus vocabulary word")
	}
	if a.grammar.Culture() != "en-US" {
		t.Errorf("grammar culture = %q", a.grammar.Culture())
	}
	for _, m := range command.Modes() {
		if a.hotkeys[m] == nil {
			t.Errorf("no hotkey handler for %s", m)
		}
	}
}

func TestMeterOf(t *testing.T) {
	if m := meterOf(nil, "Kinect"); m != nil {
		t.Error("meter for no sensor")
	}

	dev := audio.NewDevice("Kinect USB Audio", 4)
	if m := meterOf(dev, "Other"); m != nil {
		t.Error("meter for a different sensor")
	}
	if m := meterOf(dev, "Kinect USB Audio"); m == nil {
		t.Error("no meter for the active device")
	}

	fake := audio.NewFakeSensor("Kinect")
	if m := meterOf(fake, "Kinect"); m != nil {
		t.Error("meter for a sensor without one")
	}
}
