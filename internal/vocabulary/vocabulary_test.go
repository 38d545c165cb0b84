package vocabulary

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPreservesOrder(t *testing.T) {
	path := writeFile(t, "apple\nbanana\ncherry")
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"apple", "banana", "cherry"}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadTrailingNewlineKeepsEmptyEntry(t *testing.T) {
	path := writeFile(t, "apple\nbanana\n")
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"apple", "banana", ""}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseTrimsWhitespaceAndCR(t *testing.T) {
	for _, tt := range []struct {
		name  string
		input string
		want  []string
	}{
		{"crlf", "one\r\ntwo\r\n", []string{"one", "two", ""}},
		{"spaces", "  one \n\ttwo\t", []string{"one", "two"}},
		{"empty", "", []string{""}},
		{"blank middle", "one\n\nthree", []string{"one", "", "three"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.input); !slices.Equal(got, tt.want) {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error %v does not wrap fs.ErrNotExist", err)
	}
}

func TestLoadRelativePath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "english_words.txt"), []byte("hello\nworld"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	got, err := Load("english_words.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d words, want 2", len(got))
	}
}
