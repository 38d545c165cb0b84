// Package vocabulary loads the word list used to build the recognition grammar.
package vocabulary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads a newline-delimited word list and returns the trimmed entries in
// file order. The path is resolved against the working directory.
//
// Entries are not filtered: a trailing newline yields a trailing empty word.
func Load(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve vocabulary path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}

	return Parse(string(data)), nil
}

// Parse splits text on '\n' and trims every entry.
func Parse(text string) []string {
	words := strings.Split(text, "\n")
	for i := range words {
		words[i] = strings.TrimSpace(words[i])
	}
	return words
}
