// Package grammar builds the constrained grammar the recognizer listens for.
//
// A grammar is a fixed sequence of segments. Each segment holds a set of
// alternatives and may appear between Min and Max times. An utterance is
// accepted when its words can be split across the segments in order.
package grammar

import (
	"strings"
)

// Fixed command words.
var (
	PreRecordingCommands  = []string{"start"}
	PostRecordingCommands = []string{"keep", "cancel", "redo", "play"}
)

// Choices is an ordered set of alternatives.
type Choices []string

// Segment is one position in the grammar.
type Segment struct {
	Name    string
	Choices Choices
	Min     int
	Max     int
}

// Grammar is an immutable recognition grammar.
type Grammar struct {
	culture  string
	segments []Segment
}

// Builder assembles a Grammar segment by segment.
type Builder struct {
	Culture  string
	segments []Segment
}

// Append adds a segment that may repeat between minCount and maxCount times.
func (b *Builder) Append(name string, choices Choices, minCount, maxCount int) *Builder {
	alts := make(Choices, len(choices))
	copy(alts, choices)
	b.segments = append(b.segments, Segment{Name: name, Choices: alts, Min: minCount, Max: maxCount})
	return b
}

// Grammar freezes the builder.
func (b *Builder) Grammar() *Grammar {
	segs := make([]Segment, len(b.segments))
	copy(segs, b.segments)
	return &Grammar{culture: b.Culture, segments: segs}
}

// Build returns the command grammar: an optional pre-recording command, an
// optional post-recording command and an optional vocabulary word, in that
// order.
func Build(vocab []string, culture string) *Grammar {
	b := &Builder{Culture: culture}
	b.Append("pre_recording", PreRecordingCommands, 0, 1)
	b.Append("post_recording", PostRecordingCommands, 0, 1)
	b.Append("vocabulary", vocab, 0, 1)
	return b.Grammar()
}

// Culture returns the locale the grammar was built for.
func (g *Grammar) Culture() string {
	return g.culture
}

// Segments returns a copy of the grammar segments.
func (g *Grammar) Segments() []Segment {
	segs := make([]Segment, len(g.segments))
	copy(segs, g.segments)
	return segs
}

// Accepts reports whether tokens form an utterance of the grammar.
// Comparison is case-insensitive. An empty utterance is never accepted.
func (g *Grammar) Accepts(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	return g.match(0, tokens)
}

// AcceptsText splits text on whitespace and calls Accepts.
func (g *Grammar) AcceptsText(text string) bool {
	return g.Accepts(strings.Fields(text))
}

func (g *Grammar) match(seg int, tokens []string) bool {
	if seg == len(g.segments) {
		return len(tokens) == 0
	}
	return g.matchRepeat(seg, 0, tokens)
}

// matchRepeat tries count-th repetition of segment seg.
func (g *Grammar) matchRepeat(seg, count int, tokens []string) bool {
	s := g.segments[seg]
	if count >= s.Min && g.match(seg+1, tokens) {
		return true
	}
	if count >= s.Max {
		return false
	}
	for _, alt := range s.Choices {
		words := strings.Fields(alt)
		if len(words) == 0 || len(words) > len(tokens) {
			continue
		}
		if equalFold(words, tokens[:len(words)]) && g.matchRepeat(seg, count+1, tokens[len(words):]) {
			return true
		}
	}
	return false
}

func equalFold(a, b []string) bool {
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Phrases enumerates every non-empty utterance of the grammar in a stable
// order. Duplicates and blank alternatives are skipped.
func (g *Grammar) Phrases() []string {
	partial := []string{""}
	for _, s := range g.segments {
		options := segmentOptions(s)
		next := make([]string, 0, len(partial)*len(options))
		for _, p := range partial {
			for _, o := range options {
				next = append(next, join(p, o))
			}
		}
		partial = next
	}

	seen := make(map[string]struct{}, len(partial))
	out := make([]string, 0, len(partial))
	for _, p := range partial {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// segmentOptions lists every expansion of one segment, the empty one first
// when the segment is optional.
func segmentOptions(s Segment) []string {
	var options []string
	if s.Min == 0 {
		options = append(options, "")
	}
	current := []string{""}
	for count := 1; count <= s.Max; count++ {
		var next []string
		for _, c := range current {
			for _, alt := range s.Choices {
				alt = strings.Join(strings.Fields(alt), " ")
				if alt == "" {
					continue
				}
				next = append(next, join(c, alt))
			}
		}
		current = next
		if count >= s.Min {
			options = append(options, current...)
		}
	}
	return options
}

func join(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// Words returns the distinct non-empty words used by the grammar.
func (g *Grammar) Words() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range g.segments {
		for _, alt := range s.Choices {
			for _, w := range strings.Fields(alt) {
				key := strings.ToLower(w)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, w)
			}
		}
	}
	return out
}
