// Package command maps recognition results to voice-command effects.
package command

import (
	"strings"
)

// DefaultThreshold is the confidence below which annotations are rejected.
const DefaultThreshold = 0.5

// Mode is the interaction state that decides how a result is interpreted.
type Mode int

const (
	ModeIdle Mode = iota
	ModePreRecording
	ModePostRecording
	ModeAnnotating
)

// DefaultMode is the mode a new session starts in.
const DefaultMode = ModePostRecording

var modeNames = map[Mode]string{
	ModeIdle:          "idle",
	ModePreRecording:  "pre_recording",
	ModePostRecording: "post_recording",
	ModeAnnotating:    "annotating",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMode parses a mode name as written by String.
func ParseMode(s string) (Mode, bool) {
	for m, name := range modeNames {
		if strings.EqualFold(name, s) {
			return m, true
		}
	}
	return ModeIdle, false
}

// Modes lists the selectable modes in display order.
func Modes() []Mode {
	return []Mode{ModePreRecording, ModePostRecording, ModeAnnotating}
}

// Indicator is a named command badge in the UI.
type Indicator int

const (
	IndicatorStart Indicator = iota
	IndicatorKeep
	IndicatorCancel
	IndicatorRedo
	IndicatorPlay
)

// Indicators lists every indicator in display order.
func Indicators() []Indicator {
	return []Indicator{IndicatorStart, IndicatorKeep, IndicatorCancel, IndicatorRedo, IndicatorPlay}
}

func (i Indicator) String() string {
	switch i {
	case IndicatorStart:
		return "start"
	case IndicatorKeep:
		return "keep"
	case IndicatorCancel:
		return "cancel"
	case IndicatorRedo:
		return "redo"
	case IndicatorPlay:
		return "play"
	default:
		return "unknown"
	}
}

// Result is a single recognition result.
type Result struct {
	Text       string
	Confidence float64
}

// Kind classifies an Effect.
type Kind int

const (
	None Kind = iota
	Rejected
	Recognized
	ShowIndicator
)

// Effect is what the UI should do for one result. At most one effect is
// produced per result.
type Effect struct {
	Kind      Kind
	Indicator Indicator
	Result    Result
}

var (
	preRecording = map[string]Indicator{
		"START": IndicatorStart,
	}
	postRecording = map[string]Indicator{
		"KEEP":   IndicatorKeep,
		"CANCEL": IndicatorCancel,
		"REDO":   IndicatorRedo,
		"PLAY":   IndicatorPlay,
	}
)

// Dispatch decides the effect of a recognized result in the given mode.
// In annotating mode results with confidence < threshold are rejected.
func Dispatch(mode Mode, r Result, threshold float64) Effect {
	switch mode {
	case ModeAnnotating:
		if r.Confidence < threshold {
			return Effect{Kind: Rejected, Result: r}
		}
		return Effect{Kind: Recognized, Result: r}
	case ModePreRecording:
		return lookup(preRecording, r)
	case ModePostRecording:
		return lookup(postRecording, r)
	default:
		return Effect{Kind: None, Result: r}
	}
}

func lookup(table map[string]Indicator, r Result) Effect {
	if ind, ok := table[strings.ToUpper(r.Text)]; ok {
		return Effect{Kind: ShowIndicator, Indicator: ind, Result: r}
	}
	return Effect{Kind: None, Result: r}
}
