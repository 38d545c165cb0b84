package speech

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"voxnote/internal/grammar"
)

// scriptedDecoder возвращает заранее заданные высказывания по одному списку на кусок.
type scriptedDecoder struct {
	mu      sync.Mutex
	script  [][]Utterance
	flush   []Utterance
	chunks  int
	resets  int
	closed  bool
	grammar *grammar.Grammar
}

func (d *scriptedDecoder) SetGrammar(g *grammar.Grammar) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.grammar = g
	return nil
}

func (d *scriptedDecoder) Accept(pcm []byte) ([]Utterance, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.chunks
	d.chunks++
	if i < len(d.script) {
		return d.script[i], nil
	}
	return nil, nil
}

func (d *scriptedDecoder) Flush() ([]Utterance, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.flush
	d.flush = nil
	return out, nil
}

func (d *scriptedDecoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resets++
}

func (d *scriptedDecoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func testGrammar() *grammar.Grammar {
	return grammar.Build([]string{"hello", "world"}, "en-US")
}

func chunks(n int) io.Reader {
	return bytes.NewReader(make([]byte, n*DefaultFormat.AverageBytesPerSecond/10))
}

func nextEvent(t *testing.T, r *Recognizer) Event {
	t.Helper()
	select {
	case ev := <-r.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

func newStarted(t *testing.T, dec *scriptedDecoder, in io.Reader, mode RecognizeMode) *Recognizer {
	t.Helper()
	r := NewRecognizer("scripted", "en-US", dec)
	if err := r.LoadGrammar(testGrammar()); err != nil {
		t.Fatal(err)
	}
	if err := r.SetInputToAudioStream(in, DefaultFormat); err != nil {
		t.Fatal(err)
	}
	if err := r.RecognizeAsync(mode); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRecognizeMultipleClassifies(t *testing.T) {
	dec := &scriptedDecoder{
		script: [][]Utterance{
			{{Text: "start", Confidence: 0.9}},
			{{Text: "zebra crossing", Confidence: 0.8}},
			{{Text: "  ", Confidence: 1}},
			{{Text: "Hello", Confidence: 1.7}},
		},
		flush: []Utterance{{Text: "keep", Confidence: 0.6}},
	}
	r := newStarted(t, dec, chunks(4), RecognizeMultiple)
	defer r.Close()

	want := []Event{
		{Kind: Recognized, Text: "start", Confidence: 0.9},
		{Kind: Rejected, Text: "zebra crossing", Confidence: 0.8},
		{Kind: Recognized, Text: "Hello", Confidence: 1},
		{Kind: Recognized, Text: "keep", Confidence: 0.6},
	}
	for i, w := range want {
		if got := nextEvent(t, r); got != w {
			t.Errorf("event %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestRecognizeSingleEndsAfterFirstRecognized(t *testing.T) {
	dec := &scriptedDecoder{
		script: [][]Utterance{
			{{Text: "mumble", Confidence: 0.2}},
			{{Text: "world", Confidence: 0.9}, {Text: "hello", Confidence: 0.9}},
			{{Text: "hello", Confidence: 0.9}},
		},
	}
	r := newStarted(t, dec, chunks(3), RecognizeSingle)

	if ev := nextEvent(t, r); ev.Kind != Rejected {
		t.Fatalf("first event = %+v", ev)
	}
	if ev := nextEvent(t, r); ev.Kind != Recognized || ev.Text != "world" {
		t.Fatalf("second event = %+v", ev)
	}

	r.Close()
	if n := len(r.Events()); n != 0 {
		t.Errorf("%d events delivered after single recognition", n)
	}
}

func TestStopFlushesPendingUtterance(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	dec := &scriptedDecoder{flush: []Utterance{{Text: "cancel", Confidence: 0.7}}}
	r := newStarted(t, dec, pr, RecognizeMultiple)
	defer r.Close()

	r.RecognizeAsyncStop()
	r.RecognizeAsyncStop()

	ev := nextEvent(t, r)
	if ev.Kind != Recognized || ev.Text != "cancel" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestCancelDropsPendingAudio(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	dec := &scriptedDecoder{flush: []Utterance{{Text: "cancel", Confidence: 0.7}}}
	r := newStarted(t, dec, pr, RecognizeMultiple)

	r.RecognizeAsyncCancel()
	r.RecognizeAsyncCancel()
	r.RecognizeAsyncStop()
	r.Close()
	r.Close()

	if n := len(r.Events()); n != 0 {
		t.Errorf("cancel delivered %d events", n)
	}
	dec.mu.Lock()
	defer dec.mu.Unlock()
	if dec.resets == 0 {
		t.Error("decoder not reset on cancel")
	}
	if !dec.closed {
		t.Error("decoder not closed")
	}
}

func TestRecognizeAsyncPreconditions(t *testing.T) {
	dec := &scriptedDecoder{}
	r := NewRecognizer("scripted", "en-US", dec)
	defer r.Close()

	if err := r.RecognizeAsync(RecognizeMultiple); !errors.Is(err, ErrNoGrammar) {
		t.Errorf("without grammar: %v", err)
	}
	if err := r.LoadGrammar(grammar.Build(nil, "ru-RU")); !errors.Is(err, ErrCultureMismatch) {
		t.Errorf("culture mismatch: %v", err)
	}
	if err := r.LoadGrammar(testGrammar()); err != nil {
		t.Fatal(err)
	}
	if err := r.RecognizeAsync(RecognizeMultiple); !errors.Is(err, ErrNotStarted) {
		t.Errorf("without input: %v", err)
	}

	bad := DefaultFormat
	bad.BlockAlign = 4
	if err := r.SetInputToAudioStream(chunks(1), bad); err == nil {
		t.Error("inconsistent format accepted")
	}

	pr, pw := io.Pipe()
	defer pw.Close()
	if err := r.SetInputToAudioStream(pr, DefaultFormat); err != nil {
		t.Fatal(err)
	}
	if err := r.RecognizeAsync(RecognizeMultiple); err != nil {
		t.Fatal(err)
	}
	if err := r.RecognizeAsync(RecognizeMultiple); !errors.Is(err, ErrRunning) {
		t.Errorf("second start: %v", err)
	}
}

func TestClosedEngineRejectsCalls(t *testing.T) {
	r := NewRecognizer("scripted", "en-US", &scriptedDecoder{})
	r.Close()

	if err := r.LoadGrammar(testGrammar()); !errors.Is(err, ErrClosed) {
		t.Errorf("LoadGrammar after Close: %v", err)
	}
	if err := r.RecognizeAsync(RecognizeMultiple); !errors.Is(err, ErrClosed) {
		t.Errorf("RecognizeAsync after Close: %v", err)
	}
	r.RecognizeAsyncCancel()
	r.RecognizeAsyncStop()
}

func TestDefaultFormat(t *testing.T) {
	f := DefaultFormat
	if !f.Valid() {
		t.Fatal("DefaultFormat invalid")
	}
	if f.SamplesPerSecond != 16000 || f.BitsPerSample != 16 || f.ChannelCount != 1 ||
		f.AverageBytesPerSecond != 32000 || f.BlockAlign != 2 {
		t.Errorf("DefaultFormat = %+v", f)
	}
}
