package speech

import (
	"io"
	"sync"

	"voxnote/internal/grammar"
)

// FakeEngine - Engine для тестов. События отправляются через Emit.
// Канал событий небуферизован: Emit возвращается после того, как событие принято.
type FakeEngine struct {
	mu      sync.Mutex
	grammar *grammar.Grammar
	input   io.Reader
	format  AudioFormat
	mode    RecognizeMode
	running bool
	calls   []string
	closed  bool

	events chan Event
}

// NewFakeEngine создаёт FakeEngine.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{events: make(chan Event)}
}

func (f *FakeEngine) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *FakeEngine) Name() string    { return "fake" }
func (f *FakeEngine) Culture() string { return "en-US" }

func (f *FakeEngine) LoadGrammar(g *grammar.Grammar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LoadGrammar")
	f.grammar = g
	return nil
}

func (f *FakeEngine) SetInputToAudioStream(r io.Reader, format AudioFormat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetInputToAudioStream")
	f.input = r
	f.format = format
	return nil
}

func (f *FakeEngine) RecognizeAsync(mode RecognizeMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RecognizeAsync")
	if f.input == nil {
		return ErrNotStarted
	}
	f.mode = mode
	f.running = true
	return nil
}

func (f *FakeEngine) RecognizeAsyncCancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RecognizeAsyncCancel")
	f.running = false
}

func (f *FakeEngine) RecognizeAsyncStop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RecognizeAsyncStop")
	f.running = false
}

func (f *FakeEngine) Events() <-chan Event { return f.events }

func (f *FakeEngine) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Close")
	f.closed = true
}

// Emit отправляет событие и ждёт, пока его заберут.
func (f *FakeEngine) Emit(ev Event) {
	f.events <- ev
}

// Calls возвращает журнал вызовов.
func (f *FakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Running сообщает, идёт ли распознавание.
func (f *FakeEngine) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Closed сообщает, закрыт ли движок.
func (f *FakeEngine) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Format возвращает формат подключённого потока.
func (f *FakeEngine) Format() AudioFormat {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.format
}

// Grammar возвращает загруженную грамматику.
func (f *FakeEngine) Grammar() *grammar.Grammar {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.grammar
}
