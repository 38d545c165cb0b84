package speech

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"voxnote/internal/grammar"
	"voxnote/internal/logging"
)

// Utterance - законченное высказывание от декодера.
type Utterance struct {
	Text       string
	Confidence float64
}

// Decoder превращает PCM в высказывания. Вызывается из одной горутины.
type Decoder interface {
	// SetGrammar перестраивает декодер под грамматику.
	SetGrammar(g *grammar.Grammar) error

	// Accept принимает кусок PCM16 LE и возвращает завершённые высказывания.
	Accept(pcm []byte) ([]Utterance, error)

	// Flush завершает текущее высказывание.
	Flush() ([]Utterance, error)

	// Reset сбрасывает накопленное аудио.
	Reset()

	// Close освобождает ресурсы.
	Close()
}

const eventBuffer = 64

// run - один запуск RecognizeAsync.
type run struct {
	cancel     chan struct{}
	stop       chan struct{}
	done       chan struct{}
	cancelOnce sync.Once
	stopOnce   sync.Once
}

func newRun() *run {
	return &run{
		cancel: make(chan struct{}),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (r *run) doCancel() { r.cancelOnce.Do(func() { close(r.cancel) }) }
func (r *run) doStop()   { r.stopOnce.Do(func() { close(r.stop) }) }

// Recognizer реализует Engine поверх Decoder.
// Одна горутина читает поток кусками по 100 мс и классифицирует высказывания по грамматике.
type Recognizer struct {
	name    string
	culture string
	decoder Decoder

	mu      sync.Mutex
	grammar *grammar.Grammar
	input   io.Reader
	format  AudioFormat
	current *run
	closed  bool

	events chan Event
}

// NewRecognizer создаёт движок с указанным декодером.
func NewRecognizer(name, culture string, decoder Decoder) *Recognizer {
	return &Recognizer{
		name:    name,
		culture: culture,
		decoder: decoder,
		events:  make(chan Event, eventBuffer),
	}
}

// Name возвращает название движка.
func (r *Recognizer) Name() string { return r.name }

// Culture возвращает культуру распознавания.
func (r *Recognizer) Culture() string { return r.culture }

// Events возвращает канал событий. Канал не закрывается.
func (r *Recognizer) Events() <-chan Event { return r.events }

// LoadGrammar загружает грамматику в декодер.
func (r *Recognizer) LoadGrammar(g *grammar.Grammar) error {
	if g == nil {
		return ErrNoGrammar
	}
	if !strings.EqualFold(g.Culture(), r.culture) {
		return fmt.Errorf("%w: %s vs %s", ErrCultureMismatch, g.Culture(), r.culture)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.running() {
		return ErrRunning
	}
	if err := r.decoder.SetGrammar(g); err != nil {
		return fmt.Errorf("загрузка грамматики: %w", err)
	}
	r.grammar = g
	return nil
}

// SetInputToAudioStream подключает аудиопоток.
func (r *Recognizer) SetInputToAudioStream(in io.Reader, format AudioFormat) error {
	if in == nil {
		return ErrNotStarted
	}
	if !format.Valid() {
		return fmt.Errorf("speech: unsupported audio format %+v", format)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.running() {
		return ErrRunning
	}
	r.input = in
	r.format = format
	return nil
}

// RecognizeAsync запускает распознавание в фоне.
func (r *Recognizer) RecognizeAsync(mode RecognizeMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.closed:
		return ErrClosed
	case r.grammar == nil:
		return ErrNoGrammar
	case r.input == nil:
		return ErrNotStarted
	case r.running():
		return ErrRunning
	}

	cur := newRun()
	r.current = cur

	chunk := r.format.AverageBytesPerSecond / 10
	chunk -= chunk % r.format.BlockAlign
	chunks := make(chan []byte, 8)

	go readChunks(r.input, chunk, chunks, cur.done)
	go r.loop(mode, r.grammar, chunks, cur)
	return nil
}

// RecognizeAsyncCancel прерывает распознавание. Повторный вызов безопасен.
func (r *Recognizer) RecognizeAsyncCancel() {
	r.mu.Lock()
	cur := r.current
	r.mu.Unlock()
	if cur != nil {
		cur.doCancel()
	}
}

// RecognizeAsyncStop дообрабатывает высказывание и завершает распознавание.
// Повторный вызов безопасен.
func (r *Recognizer) RecognizeAsyncStop() {
	r.mu.Lock()
	cur := r.current
	r.mu.Unlock()
	if cur != nil {
		cur.doStop()
	}
}

// Close прерывает распознавание, дожидается горутины и освобождает декодер.
func (r *Recognizer) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	cur := r.current
	r.mu.Unlock()

	if cur != nil {
		cur.doCancel()
		<-cur.done
	}
	r.decoder.Close()
}

// running вызывается под r.mu.
func (r *Recognizer) running() bool {
	if r.current == nil {
		return false
	}
	select {
	case <-r.current.done:
		return false
	default:
		return true
	}
}

// readChunks читает поток и отдаёт куски до EOF или завершения запуска.
func readChunks(in io.Reader, size int, out chan<- []byte, done <-chan struct{}) {
	defer close(out)
	for {
		buf := make([]byte, size)
		n, err := io.ReadFull(in, buf)
		if n > 0 {
			select {
			case out <- buf[:n]:
			case <-done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.ErrClosedPipe) {
				logging.Warnf("speech: чтение аудио: %v", err)
			}
			return
		}
	}
}

func (r *Recognizer) loop(mode RecognizeMode, g *grammar.Grammar, chunks <-chan []byte, cur *run) {
	defer close(cur.done)

	// deliver возвращает false, когда запуск должен завершиться.
	deliver := func(utts []Utterance) bool {
		for _, u := range utts {
			ev, ok := classify(g, u)
			if !ok {
				continue
			}
			select {
			case r.events <- ev:
			case <-cur.cancel:
				return false
			}
			if mode == RecognizeSingle && ev.Kind == Recognized {
				return false
			}
		}
		return true
	}

	finish := func() {
		utts, err := r.decoder.Flush()
		if err != nil {
			logging.Warnf("speech: %s flush: %v", r.name, err)
		}
		deliver(utts)
	}

	for {
		select {
		case <-cur.cancel:
			r.decoder.Reset()
			return
		case <-cur.stop:
			finish()
			return
		case pcm, ok := <-chunks:
			if !ok {
				finish()
				return
			}
			utts, err := r.decoder.Accept(pcm)
			if err != nil {
				logging.Warnf("speech: %s decode: %v", r.name, err)
				continue
			}
			if !deliver(utts) {
				r.decoder.Reset()
				return
			}
		}
	}
}

// classify сопоставляет высказывание с грамматикой.
// Пустые высказывания (тишина) событий не порождают.
func classify(g *grammar.Grammar, u Utterance) (Event, bool) {
	text := strings.TrimSpace(u.Text)
	if text == "" {
		return Event{}, false
	}
	kind := Rejected
	if g.AcceptsText(text) {
		kind = Recognized
	}
	return Event{Kind: kind, Text: text, Confidence: clamp01(u.Confidence)}, true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
