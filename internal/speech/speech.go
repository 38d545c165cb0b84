// Package speech предоставляет движки распознавания речи с ограниченной грамматикой.
package speech

import (
	"errors"
	"io"

	"voxnote/internal/grammar"
)

var (
	// ErrNotStarted - аудиопоток не подключён.
	ErrNotStarted = errors.New("speech: audio input not set")
	// ErrNoGrammar - грамматика не загружена.
	ErrNoGrammar = errors.New("speech: grammar not loaded")
	// ErrRunning - распознавание уже запущено.
	ErrRunning = errors.New("speech: recognition already running")
	// ErrClosed - движок закрыт.
	ErrClosed = errors.New("speech: engine closed")
	// ErrCultureMismatch - культура грамматики не совпадает с культурой движка.
	ErrCultureMismatch = errors.New("speech: grammar culture does not match engine")
)

// Encoding формат кодирования аудио.
type Encoding string

// EncodingPCM - несжатый PCM.
const EncodingPCM Encoding = "pcm"

// AudioFormat описывает входной аудиопоток.
type AudioFormat struct {
	Encoding              Encoding
	SamplesPerSecond      int
	BitsPerSample         int
	ChannelCount          int
	AverageBytesPerSecond int
	BlockAlign            int
}

// DefaultFormat - 16 кГц, 16 бит, моно.
var DefaultFormat = AudioFormat{
	Encoding:              EncodingPCM,
	SamplesPerSecond:      16000,
	BitsPerSample:         16,
	ChannelCount:          1,
	AverageBytesPerSecond: 32000,
	BlockAlign:            2,
}

// Valid проверяет согласованность полей формата.
func (f AudioFormat) Valid() bool {
	return f.Encoding == EncodingPCM &&
		f.SamplesPerSecond > 0 &&
		f.BitsPerSample == 16 &&
		f.ChannelCount > 0 &&
		f.BlockAlign == f.ChannelCount*f.BitsPerSample/8 &&
		f.AverageBytesPerSecond == f.SamplesPerSecond*f.BlockAlign
}

// RecognizeMode режим асинхронного распознавания.
type RecognizeMode int

const (
	// RecognizeSingle завершается после первого распознанного высказывания.
	RecognizeSingle RecognizeMode = iota
	// RecognizeMultiple работает до отмены или остановки.
	RecognizeMultiple
)

// EventKind тип события распознавания.
type EventKind int

const (
	// Recognized - высказывание соответствует грамматике.
	Recognized EventKind = iota
	// Rejected - высказывание отвергнуто.
	Rejected
)

func (k EventKind) String() string {
	switch k {
	case Recognized:
		return "recognized"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Event событие распознавания.
type Event struct {
	Kind       EventKind
	Text       string
	Confidence float64
}

// Engine - интерфейс движка распознавания речи.
type Engine interface {
	// Name возвращает название движка (для логирования).
	Name() string

	// Culture возвращает культуру распознавания ("en-US").
	Culture() string

	// LoadGrammar загружает грамматику. Культура должна совпадать.
	LoadGrammar(g *grammar.Grammar) error

	// SetInputToAudioStream подключает аудиопоток.
	SetInputToAudioStream(r io.Reader, format AudioFormat) error

	// RecognizeAsync запускает фоновое распознавание.
	RecognizeAsync(mode RecognizeMode) error

	// RecognizeAsyncCancel прерывает распознавание без обработки буфера.
	RecognizeAsyncCancel()

	// RecognizeAsyncStop завершает распознавание после текущего высказывания.
	RecognizeAsyncStop()

	// Events возвращает канал событий.
	Events() <-chan Event

	// Close освобождает ресурсы движка.
	Close()
}
