package speech

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"voxnote/internal/grammar"
)

const (
	// Порог RMS для int16 PCM, ниже - тишина
	rmsSilenceThreshold = 500.0
	// Длительность тишины, завершающая высказывание
	silenceMs = 500
	// Принудительная отправка длинного высказывания
	maxUtteranceMs = 10000
)

// segmenter режет поток на высказывания по тишине.
type segmenter struct {
	bytesPerMs int
	buffer     []byte
	hadSpeech  bool
	silence    int
}

func newSegmenter(format AudioFormat) *segmenter {
	bpm := format.AverageBytesPerSecond / 1000
	if bpm <= 0 {
		bpm = 32
	}
	return &segmenter{bytesPerMs: bpm}
}

// push добавляет кусок и возвращает законченное высказывание, если оно есть.
func (s *segmenter) push(pcm []byte) []byte {
	ms := len(pcm) / s.bytesPerMs

	if computeRMS(pcm) < rmsSilenceThreshold {
		if !s.hadSpeech {
			return nil
		}
		s.silence += ms
		s.buffer = append(s.buffer, pcm...)
		if s.silence >= silenceMs {
			return s.take()
		}
		return nil
	}

	s.hadSpeech = true
	s.silence = 0
	s.buffer = append(s.buffer, pcm...)
	if len(s.buffer) >= maxUtteranceMs*s.bytesPerMs {
		return s.take()
	}
	return nil
}

// take забирает буфер, если в нём была речь.
func (s *segmenter) take() []byte {
	out := s.buffer
	had := s.hadSpeech
	s.reset()
	if !had || len(out) == 0 {
		return nil
	}
	return out
}

func (s *segmenter) reset() {
	s.buffer = nil
	s.hadSpeech = false
	s.silence = 0
}

// computeRMS считает RMS для PCM16 LE.
func computeRMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// pcmToFloat32 конвертирует PCM16 LE моно в float32 [-1, 1].
func pcmToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768.0
	}
	return out
}

// normalizeTranscript приводит текст whisper к словам грамматики:
// нижний регистр, без пунктуации.
func normalizeTranscript(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// cultureLanguage возвращает код языка whisper: "en-US" -> "en".
func cultureLanguage(culture string) string {
	lang, _, _ := strings.Cut(culture, "-")
	return strings.ToLower(lang)
}

// whisperDecoder реализует Decoder через whisper.cpp.
// Грамматика применяется после распознавания.
type whisperDecoder struct {
	model    whisper.Model
	language string
	prompt   string
	seg      *segmenter
}

// NewWhisperFromFile создаёт движок whisper из файла модели.
func NewWhisperFromFile(modelPath, culture string) (*Recognizer, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки модели whisper: %w", err)
	}

	dec := &whisperDecoder{
		model:    model,
		language: cultureLanguage(culture),
		seg:      newSegmenter(DefaultFormat),
	}
	return NewRecognizer("whisper", culture, dec), nil
}

// SetGrammar подсказывает модели словарь грамматики.
func (w *whisperDecoder) SetGrammar(g *grammar.Grammar) error {
	w.prompt = strings.Join(g.Words(), ", ")
	return nil
}

// Accept накапливает аудио до паузы.
func (w *whisperDecoder) Accept(pcm []byte) ([]Utterance, error) {
	utt := w.seg.push(pcm)
	if utt == nil {
		return nil, nil
	}
	return w.infer(utt)
}

// Flush распознаёт накопленное аудио.
func (w *whisperDecoder) Flush() ([]Utterance, error) {
	utt := w.seg.take()
	if utt == nil {
		return nil, nil
	}
	return w.infer(utt)
}

// Reset сбрасывает накопленное аудио.
func (w *whisperDecoder) Reset() {
	w.seg.reset()
}

// Close освобождает ресурсы.
func (w *whisperDecoder) Close() {
	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
}

func (w *whisperDecoder) infer(pcm []byte) ([]Utterance, error) {
	ctx, err := w.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}

	// Отключаем перевод - только транскрипция
	ctx.SetTranslate(false)
	if w.language != "" {
		if err := ctx.SetLanguage(w.language); err != nil {
			return nil, fmt.Errorf("whisper: set language %q: %w", w.language, err)
		}
	}
	if w.prompt != "" {
		ctx.SetInitialPrompt(w.prompt)
	}

	if err := ctx.Process(pcmToFloat32(pcm), nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	var (
		parts []string
		sumP  float64
		count int
	)
	for {
		segment, err := ctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: read segment: %w", err)
		}
		parts = append(parts, segment.Text)
		for _, tok := range segment.Tokens {
			if isSpecialToken(tok.Text) {
				continue
			}
			sumP += float64(tok.P)
			count++
		}
	}

	text := normalizeTranscript(strings.Join(parts, " "))
	if text == "" {
		return nil, nil
	}

	conf := 0.0
	if count > 0 {
		conf = sumP / float64(count)
	}
	return []Utterance{{Text: text, Confidence: conf}}, nil
}

// isSpecialToken отсеивает служебные токены whisper ([_BEG_], <|endoftext|>).
func isSpecialToken(text string) bool {
	return strings.HasPrefix(text, "[_") || strings.HasPrefix(text, "<|")
}
