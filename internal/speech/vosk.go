package speech

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	vosk "github.com/alphacep/vosk-api/go"

	"voxnote/internal/grammar"
)

// unknownWord - маркер Vosk для слов вне грамматики.
const unknownWord = "[unk]"

// voskDecoder реализует Decoder через Vosk с ограниченной грамматикой.
type voskDecoder struct {
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
	sampleRate float64
}

// voskWord слово с уверенностью (SetWords).
type voskWord struct {
	Word  string  `json:"word"`
	Conf  float64 `json:"conf"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// voskResult структура для парсинга JSON результата от Vosk.
type voskResult struct {
	Text   string     `json:"text"`
	Result []voskWord `json:"result"`
}

func init() {
	// Отключаем болтливый лог Kaldi
	vosk.SetLogLevel(-1)
}

// NewVosk создаёт движок Vosk из пути к модели.
func NewVosk(modelPath, culture string) (*Recognizer, error) {
	// Проверяем существование директории модели
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("модель Vosk не найдена: %w", err)
	}

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки модели Vosk: %w", err)
	}

	dec := &voskDecoder{
		model:      model,
		sampleRate: float64(DefaultFormat.SamplesPerSecond),
	}
	return NewRecognizer("vosk", culture, dec), nil
}

// voskGrammar формирует JSON список фраз для NewRecognizerGrm.
// Словарь моделей Vosk в нижнем регистре: слова с заглавными буквами
// молча отбрасываются, поэтому фразы приводятся к нижнему регистру.
func voskGrammar(g *grammar.Grammar) (string, error) {
	seen := make(map[string]struct{})
	var phrases []string
	for _, p := range g.Phrases() {
		p = strings.ToLower(p)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		phrases = append(phrases, p)
	}
	phrases = append(phrases, unknownWord)
	out, err := json.Marshal(phrases)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// SetGrammar пересоздаёт распознаватель Vosk под новую грамматику.
func (v *voskDecoder) SetGrammar(g *grammar.Grammar) error {
	grm, err := voskGrammar(g)
	if err != nil {
		return err
	}

	rec, err := vosk.NewRecognizerGrm(v.model, v.sampleRate, grm)
	if err != nil {
		return fmt.Errorf("ошибка создания распознавателя Vosk: %w", err)
	}
	rec.SetWords(1)

	if v.recognizer != nil {
		v.recognizer.Free()
	}
	v.recognizer = rec
	return nil
}

// Accept обрабатывает кусок аудио.
func (v *voskDecoder) Accept(pcm []byte) ([]Utterance, error) {
	if v.recognizer == nil {
		return nil, ErrNoGrammar
	}
	if v.recognizer.AcceptWaveform(pcm) == 0 {
		return nil, nil
	}
	return parseVoskResult(v.recognizer.Result())
}

// Flush возвращает финальный результат.
func (v *voskDecoder) Flush() ([]Utterance, error) {
	if v.recognizer == nil {
		return nil, nil
	}
	return parseVoskResult(v.recognizer.FinalResult())
}

// Reset сбрасывает распознаватель.
func (v *voskDecoder) Reset() {
	if v.recognizer != nil {
		v.recognizer.Reset()
	}
}

// Close освобождает ресурсы.
func (v *voskDecoder) Close() {
	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
}

// parseVoskResult разбирает JSON результат. Уверенность - среднее по словам.
func parseVoskResult(raw string) ([]Utterance, error) {
	var res voskResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("разбор результата Vosk: %w", err)
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		return nil, nil
	}

	conf := 1.0
	if len(res.Result) > 0 {
		var sum float64
		for _, w := range res.Result {
			sum += w.Conf
		}
		conf = sum / float64(len(res.Result))
	}

	return []Utterance{{Text: text, Confidence: conf}}, nil
}
