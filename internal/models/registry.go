// Package models описывает установленные распознаватели речи.
package models

import "strings"

// Engine тип движка распознавания.
type Engine string

const (
	EngineVosk    Engine = "vosk"
	EngineWhisper Engine = "whisper"
)

// RecognizerInfo информация о распознавателе.
type RecognizerInfo struct {
	ID             string            // Уникальный идентификатор: "vosk-en-us-small"
	Engine         Engine            // Движок: vosk или whisper
	Name           string            // Отображаемое имя
	Culture        string            // Культура распознавания: "en-US"
	AdditionalInfo map[string]string // Возможности: Grammar=True
	Filename       string            // Имя файла/директории модели
	IsDir          bool              // Модель - директория (Vosk)
}

// Supports проверяет, что распознаватель обладает всеми возможностями из require.
// Значения сравниваются без учёта регистра.
func (r RecognizerInfo) Supports(require map[string]string) bool {
	for k, want := range require {
		got, ok := r.AdditionalInfo[k]
		if !ok || !strings.EqualFold(got, want) {
			return false
		}
	}
	return true
}

// MatchesCulture проверяет культуру без учёта регистра.
func (r RecognizerInfo) MatchesCulture(culture string) bool {
	return strings.EqualFold(r.Culture, culture)
}

// Registry все известные распознаватели.
// Vosk работает с ограниченной грамматикой, whisper распознаёт свободную речь.
var Registry = []RecognizerInfo{
	{
		ID:             "vosk-en-us-small",
		Engine:         EngineVosk,
		Name:           "Vosk English Small",
		Culture:        "en-US",
		AdditionalInfo: map[string]string{"Grammar": "True", "Kinect": "True"},
		Filename:       "vosk-model-small-en-us-0.15",
		IsDir:          true,
	},
	{
		ID:             "vosk-en-us-lgraph",
		Engine:         EngineVosk,
		Name:           "Vosk English LGraph",
		Culture:        "en-US",
		AdditionalInfo: map[string]string{"Grammar": "True"},
		Filename:       "vosk-model-en-us-0.22-lgraph",
		IsDir:          true,
	},
	{
		ID:             "vosk-ru-small",
		Engine:         EngineVosk,
		Name:           "Vosk Russian Small",
		Culture:        "ru-RU",
		AdditionalInfo: map[string]string{"Grammar": "True"},
		Filename:       "vosk-model-small-ru-0.22",
		IsDir:          true,
	},
	{
		ID:             "whisper-base-en",
		Engine:         EngineWhisper,
		Name:           "Whisper Base (en)",
		Culture:        "en-US",
		AdditionalInfo: map[string]string{"Grammar": "False"},
		Filename:       "ggml-base.en.bin",
	},
	{
		ID:             "whisper-small-q5",
		Engine:         EngineWhisper,
		Name:           "Whisper Small Q5",
		Culture:        "en-US",
		AdditionalInfo: map[string]string{"Grammar": "False"},
		Filename:       "ggml-small-q5_1.bin",
	},
}

// EngineName возвращает отображаемое имя движка.
func EngineName(e Engine) string {
	switch e {
	case EngineWhisper:
		return "Whisper"
	case EngineVosk:
		return "Vosk"
	default:
		return string(e)
	}
}
