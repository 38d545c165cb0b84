package speech

import (
	"fmt"

	"voxnote/internal/models"
)

// Factory создаёт движки для установленных распознавателей.
type Factory struct {
	manager *models.Manager
}

// NewFactory создаёт фабрику распознавателей.
func NewFactory(manager *models.Manager) *Factory {
	return &Factory{manager: manager}
}

// Create создаёт движок для распознавателя из реестра.
func (f *Factory) Create(info models.RecognizerInfo, culture string) (Engine, error) {
	// Проверяем что модель установлена
	if !f.manager.IsInstalled(info) {
		return nil, fmt.Errorf("модель не установлена: %s", info.Name)
	}
	if !info.MatchesCulture(culture) {
		return nil, fmt.Errorf("%w: %s не поддерживает %s", ErrCultureMismatch, info.ID, culture)
	}

	modelPath := f.manager.GetModelPath(info)

	var (
		rec *Recognizer
		err error
	)
	switch info.Engine {
	case models.EngineVosk:
		rec, err = NewVosk(modelPath, culture)
	case models.EngineWhisper:
		rec, err = NewWhisperFromFile(modelPath, culture)
	default:
		return nil, fmt.Errorf("неизвестный движок: %s", info.Engine)
	}

	if err != nil {
		return nil, fmt.Errorf("ошибка создания распознавателя: %w", err)
	}

	return rec, nil
}
