package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoRecognizer подходящий распознаватель не установлен.
var ErrNoRecognizer = errors.New("no installed recognizer matches")

// Manager ищет установленные модели.
type Manager struct {
	modelsDir string
	registry  []RecognizerInfo
}

// NewManager создаёт менеджер моделей.
// Пустой dir - директория models/ рядом с бинарником.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		execPath, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("не удалось определить путь к бинарнику: %w", err)
		}

		execPath, err = filepath.EvalSymlinks(execPath)
		if err != nil {
			return nil, fmt.Errorf("не удалось разрешить симлинки: %w", err)
		}

		dir = filepath.Join(filepath.Dir(execPath), "models")
	}

	return NewManagerWithRegistry(dir, Registry), nil
}

// NewManagerWithRegistry создаёт менеджер с собственным списком распознавателей.
func NewManagerWithRegistry(dir string, registry []RecognizerInfo) *Manager {
	return &Manager{modelsDir: dir, registry: registry}
}

// ModelsDir возвращает путь к директории моделей.
func (m *Manager) ModelsDir() string {
	return m.modelsDir
}

// GetModelPath возвращает полный путь к модели.
func (m *Manager) GetModelPath(info RecognizerInfo) string {
	switch info.Engine {
	case EngineWhisper:
		return filepath.Join(m.modelsDir, "whisper", info.Filename)
	case EngineVosk:
		return filepath.Join(m.modelsDir, "vosk", info.Filename)
	default:
		return filepath.Join(m.modelsDir, info.Filename)
	}
}

// IsInstalled проверяет, установлена ли модель.
func (m *Manager) IsInstalled(info RecognizerInfo) bool {
	stat, err := os.Stat(m.GetModelPath(info))
	if err != nil {
		return false
	}

	// Для Vosk проверяем что это директория
	if info.IsDir {
		return stat.IsDir()
	}

	// Для Whisper проверяем что файл не пустой
	return !stat.IsDir() && stat.Size() > 0
}

// Installed возвращает список установленных распознавателей в порядке реестра.
func (m *Manager) Installed() []RecognizerInfo {
	var installed []RecognizerInfo
	for _, r := range m.registry {
		if m.IsInstalled(r) {
			installed = append(installed, r)
		}
	}
	return installed
}

// Find выбирает установленный распознаватель для культуры и требуемых возможностей.
// preferredID имеет приоритет, если подходит; иначе берётся первый подходящий.
func (m *Manager) Find(culture string, require map[string]string, preferredID string) (RecognizerInfo, error) {
	var candidates []RecognizerInfo
	for _, r := range m.Installed() {
		if r.MatchesCulture(culture) && r.Supports(require) {
			candidates = append(candidates, r)
		}
	}

	if len(candidates) == 0 {
		return RecognizerInfo{}, fmt.Errorf("%w: culture %s in %s", ErrNoRecognizer, culture, m.modelsDir)
	}

	if preferredID != "" {
		for _, r := range candidates {
			if r.ID == preferredID {
				return r, nil
			}
		}
	}

	return candidates[0], nil
}
