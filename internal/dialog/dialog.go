// Package dialog предоставляет GUI диалоги приложения.
package dialog

import (
	"errors"
	"strings"

	"github.com/ncruces/zenity"

	"voxnote/internal/config"
)

// ErrNoModifier возвращается, если не выбран ни один модификатор.
var ErrNoModifier = errors.New("необходимо выбрать хотя бы один модификатор")

var modifierLabels = map[config.Modifier]string{
	config.ModCtrl:  "Ctrl",
	config.ModShift: "Shift",
	config.ModAlt:   "Alt",
	config.ModSuper: "Super (Win/Cmd)",
}

// keyLabel возвращает подпись клавиши для списка.
func keyLabel(k config.Key) string {
	if k == config.KeySpace {
		return "Space"
	}
	return strings.ToUpper(string(k))
}

// SelectHotkey открывает диалог выбора горячей клавиши режима.
// Возвращает выбранную конфигурацию или ошибку если пользователь отменил.
func SelectHotkey(title string, current config.HotkeyConfig) (config.HotkeyConfig, error) {
	// Шаг 1: Выбор модификаторов
	mods := config.AvailableModifiers()
	modOptions := make([]string, len(mods))
	for i, m := range mods {
		modOptions[i] = modifierLabels[m]
	}

	currentMods := make([]string, 0, len(current.Modifiers))
	for _, m := range current.Modifiers {
		if label, ok := modifierLabels[m]; ok {
			currentMods = append(currentMods, label)
		}
	}

	selectedMods, err := zenity.ListMultiple(
		"Выберите модификаторы:",
		modOptions,
		zenity.Title(title+" - Модификаторы"),
		zenity.DefaultItems(currentMods...),
	)
	if err != nil {
		return current, err // Пользователь отменил
	}

	newMods := parseModifiers(selectedMods)
	if len(newMods) == 0 {
		return current, ErrNoModifier
	}

	// Шаг 2: Выбор клавиши
	keys := config.AvailableKeys()
	keyOptions := make([]string, len(keys))
	for i, k := range keys {
		keyOptions[i] = keyLabel(k)
	}

	selectedKey, err := zenity.List(
		"Выберите клавишу:",
		keyOptions,
		zenity.Title(title+" - Клавиша"),
		zenity.DefaultItems(keyLabel(current.Key)),
	)
	if err != nil {
		return current, err
	}

	newKey, ok := parseKey(selectedKey)
	if !ok {
		return current, zenity.ErrCanceled
	}

	return config.HotkeyConfig{
		Modifiers: newMods,
		Key:       newKey,
	}, nil
}

// parseModifiers переводит подписи обратно в модификаторы.
func parseModifiers(labels []string) []config.Modifier {
	out := make([]config.Modifier, 0, len(labels))
	for _, m := range config.AvailableModifiers() {
		for _, l := range labels {
			if l == modifierLabels[m] {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func parseKey(label string) (config.Key, bool) {
	for _, k := range config.AvailableKeys() {
		if keyLabel(k) == label {
			return k, true
		}
	}
	return "", false
}

// ShowError показывает сообщение об ошибке. Блокирует до закрытия.
func ShowError(title, message string) {
	zenity.Error(message, zenity.Title(title), zenity.ErrorIcon)
}
