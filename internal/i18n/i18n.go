// Package i18n provides internationalization support.
package i18n

import "sync"

// Language represents a UI language.
type Language string

const (
	RU Language = "ru"
	EN Language = "en"
)

var (
	mu      sync.RWMutex
	current = EN // Default language
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	RU: {
		// App
		"app_name":    "Voxnote",
		"app_tooltip": "Voxnote - голосовые команды и заметки",

		// Status line
		"status_waiting_sensor": "Ожидание сенсора...",
		"status_warming_up":     "Сенсор %s подключён, прогрев...",
		"status_listening":      "Слушаю",
		"status_conflict":       "Сенсор %s занят другим приложением",
		"status_error":          "Ошибка распознавания: %v",
		"status_recognized":     "Распознано:",
		"status_rejected":       "Отклонено:",

		// Modes
		"mode_idle":           "Выкл",
		"mode_pre_recording":  "До записи",
		"mode_post_recording": "После записи",
		"mode_annotating":     "Заметка",

		// Main window
		"transcript_empty": "Здесь появится распознанный текст",

		// Tray menu
		"tray_no_sensor":          "Сенсор не подключён",
		"tray_warming_up":         "Прогрев сенсора...",
		"tray_listening":          "Слушаю",
		"tray_mode":               "Режим",
		"tray_mode_hint":          "Режим голосовых команд",
		"tray_notifications":      "Уведомления",
		"tray_notifications_hint": "Показывать уведомления",
		"tray_hotkeys":            "Горячие клавиши",
		"tray_hotkeys_hint":       "Назначить горячую клавишу режиму",
		"tray_show":               "Показать окно",
		"tray_show_hint":          "Открыть главное окно",
		"tray_quit":               "Выход",
		"tray_quit_hint":          "Закрыть приложение",

		// Notifications
		"notify_ready":           "Voxnote слушает",
		"notify_sensor_detached": "Сенсор отключён",
		"notify_conflict":        "Сенсор %s занят",
		"notify_conflict_hint":   "Закройте приложение, использующее сенсор, и переподключите его",

		// Startup window
		"startup_status":             "Загрузка...",
		"startup_loading_recognizer": "Загрузка распознавателя...",
		"startup_warming_up":         "Прогрев сенсора...",

		// Errors
		"error_title":         "Voxnote",
		"error_no_recognizer": "Не найден установленный распознаватель для %s.\n\nПоложите модель Vosk в %s.",
		"error_vocabulary":    "Не удалось прочитать словарь: %v",
		"error_engine":        "Не удалось создать движок распознавания: %v",
		"error_hotkey":        "Не удалось зарегистрировать горячую клавишу %s: %v",
	},

	EN: {
		// App
		"app_name":    "Voxnote",
		"app_tooltip": "Voxnote - voice commands and notes",

		// Status line
		"status_waiting_sensor": "Waiting for sensor...",
		"status_warming_up":     "Sensor %s attached, warming up...",
		"status_listening":      "Listening",
		"status_conflict":       "Sensor %s is used by another application",
		"status_error":          "Recognition error: %v",
		"status_recognized":     "Recognized:",
		"status_rejected":       "Rejected:",

		// Modes
		"mode_idle":           "Off",
		"mode_pre_recording":  "Pre-recording",
		"mode_post_recording": "Post-recording",
		"mode_annotating":     "Annotating",

		// Main window
		"transcript_empty": "Recognized text appears here",

		// Tray menu
		"tray_no_sensor":          "No sensor",
		"tray_warming_up":         "Warming up sensor...",
		"tray_listening":          "Listening",
		"tray_mode":               "Mode",
		"tray_mode_hint":          "Voice command mode",
		"tray_notifications":      "Notifications",
		"tray_notifications_hint": "Show notifications",
		"tray_hotkeys":            "Hotkeys",
		"tray_hotkeys_hint":       "Assign a hotkey to a mode",
		"tray_show":               "Show window",
		"tray_show_hint":          "Open the main window",
		"tray_quit":               "Quit",
		"tray_quit_hint":          "Close the application",

		// Notifications
		"notify_ready":           "Voxnote is listening",
		"notify_sensor_detached": "Sensor detached",
		"notify_conflict":        "Sensor %s is busy",
		"notify_conflict_hint":   "Close the application using the sensor and reattach it",

		// Startup window
		"startup_status":             "Loading...",
		"startup_loading_recognizer": "Loading recognizer...",
		"startup_warming_up":         "Warming up sensor...",

		// Errors
		"error_title":         "Voxnote",
		"error_no_recognizer": "No installed recognizer found for %s.\n\nPut a Vosk model into %s.",
		"error_vocabulary":    "Cannot read vocabulary: %v",
		"error_engine":        "Cannot create recognition engine: %v",
		"error_hotkey":        "Cannot register hotkey %s: %v",
	},
}

// T returns the translation for the given key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if strings, ok := translations[current]; ok {
		if s, ok := strings[key]; ok {
			return s
		}
	}
	// Fallback to key itself
	return key
}

// SetLanguage sets the current UI language.
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	current = lang
}

// GetLanguage returns the current UI language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// ParseLanguage returns the language for a config value, EN for unknown values.
func ParseLanguage(s string) Language {
	if Language(s) == RU {
		return RU
	}
	return EN
}

// AvailableLanguages returns list of supported languages.
func AvailableLanguages() []Language {
	return []Language{RU, EN}
}

// LanguageName returns display name for a language.
func LanguageName(lang Language) string {
	switch lang {
	case RU:
		return "Русский"
	case EN:
		return "English"
	default:
		return string(lang)
	}
}
