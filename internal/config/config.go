// Package config предоставляет конфигурацию приложения с сохранением в YAML файл.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Modifier представляет модификатор клавиши.
type Modifier string

const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "super" // Win/Cmd
)

// Key представляет клавишу.
type Key string

const (
	KeySpace Key = "space"
	KeyF1    Key = "f1"
	KeyF2    Key = "f2"
	KeyF3    Key = "f3"
	KeyF4    Key = "f4"
	KeyF5    Key = "f5"
	KeyF6    Key = "f6"
	KeyF7    Key = "f7"
	KeyF8    Key = "f8"
	KeyF9    Key = "f9"
	KeyF10   Key = "f10"
	KeyF11   Key = "f11"
	KeyF12   Key = "f12"
)

// HotkeyConfig хранит настройки горячей клавиши.
type HotkeyConfig struct {
	Modifiers []Modifier `yaml:"modifiers"`
	Key       Key        `yaml:"key"`
}

// String возвращает строковое представление горячей клавиши.
func (h HotkeyConfig) String() string {
	parts := make([]string, 0, len(h.Modifiers)+1)
	for _, m := range h.Modifiers {
		parts = append(parts, string(m))
	}
	parts = append(parts, string(h.Key))
	return strings.Join(parts, "+")
}

// HotkeysConfig горячие клавиши переключения режимов.
type HotkeysConfig struct {
	PreRecording  HotkeyConfig `yaml:"pre_recording"`
	PostRecording HotkeyConfig `yaml:"post_recording"`
	Annotating    HotkeyConfig `yaml:"annotating"`
}

// For возвращает горячую клавишу режима по его имени.
func (h HotkeysConfig) For(mode string) (HotkeyConfig, bool) {
	switch mode {
	case "pre_recording":
		return h.PreRecording, true
	case "post_recording":
		return h.PostRecording, true
	case "annotating":
		return h.Annotating, true
	}
	return HotkeyConfig{}, false
}

// RecognizerConfig выбор установленного распознавателя.
type RecognizerConfig struct {
	ID      string            `yaml:"id,omitempty"`      // Предпочитаемая модель из registry
	Require map[string]string `yaml:"require,omitempty"` // Обязательные AdditionalInfo
}

// SensorConfig настройки сенсора и его микрофонного массива.
type SensorConfig struct {
	Match        string        `yaml:"match"`         // Подстрока имени устройства
	PollInterval time.Duration `yaml:"poll_interval"` // Период опроса устройств
	Channels     int           `yaml:"channels"`      // Каналы микрофонного массива
	ReadyDelay   time.Duration `yaml:"ready_delay"`   // Задержка перед стартом аудиопотока
}

// LogConfig настройки журнала.
type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path,omitempty"`
}

// configData структура для сериализации.
type configData struct {
	UILanguage          string           `yaml:"ui_language"`
	Notifications       bool             `yaml:"notifications"`
	Locale              string           `yaml:"locale"`
	Vocabulary          string           `yaml:"vocabulary"`
	ModelsDir           string           `yaml:"models_dir,omitempty"`
	Recognizer          RecognizerConfig `yaml:"recognizer"`
	Sensor              SensorConfig     `yaml:"sensor"`
	ConfidenceThreshold float64          `yaml:"confidence_threshold"`
	InitialMode         string           `yaml:"initial_mode"`
	Hotkeys             HotkeysConfig    `yaml:"hotkeys"`
	Log                 LogConfig        `yaml:"log"`
}

// Config хранит настройки приложения.
type Config struct {
	mu         sync.RWMutex
	data       configData
	configPath string
}

func defaults() configData {
	return configData{
		UILanguage:    "en",
		Notifications: true,
		Locale:        "en-US",
		Vocabulary:    "english_words.txt",
		Recognizer: RecognizerConfig{
			Require: map[string]string{"Grammar": "True"},
		},
		Sensor: SensorConfig{
			Match:        "Kinect",
			PollInterval: 2 * time.Second,
			Channels:     4,
			ReadyDelay:   4 * time.Second,
		},
		ConfidenceThreshold: 0.5,
		InitialMode:         "post_recording",
		Hotkeys: HotkeysConfig{
			PreRecording:  HotkeyConfig{Modifiers: []Modifier{ModCtrl, ModShift}, Key: KeyF1},
			PostRecording: HotkeyConfig{Modifiers: []Modifier{ModCtrl, ModShift}, Key: KeyF2},
			Annotating:    HotkeyConfig{Modifiers: []Modifier{ModCtrl, ModShift}, Key: KeyF3},
		},
		Log: LogConfig{Level: "info"},
	}
}

// New создаёт конфигурацию из config.yaml рядом с бинарником
// или с настройками по умолчанию.
func New() *Config {
	c := &Config{data: defaults()}

	// Определяем путь к файлу конфигурации рядом с бинарником
	execPath, err := os.Executable()
	if err == nil {
		// Резолвим симлинки
		execPath, err = filepath.EvalSymlinks(execPath)
		if err == nil {
			c.configPath = filepath.Join(filepath.Dir(execPath), "config.yaml")
		}
	}

	// Отсутствующий или битый файл не мешает запуску
	_ = c.load()

	return c
}

// Load читает конфигурацию из указанного файла.
// В отличие от New, ошибки чтения и разбора возвращаются.
func Load(path string) (*Config, error) {
	c := &Config{data: defaults(), configPath: path}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// load загружает конфигурацию из файла.
func (c *Config) load() error {
	if c.configPath == "" {
		return nil
	}

	raw, err := os.ReadFile(c.configPath)
	if err != nil {
		return fmt.Errorf("чтение конфигурации: %w", err)
	}

	// Подставляем переменные окружения (${HOME} и т.п.)
	expanded := os.ExpandEnv(string(raw))

	data := defaults()
	if err := yaml.Unmarshal([]byte(expanded), &data); err != nil {
		return fmt.Errorf("разбор конфигурации: %w", err)
	}
	data.setDefaults()
	c.data = data
	return nil
}

// setDefaults восстанавливает значения, обнулённые в файле.
func (d *configData) setDefaults() {
	def := defaults()
	if d.UILanguage == "" {
		d.UILanguage = def.UILanguage
	}
	if d.Locale == "" {
		d.Locale = def.Locale
	}
	if d.Vocabulary == "" {
		d.Vocabulary = def.Vocabulary
	}
	if d.Sensor.PollInterval <= 0 {
		d.Sensor.PollInterval = def.Sensor.PollInterval
	}
	if d.Sensor.Channels <= 0 {
		d.Sensor.Channels = def.Sensor.Channels
	}
	// Нулевая задержка допустима; отрицательная - нет
	if d.Sensor.ReadyDelay < 0 {
		d.Sensor.ReadyDelay = def.Sensor.ReadyDelay
	}
	if d.ConfidenceThreshold <= 0 || d.ConfidenceThreshold > 1 {
		d.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if d.InitialMode == "" {
		d.InitialMode = def.InitialMode
	}
	if d.Hotkeys.PreRecording.Key == "" {
		d.Hotkeys.PreRecording = def.Hotkeys.PreRecording
	}
	if d.Hotkeys.PostRecording.Key == "" {
		d.Hotkeys.PostRecording = def.Hotkeys.PostRecording
	}
	if d.Hotkeys.Annotating.Key == "" {
		d.Hotkeys.Annotating = def.Hotkeys.Annotating
	}
	if d.Log.Level == "" {
		d.Log.Level = def.Log.Level
	}
}

// save сохраняет конфигурацию в файл. Вызывается под блокировкой.
func (c *Config) save() {
	if c.configPath == "" {
		return
	}

	out, err := yaml.Marshal(c.data)
	if err != nil {
		return
	}

	os.WriteFile(c.configPath, out, 0644)
}

// Path возвращает путь к файлу конфигурации.
func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.configPath
}

// UILanguage возвращает язык интерфейса.
func (c *Config) UILanguage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.UILanguage
}

// ToggleNotifications переключает состояние уведомлений.
func (c *Config) ToggleNotifications() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Notifications = !c.data.Notifications
	c.save()
	return c.data.Notifications
}

// NotificationsEnabled возвращает true если уведомления включены.
func (c *Config) NotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Notifications
}

// Locale возвращает культуру распознавания (en-US).
func (c *Config) Locale() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Locale
}

// Vocabulary возвращает путь к словарю.
func (c *Config) Vocabulary() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Vocabulary
}

// ModelsDir возвращает директорию моделей (пусто - рядом с бинарником).
func (c *Config) ModelsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.ModelsDir
}

// Recognizer возвращает настройки выбора распознавателя.
func (c *Config) Recognizer() RecognizerConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r := c.data.Recognizer
	req := make(map[string]string, len(r.Require))
	for k, v := range r.Require {
		req[k] = v
	}
	r.Require = req
	return r
}

// SetRecognizerID запоминает выбранную модель.
func (c *Config) SetRecognizerID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Recognizer.ID = id
	c.save()
}

// Sensor возвращает настройки сенсора.
func (c *Config) Sensor() SensorConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Sensor
}

// ConfidenceThreshold возвращает порог уверенности для аннотаций.
func (c *Config) ConfidenceThreshold() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.ConfidenceThreshold
}

// InitialMode возвращает имя начального режима.
func (c *Config) InitialMode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.InitialMode
}

// Hotkeys возвращает горячие клавиши режимов.
func (c *Config) Hotkeys() HotkeysConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Hotkeys
}

// SetHotkey сохраняет горячую клавишу режима. Возвращает false для
// неизвестного режима.
func (c *Config) SetHotkey(mode string, hk HotkeyConfig) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch mode {
	case "pre_recording":
		c.data.Hotkeys.PreRecording = hk
	case "post_recording":
		c.data.Hotkeys.PostRecording = hk
	case "annotating":
		c.data.Hotkeys.Annotating = hk
	default:
		return false
	}
	c.save()
	return true
}

// Log возвращает настройки журнала.
func (c *Config) Log() LogConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Log
}

// AvailableModifiers возвращает список доступных модификаторов.
func AvailableModifiers() []Modifier {
	return []Modifier{ModCtrl, ModShift, ModAlt, ModSuper}
}

// AvailableKeys возвращает список доступных клавиш.
func AvailableKeys() []Key {
	return []Key{
		KeySpace,
		KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12,
	}
}
