// Package hotkey предоставляет глобальные горячие клавиши.
package hotkey

import (
	"fmt"
	"sync"
	"time"

	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"

	"voxnote/internal/config"
	"voxnote/internal/logging"
)

// debounceInterval защищает от key repeat.
const debounceInterval = 300 * time.Millisecond

// Handler обрабатывает события одной горячей клавиши.
type Handler struct {
	mu      sync.Mutex
	hk      *hotkey.Hotkey
	onPress func()
	current config.HotkeyConfig
	stopCh  chan struct{}
}

// New создаёт обработчик горячей клавиши.
func New(onPress func()) *Handler {
	return &Handler{onPress: onPress}
}

// Register регистрирует горячую клавишу, снимая предыдущую.
func (h *Handler) Register(cfg config.HotkeyConfig) error {
	logging.Infof("Регистрация горячей клавиши: %s", cfg.String())

	mods, key, err := convert(cfg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.stopCh != nil {
		close(h.stopCh)
		h.stopCh = nil
	}
	oldHk := h.hk
	h.hk = nil
	h.mu.Unlock()

	// Отменяем предыдущую регистрацию в горутине с таймаутом
	if oldHk != nil {
		done := make(chan struct{})
		go func() {
			oldHk.Unregister()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			logging.Warnf("Таймаут отмены горячей клавиши")
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("регистрация %s: %w", cfg.String(), err)
	}

	h.hk = hk
	h.current = cfg
	h.stopCh = make(chan struct{})
	go h.listen(hk, h.stopCh)
	return nil
}

// convert переводит настройки в модификаторы и клавишу библиотеки.
func convert(cfg config.HotkeyConfig) ([]hotkey.Modifier, hotkey.Key, error) {
	if len(cfg.Modifiers) == 0 {
		return nil, 0, fmt.Errorf("горячая клавиша %s без модификаторов", cfg.String())
	}
	mods := make([]hotkey.Modifier, 0, len(cfg.Modifiers))
	for _, m := range cfg.Modifiers {
		mod, ok := modifierMap[m]
		if !ok {
			return nil, 0, fmt.Errorf("неизвестный модификатор %q", m)
		}
		mods = append(mods, mod)
	}
	key, ok := keyMap[cfg.Key]
	if !ok {
		return nil, 0, fmt.Errorf("неизвестная клавиша %q", cfg.Key)
	}
	return mods, key, nil
}

func (h *Handler) listen(hk *hotkey.Hotkey, stopCh chan struct{}) {
	d := debouncer{interval: debounceInterval}
	for {
		select {
		case <-stopCh:
			return
		case _, ok := <-hk.Keydown():
			if !ok {
				return
			}
			if d.allow(time.Now()) && h.onPress != nil {
				h.onPress()
			}
		case _, ok := <-hk.Keyup():
			if !ok {
				return
			}
		}
	}
}

// debouncer пропускает не более одного нажатия за interval.
type debouncer struct {
	interval time.Duration
	last     time.Time
}

func (d *debouncer) allow(now time.Time) bool {
	if !d.last.IsZero() && now.Sub(d.last) < d.interval {
		return false
	}
	d.last = now
	return true
}

// Unregister отменяет регистрацию горячей клавиши.
func (h *Handler) Unregister() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopCh != nil {
		close(h.stopCh)
		h.stopCh = nil
	}

	if h.hk != nil {
		err := h.hk.Unregister()
		h.hk = nil
		return err
	}
	return nil
}

// Current возвращает текущую зарегистрированную горячую клавишу.
func (h *Handler) Current() config.HotkeyConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// RunOnMainThread запускает функцию в главном потоке (требование для macOS).
func RunOnMainThread(fn func()) {
	mainthread.Init(fn)
}

// modifierMap определён в platform-specific файлах:
// - modifiers_linux.go
// - modifiers_darwin.go
// - modifiers_windows.go

// keyMap маппинг config.Key -> hotkey.Key
var keyMap = map[config.Key]hotkey.Key{
	config.KeySpace: hotkey.KeySpace,
	config.KeyF1:    hotkey.KeyF1,
	config.KeyF2:    hotkey.KeyF2,
	config.KeyF3:    hotkey.KeyF3,
	config.KeyF4:    hotkey.KeyF4,
	config.KeyF5:    hotkey.KeyF5,
	config.KeyF6:    hotkey.KeyF6,
	config.KeyF7:    hotkey.KeyF7,
	config.KeyF8:    hotkey.KeyF8,
	config.KeyF9:    hotkey.KeyF9,
	config.KeyF10:   hotkey.KeyF10,
	config.KeyF11:   hotkey.KeyF11,
	config.KeyF12:   hotkey.KeyF12,
}
