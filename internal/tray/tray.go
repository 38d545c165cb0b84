// Package tray предоставляет системный трей с меню.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"voxnote/embedded"
	"voxnote/internal/command"
	"voxnote/internal/i18n"
	"voxnote/internal/session"
)

// Callbacks содержит обработчики событий меню.
type Callbacks struct {
	OnModeSelect          func(command.Mode)
	OnHotkeySelect        func(command.Mode)
	OnNotificationsToggle func() bool
	OnShowWindow          func()
	OnQuit                func()
}

// Tray управляет иконкой в системном трее.
// Реализует session.Observer.
type Tray struct {
	callbacks Callbacks

	mu       sync.Mutex
	ready    bool
	state    session.State
	sensor   string
	mode     command.Mode
	notifyOn bool

	status     *systray.MenuItem
	modeMenu   *systray.MenuItem
	modeItems  map[command.Mode]*systray.MenuItem
	hotkeyMenu *systray.MenuItem
	hotkeys    map[command.Mode]*systray.MenuItem
	notifyBtn  *systray.MenuItem
	showBtn    *systray.MenuItem
	quitBtn    *systray.MenuItem
}

// New создаёт новый Tray.
func New(callbacks Callbacks, mode command.Mode, notifications bool) *Tray {
	return &Tray{
		callbacks: callbacks,
		mode:      mode,
		notifyOn:  notifications,
	}
}

// Run запускает системный трей. Блокирующая функция.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.onReady()
		if onReady != nil {
			onReady()
		}
	}, t.onExit)
}

func (t *Tray) onReady() {
	t.mu.Lock()
	defer t.mu.Unlock()

	systray.SetTitle(i18n.T("app_name"))

	// Статус
	t.status = systray.AddMenuItem("", "")
	t.status.Disable()

	systray.AddSeparator()

	// Режимы
	t.modeMenu = systray.AddMenuItem(i18n.T("tray_mode"), i18n.T("tray_mode_hint"))
	t.modeItems = make(map[command.Mode]*systray.MenuItem)
	for _, m := range command.Modes() {
		item := t.modeMenu.AddSubMenuItemCheckbox(i18n.T("mode_"+m.String()), "", m == t.mode)
		t.modeItems[m] = item
		go t.handleModeClicks(m, item)
	}

	// Горячие клавиши режимов
	t.hotkeyMenu = systray.AddMenuItem(i18n.T("tray_hotkeys"), i18n.T("tray_hotkeys_hint"))
	t.hotkeys = make(map[command.Mode]*systray.MenuItem)
	for _, m := range command.Modes() {
		item := t.hotkeyMenu.AddSubMenuItem(i18n.T("mode_"+m.String()), "")
		t.hotkeys[m] = item
		go t.handleHotkeyClicks(m, item)
	}

	systray.AddSeparator()

	// Уведомления
	t.notifyBtn = systray.AddMenuItemCheckbox(i18n.T("tray_notifications"), i18n.T("tray_notifications_hint"), t.notifyOn)

	// Главное окно
	t.showBtn = systray.AddMenuItem(i18n.T("tray_show"), i18n.T("tray_show_hint"))

	systray.AddSeparator()

	// Выход
	t.quitBtn = systray.AddMenuItem(i18n.T("tray_quit"), i18n.T("tray_quit_hint"))

	t.ready = true
	t.applyState()

	// Обработка событий меню
	go t.handleMenuEvents()
}

func (t *Tray) handleModeClicks(m command.Mode, item *systray.MenuItem) {
	for range item.ClickedCh {
		if t.callbacks.OnModeSelect != nil {
			t.callbacks.OnModeSelect(m)
		}
	}
}

func (t *Tray) handleHotkeyClicks(m command.Mode, item *systray.MenuItem) {
	for range item.ClickedCh {
		if t.callbacks.OnHotkeySelect != nil {
			t.callbacks.OnHotkeySelect(m)
		}
	}
}

func (t *Tray) handleMenuEvents() {
	for {
		select {
		// Уведомления
		case <-t.notifyBtn.ClickedCh:
			if t.callbacks.OnNotificationsToggle != nil {
				enabled := t.callbacks.OnNotificationsToggle()
				if enabled {
					t.notifyBtn.Check()
				} else {
					t.notifyBtn.Uncheck()
				}
			}

		// Главное окно
		case <-t.showBtn.ClickedCh:
			if t.callbacks.OnShowWindow != nil {
				t.callbacks.OnShowWindow()
			}

		// Выход
		case <-t.quitBtn.ClickedCh:
			if t.callbacks.OnQuit != nil {
				t.callbacks.OnQuit()
			}
			systray.Quit()
			return
		}
	}
}

// StateChanged обновляет иконку и статус по состоянию сессии.
func (t *Tray) StateChanged(state session.State, sensor string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	t.sensor = sensor
	t.applyState()
}

// ModeChanged отмечает текущий режим в меню.
func (t *Tray) ModeChanged(mode command.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode = mode
	if !t.ready {
		return
	}
	for m, item := range t.modeItems {
		if m == mode {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// applyState вызывается под блокировкой.
func (t *Tray) applyState() {
	if !t.ready {
		return
	}
	icon, title := stateView(t.state, t.sensor)
	systray.SetIcon(icon)
	systray.SetTooltip(i18n.T("app_name") + " - " + title)
	t.status.SetTitle(title)
}

// stateView возвращает иконку и подпись для состояния сессии.
func stateView(state session.State, sensor string) ([]byte, string) {
	switch state {
	case session.WarmingUp:
		return embedded.IconWarmingUp, withSensor(i18n.T("tray_warming_up"), sensor)
	case session.Active:
		return embedded.IconListening, withSensor(i18n.T("tray_listening"), sensor)
	default:
		return embedded.IconNoSensor, i18n.T("tray_no_sensor")
	}
}

func withSensor(title, sensor string) string {
	if sensor == "" {
		return title
	}
	return title + " (" + sensor + ")"
}

func (t *Tray) onExit() {
	// Cleanup при выходе
}

// Quit закрывает системный трей.
func (t *Tray) Quit() {
	systray.Quit()
}
