// Package app содержит основную логику приложения: связывает конфигурацию,
// распознаватель, сессию, окна, трей и горячие клавиши.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"voxnote/internal/audio"
	"voxnote/internal/command"
	"voxnote/internal/config"
	"voxnote/internal/dialog"
	"voxnote/internal/grammar"
	"voxnote/internal/hotkey"
	"voxnote/internal/i18n"
	"voxnote/internal/logging"
	"voxnote/internal/models"
	"voxnote/internal/notify"
	"voxnote/internal/session"
	"voxnote/internal/speech"
	"voxnote/internal/startup"
	"voxnote/internal/tray"
	"voxnote/internal/vocabulary"
	"voxnote/internal/window"
)

// shutdownTimeout ограничивает ожидание остановки сессии при выходе.
const shutdownTimeout = 3 * time.Second

// exit заменяется в тестах.
var exit = os.Exit

// Options - параметры запуска из командной строки.
type Options struct {
	ConfigPath string
	LogPath    string
}

// Error - ошибка запуска с сообщением для пользователя.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func startupError(key string, err error, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(i18n.T(key), args...), Err: err}
}

// App представляет главное приложение.
type App struct {
	config     *config.Config
	factory    *speech.Factory
	recognizer models.RecognizerInfo
	grammar    *grammar.Grammar

	session    *session.Session
	window     *window.Window
	startupWin *startup.Window
	notifier   *notify.Notifier
	tray       *tray.Tray
	lister     *audio.MalgoLister
	watcher    *audio.Watcher
	hotkeys    map[command.Mode]*hotkey.Handler

	mu     sync.Mutex
	spare  speech.Engine // движок, загруженный при старте, для первого подключения
	cancel context.CancelFunc

	closeOnce sync.Once
}

// New создаёт приложение. Ошибки имеют тип *Error и фатальны для запуска.
func New(opts Options) (*App, error) {
	cfg := config.New()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return nil, &Error{Message: err.Error(), Err: err}
		}
	}

	// Инициализируем язык интерфейса из конфига
	i18n.SetLanguage(i18n.ParseLanguage(cfg.UILanguage()))

	logPath := opts.LogPath
	if logPath == "" {
		logPath = cfg.Log().Path
	}
	if dir, err := logging.ResolveDir(logPath); err != nil {
		logging.Warnf("Каталог журнала недоступен: %v", err)
	} else if err := logging.Init(dir, cfg.Log().Level); err != nil {
		logging.Warnf("Журнал только в stderr: %v", err)
	}

	a, err := build(cfg)
	if err != nil {
		return nil, err
	}

	lister, err := audio.NewMalgoLister()
	if err != nil {
		return nil, &Error{Message: err.Error(), Err: err}
	}
	a.lister = lister

	sensorCfg := cfg.Sensor()
	a.watcher = audio.NewWatcher(lister, sensorCfg.Match, sensorCfg.PollInterval, func(name string) audio.Sensor {
		return audio.NewDevice(name, sensorCfg.Channels)
	})
	a.watcher.OnChange(a.onSensorChange)

	return a, nil
}

// build загружает словарь, выбирает распознаватель и создаёт сессию с UI.
func build(cfg *config.Config) (*App, error) {
	locale := cfg.Locale()

	vocab, err := vocabulary.Load(cfg.Vocabulary())
	if err != nil {
		return nil, startupError("error_vocabulary", err, err)
	}
	logging.Infof("Словарь: %d слов из %s", len(vocab), cfg.Vocabulary())

	manager, err := models.NewManager(cfg.ModelsDir())
	if err != nil {
		return nil, &Error{Message: err.Error(), Err: err}
	}

	rc := cfg.Recognizer()
	info, err := manager.Find(locale, rc.Require, rc.ID)
	if err != nil {
		return nil, startupError("error_no_recognizer", err, locale, manager.ModelsDir())
	}
	logging.Infof("Распознаватель: %s (%s, %s)", info.Name, info.ID, models.EngineName(info.Engine))
	if rc.ID != info.ID {
		cfg.SetRecognizerID(info.ID)
	}

	mode, ok := command.ParseMode(cfg.InitialMode())
	if !ok {
		logging.Warnf("Неизвестный режим %q, используется %s", cfg.InitialMode(), command.DefaultMode)
		mode = command.DefaultMode
	}

	a := &App{
		config:     cfg,
		factory:    speech.NewFactory(manager),
		recognizer: info,
		grammar:    grammar.Build(vocab, locale),
		notifier:   notify.New(cfg.NotificationsEnabled()),
		startupWin: startup.New(cfg.Sensor().ReadyDelay),
		window:     window.New(window.DefaultConfig()),
		hotkeys:    make(map[command.Mode]*hotkey.Handler),
	}

	a.session = session.New(session.Config{
		ReadyDelay:  cfg.Sensor().ReadyDelay,
		Threshold:   cfg.ConfidenceThreshold(),
		InitialMode: mode,
	}, a.newEngine, a.window)
	a.session.OnEngineError(a.engineError)
	a.session.OnConflict(a.conflict)

	a.window.OnModeSelect(a.session.SetMode)
	a.window.OnClose(func() { logging.Debugf("Главное окно закрыто") })
	a.window.ModeChanged(mode)

	a.tray = tray.New(tray.Callbacks{
		OnModeSelect:   a.session.SetMode,
		OnHotkeySelect: a.selectHotkey,
		OnNotificationsToggle: func() bool {
			enabled := a.config.ToggleNotifications()
			a.notifier.SetEnabled(enabled)
			return enabled
		},
		OnShowWindow: a.window.Show,
		OnQuit:       a.Close,
	}, mode, cfg.NotificationsEnabled())

	a.session.AddObserver(a.window)
	a.session.AddObserver(a.tray)
	a.session.AddObserver(a.startupWin)
	a.session.AddObserver(a)

	for _, m := range command.Modes() {
		a.hotkeys[m] = hotkey.New(func() { a.session.SetMode(m) })
	}

	return a, nil
}

// Run запускает приложение. Блокирует до выхода из трея.
func (a *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	go a.session.Run(ctx)

	a.tray.Run(func() {
		// Регистрируем горячие клавиши после инициализации трея
		a.registerHotkeys()
		a.window.Show()

		go func() {
			if err := a.preload(); err != nil {
				a.fatal(err)
				return
			}
			a.watcher.Run(ctx)
		}()
	})
}

// preload создаёт движок заранее, чтобы ошибка модели была видна при
// запуске, а первое подключение сенсора не ждало загрузки.
func (a *App) preload() error {
	a.startupWin.SetStatus(i18n.T("startup_loading_recognizer"), a.recognizer.Name)
	a.startupWin.Show()
	defer a.startupWin.Hide()

	engine, err := a.createEngine()
	if err != nil {
		return fmt.Errorf("create recognition engine: %w", err)
	}
	a.mu.Lock()
	a.spare = engine
	a.mu.Unlock()
	return nil
}

// newEngine реализует session.EngineFactory.
func (a *App) newEngine() (speech.Engine, error) {
	a.mu.Lock()
	engine := a.spare
	a.spare = nil
	a.mu.Unlock()
	if engine != nil {
		return engine, nil
	}
	return a.createEngine()
}

func (a *App) createEngine() (speech.Engine, error) {
	engine, err := a.factory.Create(a.recognizer, a.grammar.Culture())
	if err != nil {
		return nil, err
	}
	if err := engine.LoadGrammar(a.grammar); err != nil {
		engine.Close()
		return nil, err
	}
	return engine, nil
}

func (a *App) registerHotkeys() {
	hks := a.config.Hotkeys()
	for _, m := range command.Modes() {
		hk, ok := hks.For(m.String())
		if !ok {
			continue
		}
		if err := a.hotkeys[m].Register(hk); err != nil {
			logging.Errorf("Ошибка регистрации горячей клавиши: %v", err)
			a.notifier.Error(fmt.Sprintf(i18n.T("error_hotkey"), hk.String(), err))
		}
	}
}

// selectHotkey переназначает горячую клавишу режима через диалог.
func (a *App) selectHotkey(m command.Mode) {
	current, _ := a.config.Hotkeys().For(m.String())
	hk, err := dialog.SelectHotkey(i18n.T("mode_"+m.String()), current)
	if err != nil {
		logging.Debugf("Выбор горячей клавиши отменён: %v", err)
		return
	}
	if err := a.hotkeys[m].Register(hk); err != nil {
		logging.Errorf("Ошибка регистрации горячей клавиши: %v", err)
		a.notifier.Error(fmt.Sprintf(i18n.T("error_hotkey"), hk.String(), err))
		// Возвращаем прежнюю
		_ = a.hotkeys[m].Register(current)
		return
	}
	a.config.SetHotkey(m.String(), hk)
}

func (a *App) onSensorChange(c audio.Change) {
	a.session.DeviceChanged(c.Old, c.New)
	if c.Old != nil && c.New == nil {
		a.notifier.SensorDetached(c.Old.Name())
	}
}

// StateChanged реализует session.Observer: подключает индикатор уровня
// к активному сенсору.
func (a *App) StateChanged(state session.State, sensor string) {
	if state != session.Active {
		a.window.SetMeter(nil)
		return
	}
	a.window.SetMeter(meterOf(a.watcher.Current(), sensor))
	a.notifier.Ready(sensor)
}

// ModeChanged реализует session.Observer.
func (a *App) ModeChanged(mode command.Mode) {
	logging.Infof("Режим: %s", mode)
}

// meterOf возвращает индикатор уровня сенсора с указанным именем.
func meterOf(s audio.Sensor, name string) audio.Meter {
	if s == nil || s.Name() != name {
		return nil
	}
	if m, ok := s.(interface{ Meter() audio.Meter }); ok {
		return m.Meter()
	}
	return nil
}

// fatal показывает ошибку и завершает процесс с кодом 1.
func (a *App) fatal(err error) {
	logging.Errorf("Фатальная ошибка: %v", err)
	a.startupWin.Hide()
	dialog.ShowError(i18n.T("error_title"), fmt.Sprintf(i18n.T("error_engine"), err))
	logging.Close()
	exit(1)
}

// engineError сообщает, что движок не создался при подключении сенсора.
// Попытка подключения прерывается; следующее подключение повторит её.
func (a *App) engineError(err error) {
	logging.Errorf("Ошибка движка: %v", err)
	a.notifier.Error(fmt.Sprintf(i18n.T("error_engine"), err))
}

// conflict сообщает, что сенсор занят. Приложение продолжает работу.
func (a *App) conflict(sensor string, err error) {
	if errors.Is(err, audio.ErrDeviceNotFound) {
		logging.Warnf("Сенсор %s пропал до запуска: %v", sensor, err)
		return
	}
	logging.Warnf("Сенсор %s занят: %v", sensor, err)
	a.notifier.Conflict(sensor, err)
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		for _, h := range a.hotkeys {
			_ = h.Unregister()
		}

		a.mu.Lock()
		cancel := a.cancel
		spare := a.spare
		a.spare = nil
		a.mu.Unlock()

		if cancel != nil {
			cancel()
			select {
			case <-a.session.Done():
			case <-time.After(shutdownTimeout):
				logging.Warnf("Сессия не остановилась за %v", shutdownTimeout)
			}
		}
		if spare != nil {
			spare.Close()
		}
		if a.lister != nil {
			a.lister.Close()
		}
		a.startupWin.Hide()
		a.window.Hide()

		// Даём отправиться последним уведомлениям
		sent := make(chan struct{})
		go func() {
			a.notifier.Wait()
			close(sent)
		}()
		select {
		case <-sent:
		case <-time.After(time.Second):
		}
	})
}
