// Voxnote - голосовые команды и заметки с микрофонной решёткой сенсора.
//
// Работает в системном трее, ждёт подключения сенсора, распознаёт команды
// "start", "keep", "cancel", "redo", "play" и слова из словаря.
package main

import (
	"errors"
	"flag"
	"os"

	"voxnote/internal/app"
	"voxnote/internal/dialog"
	"voxnote/internal/hotkey"
	"voxnote/internal/i18n"
	"voxnote/internal/logging"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

var (
	configPath = flag.String("config", "", "путь к config.yaml (по умолчанию рядом с бинарником)")
	logPath    = flag.String("logpath", "", "каталог журнала (иначе VOXNOTE_LOG_PATH)")
)

func main() {
	flag.Parse()

	// Запускаем в главном потоке (требование для macOS и некоторых GUI)
	hotkey.RunOnMainThread(run)
}

func run() {
	application, err := app.New(app.Options{ConfigPath: *configPath, LogPath: *logPath})
	if err != nil {
		logging.Errorf("Ошибка инициализации: %v", err)
		var appErr *app.Error
		if errors.As(err, &appErr) {
			dialog.ShowError(i18n.T("error_title"), appErr.Message)
		}
		logging.Close()
		os.Exit(1)
	}
	defer logging.Close()

	logging.Infof("Voxnote %s запущен, журнал: %s", Version, logging.Dir())
	application.Run()
	application.Close()
}
