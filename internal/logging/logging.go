// Package logging writes diagnostics to stderr and to a log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const envLogPath = "VOXNOTE_LOG_PATH"

var (
	mu     sync.Mutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	file   *os.File
	dir    string
)

// ResolveDir picks the log directory: flag value, then VOXNOTE_LOG_PATH,
// then the OS default location.
func ResolveDir(flagPath string) (string, error) {
	for _, p := range []string{flagPath, os.Getenv(envLogPath)} {
		if p == "" {
			continue
		}
		if filepath.IsAbs(p) {
			return p, nil
		}
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, p), nil
	}
	return defaultDir()
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Logs", "voxnote"), nil
	case "windows":
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "voxnote", "logs"), nil
		}
		return filepath.Join(home, "AppData", "Local", "voxnote", "logs"), nil
	}
	xdg := os.Getenv("XDG_STATE_HOME")
	if xdg == "" {
		xdg = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(xdg, "voxnote"), nil
}

// Init opens diagnostics_log.txt in logDir and tees all output to it.
func Init(logDir, level string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(logDir, "diagnostics_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if file != nil {
		file.Close()
	}
	file = f
	dir = logDir

	out := zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"},
		zerolog.ConsoleWriter{Out: f, TimeFormat: "2006-01-02 15:04:05", NoColor: true},
	)
	logger = zerolog.New(out).Level(parseLevel(level)).With().Timestamp().Int("pid", os.Getpid()).Logger()
	return nil
}

// SetOutput replaces the sink. Used by tests.
func SetOutput(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(w).Level(parseLevel(level))
}

// Dir returns the directory passed to Init.
func Dir() string {
	mu.Lock()
	defer mu.Unlock()
	return dir
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func current() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	l := logger
	return &l
}

func Info(msg string) {
	current().Info().Msg(msg)
}

func Infof(format string, args ...any) {
	current().Info().Msgf(format, args...)
}

func Debugf(format string, args ...any) {
	current().Debug().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	current().Warn().Msgf(format, args...)
}

func Errorf(format string, args ...any) {
	current().Error().Msgf(format, args...)
}

// Recognition records a recognizer event.
func Recognition(kind, text string, confidence float64, mode string) {
	current().Debug().
		Str("kind", kind).
		Str("text", text).
		Float64("confidence", confidence).
		Str("mode", mode).
		Msg("recognition")
}

// Lifecycle records a sensor/engine state transition.
func Lifecycle(sensor, from, to string) {
	current().Info().
		Str("sensor", sensor).
		Str("from", from).
		Str("to", to).
		Msg("lifecycle")
}
