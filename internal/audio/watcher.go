package audio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"voxnote/internal/logging"
)

// Lister перечисляет устройства захвата.
type Lister interface {
	CaptureDevices() ([]string, error)
}

// MalgoLister перечисляет устройства через miniaudio.
type MalgoLister struct {
	ctx *malgo.AllocatedContext
}

// NewMalgoLister создаёт контекст miniaudio.
func NewMalgoLister() (*MalgoLister, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo context: %w", err)
	}
	return &MalgoLister{ctx: ctx}, nil
}

// CaptureDevices возвращает имена устройств захвата.
func (l *MalgoLister) CaptureDevices() ([]string, error) {
	devices, err := l.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.Name())
	}
	return names, nil
}

// Close освобождает контекст.
func (l *MalgoLister) Close() {
	_ = l.ctx.Uninit()
	l.ctx.Free()
}

// Change - смена подключённого сенсора. Nil означает отсутствие сенсора.
type Change struct {
	Old Sensor
	New Sensor
}

// Watcher следит за подключением сенсора и сообщает о смене.
type Watcher struct {
	lister    Lister
	match     string
	interval  time.Duration
	newSensor func(name string) Sensor
	onChange  func(Change)

	mu      sync.Mutex
	current Sensor
}

// NewWatcher создаёт наблюдатель. newSensor строит сенсор по имени найденного устройства.
func NewWatcher(lister Lister, match string, interval time.Duration, newSensor func(name string) Sensor) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{
		lister:    lister,
		match:     match,
		interval:  interval,
		newSensor: newSensor,
	}
}

// OnChange устанавливает callback смены сенсора.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Current возвращает текущий сенсор или nil.
func (w *Watcher) Current() Sensor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run опрашивает устройства до отмены контекста. Первый опрос сразу.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Poll()
		}
	}
}

// Poll выполняет один опрос.
func (w *Watcher) Poll() {
	names, err := w.lister.CaptureDevices()
	if err != nil {
		logging.Warnf("audio: опрос устройств: %v", err)
		return
	}
	found, ok := matchDevice(names, w.match)

	w.mu.Lock()
	old := w.current
	if ok && old != nil && old.Name() == found {
		w.mu.Unlock()
		return
	}
	if !ok && old == nil {
		w.mu.Unlock()
		return
	}

	var next Sensor
	if ok {
		next = w.newSensor(found)
	}
	w.current = next
	fn := w.onChange
	w.mu.Unlock()

	logging.Infof("sensor change: %s -> %s", sensorName(old), sensorName(next))
	if fn != nil {
		fn(Change{Old: old, New: next})
	}
}

// matchDevice ищет первое устройство, имя которого содержит фрагмент (без учёта регистра).
func matchDevice(names []string, fragment string) (string, bool) {
	want := strings.ToLower(fragment)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return n, true
		}
	}
	return "", false
}

func sensorName(s Sensor) string {
	if s == nil {
		return "none"
	}
	return s.Name()
}
