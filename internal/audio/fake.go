package audio

import (
	"io"
	"sync"
)

// FakeSensor - Sensor для тестов.
type FakeSensor struct {
	name string

	mu       sync.Mutex
	StartErr error
	started  bool
	starts   int
	stops    int
	source   *FakeSource
}

// NewFakeSensor создаёт FakeSensor.
func NewFakeSensor(name string) *FakeSensor {
	return &FakeSensor{name: name, source: &FakeSource{}}
}

func (f *FakeSensor) Name() string { return f.name }

func (f *FakeSensor) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.StartErr != nil {
		return f.StartErr
	}
	f.started = true
	return nil
}

func (f *FakeSensor) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.started = false
}

func (f *FakeSensor) AudioSource() AudioSource { return f.source }

// Source возвращает конкретный FakeSource.
func (f *FakeSensor) Source() *FakeSource { return f.source }

// Started сообщает, запущен ли сенсор.
func (f *FakeSensor) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

// Counts возвращает число вызовов Start и Stop.
func (f *FakeSensor) Counts() (starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

// FakeSource - AudioSource для тестов. Поток - pipe, в который пишет Feed.
type FakeSource struct {
	mu      sync.Mutex
	beam    BeamMode
	beamSet bool
	agc     bool
	agcSet  bool
	running bool
	writer  *io.PipeWriter
}

func (f *FakeSource) SetBeamMode(mode BeamMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beam = mode
	f.beamSet = true
}

func (f *FakeSource) SetAutomaticGainControl(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agc = on
	f.agcSet = true
}

func (f *FakeSource) Start() (io.Reader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, w := io.Pipe()
	f.writer = w
	f.running = true
	return r, nil
}

func (f *FakeSource) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writer != nil {
		f.writer.Close()
		f.writer = nil
	}
	f.running = false
}

// Running сообщает, запущен ли поток.
func (f *FakeSource) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Settings возвращает режим луча и АРУ; ok=false если они не задавались.
func (f *FakeSource) Settings() (beam BeamMode, agc bool, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.beam, f.agc, f.beamSet && f.agcSet
}
