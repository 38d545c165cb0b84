// Package audio предоставляет сенсор с микрофонным массивом и его аудиопоток.
package audio

import (
	"errors"
	"io"
)

const (
	// SampleRate - частота дискретизации потока распознавания.
	SampleRate = 16000
	// FramesPerBuffer - 100 мс на буфер.
	FramesPerBuffer = SampleRate / 10
	// MeterWindow - сколько последних сэмплов хранится для индикатора уровня (1 сек).
	MeterWindow = SampleRate
)

var (
	// ErrDeviceNotFound - устройство с таким именем не найдено.
	ErrDeviceNotFound = errors.New("audio: device not found")
	// ErrNotStarted - сенсор не запущен.
	ErrNotStarted = errors.New("audio: sensor not started")
)

// BeamMode режим направленности микрофонного массива.
type BeamMode int

const (
	// BeamAdaptive - следовать за самым громким источником.
	BeamAdaptive BeamMode = iota
	// BeamFixed - фиксированный луч прямо перед сенсором.
	BeamFixed
)

func (m BeamMode) String() string {
	if m == BeamAdaptive {
		return "adaptive"
	}
	return "fixed"
}

// AudioSource - аудиопоток сенсора.
type AudioSource interface {
	// SetBeamMode задаёт режим луча.
	SetBeamMode(mode BeamMode)
	// SetAutomaticGainControl включает или выключает АРУ.
	SetAutomaticGainControl(on bool)
	// Start запускает поток PCM 16 кГц, 16 бит, моно.
	Start() (io.Reader, error)
	// Stop останавливает поток. Повторный вызов безопасен.
	Stop()
}

// Sensor - физическое устройство с микрофонным массивом.
type Sensor interface {
	// Name возвращает имя устройства.
	Name() string
	// Start захватывает устройство. Занятое устройство возвращает ошибку.
	Start() error
	// Stop освобождает устройство. Повторный вызов безопасен.
	Stop()
	// AudioSource возвращает аудиопоток сенсора.
	AudioSource() AudioSource
}

// Meter - источник сэмплов для индикатора уровня.
type Meter interface {
	IsRecording() bool
	GetSamples() []float32
}
