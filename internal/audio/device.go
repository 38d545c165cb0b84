package audio

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"voxnote/internal/logging"
)

// Device - сенсор поверх portaudio.
// Start открывает входной поток на устройстве и тем самым захватывает его.
type Device struct {
	name     string
	channels int

	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	opened  int // Фактическое число каналов
	started bool
	source  *source
}

// NewDevice создаёт сенсор для устройства с указанным именем.
func NewDevice(name string, channels int) *Device {
	if channels <= 0 {
		channels = 1
	}
	d := &Device{name: name, channels: channels}
	d.source = &source{device: d, beam: BeamAdaptive}
	return d
}

// Name возвращает имя устройства.
func (d *Device) Name() string { return d.name }

// AudioSource возвращает аудиопоток сенсора.
func (d *Device) AudioSource() AudioSource { return d.source }

// Meter возвращает источник сэмплов для индикатора уровня.
func (d *Device) Meter() Meter { return d.source }

// Start захватывает устройство.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}

	// Initialize/Terminate считаются по ссылкам; свежая инициализация
	// обновляет список устройств после горячего подключения
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("инициализация portaudio: %w", err)
	}

	info, err := findInputDevice(d.name)
	if err != nil {
		portaudio.Terminate()
		return err
	}

	channels := d.channels
	if info.MaxInputChannels < channels {
		channels = info.MaxInputChannels
	}

	params := portaudio.LowLatencyParameters(info, nil)
	params.Input.Channels = channels
	params.SampleRate = SampleRate
	params.FramesPerBuffer = FramesPerBuffer

	buffer := make([]int16, FramesPerBuffer*channels)
	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("устройство %q занято: %w", d.name, err)
	}

	d.stream = stream
	d.buffer = buffer
	d.opened = channels
	d.started = true

	logging.Infof("sensor %s opened with %d channels", d.name, channels)
	return nil
}

// Stop освобождает устройство.
func (d *Device) Stop() {
	d.source.Stop()

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return
	}
	d.stream.Close()
	d.stream = nil
	d.buffer = nil
	d.started = false
	portaudio.Terminate()
}

// findInputDevice ищет устройство ввода по имени или его фрагменту.
func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("список устройств: %w", err)
	}

	var fallback *portaudio.DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels == 0 {
			continue
		}
		if dev.Name == name {
			return dev, nil
		}
		if fallback == nil && strings.Contains(strings.ToLower(dev.Name), strings.ToLower(name)) {
			fallback = dev
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
}

// source - аудиопоток Device.
type source struct {
	device *Device

	mu      sync.Mutex
	beam    BeamMode
	agc     bool
	running bool
	reader  *io.PipeReader
	writer  *io.PipeWriter
	done    chan struct{}
	recent  []float32
}

// SetBeamMode задаёт режим луча.
func (s *source) SetBeamMode(mode BeamMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beam = mode
}

// SetAutomaticGainControl включает или выключает АРУ.
func (s *source) SetAutomaticGainControl(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agc = on
}

// Start запускает поток и возвращает читатель PCM.
func (s *source) Start() (io.Reader, error) {
	s.device.mu.Lock()
	stream := s.device.stream
	buffer := s.device.buffer
	channels := s.device.opened
	s.device.mu.Unlock()

	if stream == nil {
		return nil, ErrNotStarted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.reader, nil
	}

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("запуск аудиопотока: %w", err)
	}

	s.reader, s.writer = io.Pipe()
	s.done = make(chan struct{})
	s.recent = make([]float32, 0, MeterWindow)
	s.running = true

	go s.pump(stream, buffer, channels, s.writer, s.done)

	return s.reader, nil
}

// pump читает буферы устройства, сводит их в моно и пишет в pipe.
func (s *source) pump(stream *portaudio.Stream, buffer []int16, channels int, w *io.PipeWriter, done chan struct{}) {
	defer close(done)

	agc := newGainControl()
	for {
		if err := stream.Read(); err != nil {
			if !s.IsRecording() {
				return
			}
			// Переполнение входа не фатально
			if err == portaudio.InputOverflowed {
				continue
			}
			logging.Warnf("audio: чтение %s: %v", s.device.name, err)
			w.CloseWithError(err)
			return
		}

		s.mu.Lock()
		beam, useAGC, running := s.beam, s.agc, s.running
		s.mu.Unlock()
		if !running {
			return
		}

		mono := mixdown(buffer, channels, beam)
		if useAGC {
			agc.apply(mono)
		}
		s.remember(mono)

		if _, err := w.Write(encodePCM(mono)); err != nil {
			return
		}
	}
}

// remember хранит окно последних сэмплов для индикатора.
func (s *source) remember(mono []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = append(s.recent, toFloat32(mono)...)
	if over := len(s.recent) - MeterWindow; over > 0 {
		s.recent = append(s.recent[:0], s.recent[over:]...)
	}
}

// Stop останавливает поток.
func (s *source) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	reader, writer, done := s.reader, s.writer, s.done
	s.recent = nil
	s.mu.Unlock()

	// Разблокируем pump, если он ждёт читателя
	reader.Close()
	<-done
	writer.Close()

	s.device.mu.Lock()
	if s.device.stream != nil {
		s.device.stream.Stop()
	}
	s.device.mu.Unlock()
}

// IsRecording возвращает true если поток запущен.
func (s *source) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// GetSamples возвращает копию последних сэмплов.
func (s *source) GetSamples() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || len(s.recent) == 0 {
		return nil
	}

	// Возвращаем копию чтобы не было race condition
	samples := make([]float32, len(s.recent))
	copy(samples, s.recent)
	return samples
}
