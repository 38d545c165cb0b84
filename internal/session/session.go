// Package session owns the sensor and recognition engine lifecycle and
// dispatches recognition events to the display.
//
// Every mutation happens on the goroutine running Run. Device changes, mode
// switches, timer callbacks and queries are posted to it as closures; engine
// events are read from the engine's channel by the same loop.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"voxnote/internal/audio"
	"voxnote/internal/command"
	"voxnote/internal/i18n"
	"voxnote/internal/logging"
	"voxnote/internal/speech"
)

// DefaultReadyDelay lets the sensor's audio subsystem settle before streaming.
const DefaultReadyDelay = 4 * time.Second

// State of the sensor/engine pair.
type State int

const (
	Uninitialized State = iota
	// WarmingUp means the sensor is started and the ready task is pending.
	// It is not Active.
	WarmingUp
	Active
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case WarmingUp:
		return "warming_up"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Reporter applies status and text to the display surface.
// Implementations marshal the call onto their own UI context.
type Reporter interface {
	ReportStatus(status string)
	UpdateText(text string)
	ShowIndicator(ind command.Indicator)
	ResetIndicators()
}

// Observer is told about state and mode changes. Called on the session
// goroutine; must not block.
type Observer interface {
	StateChanged(state State, sensor string)
	ModeChanged(mode command.Mode)
}

// EngineFactory builds a ready-to-use engine with its grammar loaded.
type EngineFactory func() (speech.Engine, error)

// Config holds the session tunables.
type Config struct {
	ReadyDelay  time.Duration
	Threshold   float64
	InitialMode command.Mode
}

// Session is the explicit context object for one running application.
type Session struct {
	cfg       Config
	newEngine EngineFactory
	reporter  Reporter
	scheduler Scheduler

	onEngineError func(error)
	onConflict    func(sensor string, err error)
	observers     []Observer

	inbox chan func()
	done  chan struct{}

	// Owned by the Run goroutine.
	sensor  audio.Sensor
	engine  speech.Engine
	events  <-chan speech.Event
	ready   Timer
	gen     uint64
	mode    command.Mode
	comment strings.Builder
	state   State
}

// New creates a session. Handlers and observers must be set before Run.
func New(cfg Config, newEngine EngineFactory, reporter Reporter) *Session {
	if cfg.ReadyDelay < 0 {
		cfg.ReadyDelay = DefaultReadyDelay
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = command.DefaultThreshold
	}
	return &Session{
		cfg:           cfg,
		newEngine:     newEngine,
		reporter:      reporter,
		scheduler:     RealScheduler,
		onEngineError: func(err error) { logging.Errorf("engine: %v", err) },
		onConflict:    func(sensor string, err error) { logging.Warnf("sensor %s conflict: %v", sensor, err) },
		inbox:         make(chan func(), 64),
		done:          make(chan struct{}),
		mode:          cfg.InitialMode,
	}
}

// SetScheduler replaces the scheduler used for the ready task.
func (s *Session) SetScheduler(sch Scheduler) { s.scheduler = sch }

// OnEngineError sets the handler for engine construction failures. The
// attach attempt is abandoned; the next attach retries.
func (s *Session) OnEngineError(fn func(error)) { s.onEngineError = fn }

// OnConflict sets the handler for sensors that fail to start.
func (s *Session) OnConflict(fn func(sensor string, err error)) { s.onConflict = fn }

// AddObserver registers an observer.
func (s *Session) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run processes posted work and engine events until ctx is cancelled,
// then tears down the sensor and engine.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	s.reporter.ReportStatus(i18n.T("status_waiting_sensor"))
	for {
		select {
		case <-ctx.Done():
			s.teardown()
			return
		case fn := <-s.inbox:
			fn()
		case ev := <-s.events:
			s.handleEvent(ev)
		}
	}
}

// Done is closed when Run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) post(fn func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- fn:
		return true
	case <-s.done:
		return false
	}
}

// query runs fn on the session goroutine and waits for it.
func query[T any](s *Session, fn func() T) T {
	ch := make(chan T, 1)
	var zero T
	if !s.post(func() { ch <- fn() }) {
		return zero
	}
	select {
	case v := <-ch:
		return v
	case <-s.done:
		return zero
	}
}

// DeviceChanged handles a sensor attach, detach or swap. Either side may be nil.
func (s *Session) DeviceChanged(old, next audio.Sensor) {
	s.post(func() {
		if old != nil {
			s.teardown()
		}
		if next != nil {
			s.initialize(next)
		}
	})
}

// SetMode switches the command mode. Indicators are reset on change.
func (s *Session) SetMode(m command.Mode) {
	s.post(func() {
		if s.mode == m {
			return
		}
		s.mode = m
		s.reporter.ResetIndicators()
		logging.Infof("mode: %s", m)
		for _, o := range s.observers {
			o.ModeChanged(m)
		}
	})
}

// Mode returns the current command mode.
func (s *Session) Mode() command.Mode {
	return query(s, func() command.Mode { return s.mode })
}

// Comment returns the accumulated annotation text.
func (s *Session) Comment() string {
	return query(s, func() string { return s.comment.String() })
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return query(s, func() State { return s.state })
}

func (s *Session) initialize(sensor audio.Sensor) {
	if s.sensor != nil || s.engine != nil {
		s.teardown()
	}

	engine, err := s.newEngine()
	if err != nil {
		err = fmt.Errorf("create recognition engine: %w", err)
		s.reporter.ReportStatus(fmt.Sprintf(i18n.T("status_error"), err))
		s.onEngineError(err)
		return
	}

	if err := sensor.Start(); err != nil {
		engine.Close()
		s.reporter.ReportStatus(fmt.Sprintf(i18n.T("status_conflict"), sensor.Name()))
		s.onConflict(sensor.Name(), err)
		return
	}

	s.sensor = sensor
	s.engine = engine
	s.events = engine.Events()

	s.gen++
	gen := s.gen
	s.ready = s.scheduler.AfterFunc(s.cfg.ReadyDelay, func() {
		s.post(func() {
			if gen == s.gen {
				s.onReady()
			}
		})
	})

	s.reporter.ReportStatus(fmt.Sprintf(i18n.T("status_warming_up"), sensor.Name()))
	s.setState(WarmingUp)
}

func (s *Session) onReady() {
	s.ready = nil
	if s.sensor == nil || s.engine == nil {
		return
	}

	src := s.sensor.AudioSource()
	src.SetBeamMode(audio.BeamAdaptive)
	src.SetAutomaticGainControl(false)

	stream, err := src.Start()
	if err != nil {
		name := s.sensor.Name()
		s.teardown()
		s.reporter.ReportStatus(fmt.Sprintf(i18n.T("status_conflict"), name))
		s.onConflict(name, err)
		return
	}

	if err := s.engine.SetInputToAudioStream(stream, speech.DefaultFormat); err != nil {
		s.failStreaming(err)
		return
	}
	if err := s.engine.RecognizeAsync(speech.RecognizeMultiple); err != nil {
		s.failStreaming(err)
		return
	}

	s.reporter.ReportStatus(i18n.T("status_listening"))
	s.setState(Active)
}

func (s *Session) failStreaming(err error) {
	logging.Errorf("start recognition on %s: %v", s.sensor.Name(), err)
	s.teardown()
	s.reporter.ReportStatus(fmt.Sprintf(i18n.T("status_error"), err))
}

// teardown stops everything the session owns. Safe to call repeatedly.
func (s *Session) teardown() {
	if s.ready != nil {
		s.ready.Stop()
		s.ready = nil
	}
	s.gen++

	if s.engine != nil && s.sensor != nil {
		s.sensor.AudioSource().Stop()
		s.sensor.Stop()
		s.engine.RecognizeAsyncCancel()
		s.engine.RecognizeAsyncStop()
	}
	if s.engine != nil {
		s.engine.Close()
	}

	hadSensor := s.sensor != nil
	s.sensor = nil
	s.engine = nil
	s.events = nil

	if hadSensor {
		s.reporter.ReportStatus(i18n.T("status_waiting_sensor"))
	}
	s.setState(Uninitialized)
}

func (s *Session) setState(st State) {
	if s.state == st {
		return
	}
	from := s.state
	s.state = st

	name := ""
	if s.sensor != nil {
		name = s.sensor.Name()
	}
	logging.Lifecycle(name, from.String(), st.String())
	for _, o := range s.observers {
		o.StateChanged(st, name)
	}
}

func (s *Session) handleEvent(ev speech.Event) {
	res := command.Result{Text: ev.Text, Confidence: ev.Confidence}

	if ev.Kind == speech.Rejected {
		logging.Recognition("rejected", res.Text, res.Confidence, s.mode.String())
		s.reporter.ReportStatus(statusLine("status_rejected", res))
		return
	}

	eff := command.Dispatch(s.mode, res, s.cfg.Threshold)
	switch eff.Kind {
	case command.Rejected:
		logging.Recognition("rejected", res.Text, res.Confidence, s.mode.String())
		s.reporter.ReportStatus(statusLine("status_rejected", res))
	case command.Recognized:
		logging.Recognition("recognized", res.Text, res.Confidence, s.mode.String())
		s.reporter.ReportStatus(statusLine("status_recognized", res))
		s.reporter.UpdateText(res.Text)
		s.comment.WriteString(res.Text)
	case command.ShowIndicator:
		logging.Recognition("command", res.Text, res.Confidence, s.mode.String())
		s.reporter.ShowIndicator(eff.Indicator)
	default:
		logging.Recognition("ignored", res.Text, res.Confidence, s.mode.String())
	}
}

func statusLine(key string, r command.Result) string {
	return fmt.Sprintf("%s %s %v", i18n.T(key), r.Text, r.Confidence)
}
