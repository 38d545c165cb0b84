package session

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"voxnote/internal/audio"
	"voxnote/internal/command"
	"voxnote/internal/speech"
)

type recordingReporter struct {
	mu         sync.Mutex
	statuses   []string
	texts      []string
	indicators []command.Indicator
	resets     int
}

func (r *recordingReporter) ReportStatus(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recordingReporter) UpdateText(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, s)
}

func (r *recordingReporter) ShowIndicator(i command.Indicator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indicators = append(r.indicators, i)
}

func (r *recordingReporter) ResetIndicators() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

func (r *recordingReporter) lastStatus() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return ""
	}
	return r.statuses[len(r.statuses)-1]
}

type recordingObserver struct {
	mu     sync.Mutex
	states []State
	modes  []command.Mode
}

func (o *recordingObserver) StateChanged(st State, _ string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, st)
}

func (o *recordingObserver) ModeChanged(m command.Mode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.modes = append(o.modes, m)
}

type harness struct {
	s          *Session
	sched      *ManualScheduler
	rep        *recordingReporter
	obs        *recordingObserver
	engines    []*speech.FakeEngine
	engineErrs []error
	conflict   []string
	cancel     context.CancelFunc
}

func newHarness(t *testing.T, factoryErr error) *harness {
	t.Helper()
	h := &harness{
		sched: NewManualScheduler(),
		rep:   &recordingReporter{},
		obs:   &recordingObserver{},
	}
	factory := func() (speech.Engine, error) {
		if factoryErr != nil {
			return nil, factoryErr
		}
		e := speech.NewFakeEngine()
		h.engines = append(h.engines, e)
		return e, nil
	}
	h.s = New(Config{
		ReadyDelay:  DefaultReadyDelay,
		Threshold:   command.DefaultThreshold,
		InitialMode: command.DefaultMode,
	}, factory, h.rep)
	h.s.SetScheduler(h.sched)
	h.s.AddObserver(h.obs)
	h.s.OnEngineError(func(err error) { h.engineErrs = append(h.engineErrs, err) })
	h.s.OnConflict(func(sensor string, err error) { h.conflict = append(h.conflict, sensor) })

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.s.Done()
	})
	return h
}

// activate attaches sensor and lets the ready delay elapse.
func (h *harness) activate(t *testing.T, sensor audio.Sensor) *speech.FakeEngine {
	t.Helper()
	h.s.DeviceChanged(nil, sensor)
	if st := h.s.State(); st != WarmingUp {
		t.Fatalf("state after attach = %s", st)
	}
	h.sched.Advance(DefaultReadyDelay)
	if st := h.s.State(); st != Active {
		t.Fatalf("state after ready delay = %s", st)
	}
	return h.engines[len(h.engines)-1]
}

func TestAttachWarmsUpThenActivates(t *testing.T) {
	h := newHarness(t, nil)
	sensor := audio.NewFakeSensor("Xbox NUI Sensor")

	h.s.DeviceChanged(nil, sensor)
	if st := h.s.State(); st != WarmingUp {
		t.Fatalf("state = %s, want warming_up", st)
	}
	if !sensor.Started() {
		t.Fatal("sensor not started on attach")
	}
	if sensor.Source().Running() {
		t.Fatal("audio streamed before ready delay")
	}

	h.sched.Advance(DefaultReadyDelay - time.Millisecond)
	if st := h.s.State(); st != WarmingUp {
		t.Fatalf("state before delay elapsed = %s", st)
	}

	h.sched.Advance(time.Millisecond)
	if st := h.s.State(); st != Active {
		t.Fatalf("state = %s, want active", st)
	}

	beam, agc, ok := sensor.Source().Settings()
	if !ok || beam != audio.BeamAdaptive || agc {
		t.Errorf("source settings = %v agc=%v set=%v", beam, agc, ok)
	}
	e := h.engines[0]
	if !e.Running() {
		t.Error("recognition not started")
	}
	if e.Format() != speech.DefaultFormat {
		t.Errorf("format = %+v", e.Format())
	}
	if got := h.obs.states; !reflect.DeepEqual(got, []State{WarmingUp, Active}) {
		t.Errorf("observed states = %v", got)
	}
}

func TestDetachCancelsPendingReady(t *testing.T) {
	h := newHarness(t, nil)
	sensor := audio.NewFakeSensor("Kinect")

	h.s.DeviceChanged(nil, sensor)
	h.s.State()
	if h.sched.Pending() != 1 {
		t.Fatalf("pending = %d", h.sched.Pending())
	}

	h.s.DeviceChanged(sensor, nil)
	if st := h.s.State(); st != Uninitialized {
		t.Fatalf("state = %s", st)
	}
	if h.sched.Pending() != 0 {
		t.Error("ready timer not cancelled")
	}

	h.sched.Advance(time.Minute)
	if st := h.s.State(); st != Uninitialized {
		t.Errorf("stale timer activated session: %s", st)
	}
	e := h.engines[0]
	if e.Running() || !e.Closed() {
		t.Errorf("engine running=%v closed=%v", e.Running(), e.Closed())
	}
	if sensor.Started() {
		t.Error("sensor still started")
	}
}

func TestDetachTearsDownInOrder(t *testing.T) {
	h := newHarness(t, nil)
	sensor := audio.NewFakeSensor("Kinect")
	e := h.activate(t, sensor)

	h.s.DeviceChanged(sensor, nil)
	if st := h.s.State(); st != Uninitialized {
		t.Fatalf("state = %s", st)
	}

	if sensor.Source().Running() || sensor.Started() {
		t.Error("sensor or source still running")
	}
	calls := e.Calls()
	tail := calls[len(calls)-3:]
	if !reflect.DeepEqual(tail, []string{"RecognizeAsyncCancel", "RecognizeAsyncStop", "Close"}) {
		t.Errorf("engine calls = %v", calls)
	}
}

func TestDetachIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	sensor := audio.NewFakeSensor("Kinect")

	// Detach without anything attached.
	h.s.DeviceChanged(sensor, nil)
	if st := h.s.State(); st != Uninitialized {
		t.Fatalf("state = %s", st)
	}

	h.activate(t, sensor)
	h.s.DeviceChanged(sensor, nil)
	h.s.DeviceChanged(sensor, nil)
	h.s.State()

	if _, stops := sensor.Counts(); stops != 1 {
		t.Errorf("sensor stopped %d times", stops)
	}
	if len(h.engineErrs) != 0 || len(h.conflict) != 0 {
		t.Errorf("unexpected handlers: engine=%v conflict=%v", h.engineErrs, h.conflict)
	}
}

func TestReattachBuildsFreshEngine(t *testing.T) {
	h := newHarness(t, nil)
	a := audio.NewFakeSensor("Kinect A")
	b := audio.NewFakeSensor("Kinect B")

	first := h.activate(t, a)
	h.s.DeviceChanged(a, b)
	if st := h.s.State(); st != WarmingUp {
		t.Fatalf("state = %s", st)
	}
	if !first.Closed() || a.Started() {
		t.Error("old pair not torn down")
	}
	h.sched.Advance(DefaultReadyDelay)
	if st := h.s.State(); st != Active {
		t.Fatalf("state = %s", st)
	}
	if len(h.engines) != 2 || !h.engines[1].Running() {
		t.Error("new engine not running")
	}
}

func TestAnnotatingAppendsComment(t *testing.T) {
	h := newHarness(t, nil)
	h.s.SetMode(command.ModeAnnotating)
	e := h.activate(t, audio.NewFakeSensor("Kinect"))

	e.Emit(speech.Event{Kind: speech.Recognized, Text: "hello", Confidence: 0.9})
	e.Emit(speech.Event{Kind: speech.Recognized, Text: "world", Confidence: 0.5})
	e.Emit(speech.Event{Kind: speech.Recognized, Text: "noise", Confidence: 0.49})

	if got := h.s.Comment(); got != "helloworld" {
		t.Errorf("comment = %q, want helloworld", got)
	}
	if !reflect.DeepEqual(h.rep.texts, []string{"hello", "world"}) {
		t.Errorf("texts = %v", h.rep.texts)
	}
	if got := h.rep.lastStatus(); got != "Rejected: noise 0.49" {
		t.Errorf("status = %q", got)
	}
}

func TestCommandIndicators(t *testing.T) {
	h := newHarness(t, nil)
	e := h.activate(t, audio.NewFakeSensor("Kinect"))

	e.Emit(speech.Event{Kind: speech.Recognized, Text: "Keep", Confidence: 0.2})
	e.Emit(speech.Event{Kind: speech.Recognized, Text: "start", Confidence: 0.9})
	e.Emit(speech.Event{Kind: speech.Recognized, Text: "hello", Confidence: 0.9})

	h.s.SetMode(command.ModePreRecording)
	e.Emit(speech.Event{Kind: speech.Recognized, Text: "START", Confidence: 0.9})
	e.Emit(speech.Event{Kind: speech.Recognized, Text: "play", Confidence: 0.9})

	if m := h.s.Mode(); m != command.ModePreRecording {
		t.Fatalf("mode = %s", m)
	}
	want := []command.Indicator{command.IndicatorKeep, command.IndicatorStart}
	if !reflect.DeepEqual(h.rep.indicators, want) {
		t.Errorf("indicators = %v, want %v", h.rep.indicators, want)
	}
	if h.rep.resets != 1 {
		t.Errorf("indicator resets = %d", h.rep.resets)
	}
	if len(h.rep.texts) != 0 || h.s.Comment() != "" {
		t.Error("command modes must not touch the transcript")
	}
	if !reflect.DeepEqual(h.obs.modes, []command.Mode{command.ModePreRecording}) {
		t.Errorf("observed modes = %v", h.obs.modes)
	}
}

func TestSetSameModeKeepsIndicators(t *testing.T) {
	h := newHarness(t, nil)
	h.s.SetMode(command.DefaultMode)
	h.s.Mode()
	if h.rep.resets != 0 {
		t.Errorf("resets = %d", h.rep.resets)
	}
}

func TestEngineRejectionAlwaysReported(t *testing.T) {
	h := newHarness(t, nil)
	h.s.SetMode(command.ModeIdle)
	e := h.activate(t, audio.NewFakeSensor("Kinect"))

	e.Emit(speech.Event{Kind: speech.Recognized, Text: "keep", Confidence: 1})
	e.Emit(speech.Event{Kind: speech.Rejected, Text: "[unk]", Confidence: 0.1})
	h.s.State()

	if got := h.rep.lastStatus(); !strings.HasPrefix(got, "Rejected: [unk]") {
		t.Errorf("status = %q", got)
	}
	if len(h.rep.indicators) != 0 || len(h.rep.texts) != 0 {
		t.Error("idle mode produced effects")
	}
}

func TestEngineFailureAbortsAttach(t *testing.T) {
	boom := errors.New("no recognizer")
	h := newHarness(t, boom)
	sensor := audio.NewFakeSensor("Kinect")

	h.s.DeviceChanged(nil, sensor)
	if st := h.s.State(); st != Uninitialized {
		t.Fatalf("state = %s", st)
	}
	if len(h.engineErrs) != 1 || !errors.Is(h.engineErrs[0], boom) {
		t.Errorf("engine errors = %v", h.engineErrs)
	}
	if starts, _ := sensor.Counts(); starts != 0 {
		t.Error("sensor started despite engine failure")
	}
	if got := h.rep.lastStatus(); !strings.HasPrefix(got, "Recognition error: ") {
		t.Errorf("status = %q", got)
	}
}

func TestSensorConflict(t *testing.T) {
	h := newHarness(t, nil)
	sensor := audio.NewFakeSensor("Kinect")
	sensor.StartErr = errors.New("device busy")

	h.s.DeviceChanged(nil, sensor)
	if st := h.s.State(); st != Uninitialized {
		t.Fatalf("state = %s", st)
	}
	if !reflect.DeepEqual(h.conflict, []string{"Kinect"}) {
		t.Errorf("conflict = %v", h.conflict)
	}
	if !h.engines[0].Closed() {
		t.Error("engine not closed after conflict")
	}
	if h.sched.Pending() != 0 {
		t.Error("ready task scheduled after conflict")
	}

	// A fresh attach retries.
	sensor.StartErr = nil
	h.s.DeviceChanged(nil, sensor)
	if st := h.s.State(); st != WarmingUp {
		t.Errorf("retry state = %s", st)
	}
}

func TestShutdownTearsDown(t *testing.T) {
	h := newHarness(t, nil)
	sensor := audio.NewFakeSensor("Kinect")
	e := h.activate(t, sensor)

	h.cancel()
	<-h.s.Done()

	if !e.Closed() || sensor.Started() {
		t.Error("shutdown did not tear down")
	}
	if st := h.s.State(); st != Uninitialized {
		t.Errorf("State after shutdown = %s (zero value expected)", st)
	}
}
