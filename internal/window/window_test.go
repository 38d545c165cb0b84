package window

import (
	"testing"

	"voxnote/internal/command"
	"voxnote/internal/session"
)

// Compile-time checks.
var (
	_ session.Reporter = (*Window)(nil)
	_ session.Observer = (*Window)(nil)
)

func TestUpdatesAppliedOnDrain(t *testing.T) {
	w := New(DefaultConfig())
	w.running = true // a frame goroutine owns the view

	w.ReportStatus("Recognized: hello 0.9")
	w.UpdateText("hello")
	w.UpdateText("world")

	if w.view.transcript != "" {
		t.Fatal("view mutated before drain")
	}

	w.drain()
	if w.view.status != "Recognized: hello 0.9" {
		t.Errorf("status = %q", w.view.status)
	}
	if w.view.transcript != " hello world" {
		t.Errorf("transcript = %q", w.view.transcript)
	}
}

func TestClosedWindowAppliesUpdatesDirectly(t *testing.T) {
	w := New(DefaultConfig())

	for i := 0; i < 100; i++ {
		w.ReportStatus("Listening")
		w.UpdateText("hello")
	}
	if len(w.queue) != 0 {
		t.Fatalf("closed window queued %d updates", len(w.queue))
	}
	if w.view.status != "Listening" {
		t.Errorf("status = %q", w.view.status)
	}
	if got := len(w.view.transcript); got != 600 {
		t.Errorf("transcript length = %d, want 600", got)
	}
}

func TestIndicators(t *testing.T) {
	w := New(DefaultConfig())

	w.ShowIndicator(command.IndicatorKeep)
	w.ShowIndicator(command.IndicatorPlay)
	w.drain()
	if !w.view.indicators[command.IndicatorKeep] || !w.view.indicators[command.IndicatorPlay] {
		t.Fatalf("indicators = %v", w.view.indicators)
	}
	if w.view.indicators[command.IndicatorStart] {
		t.Error("start lit unexpectedly")
	}

	w.ResetIndicators()
	w.ShowIndicator(command.IndicatorStart)
	w.drain()
	if len(w.view.indicators) != 1 || !w.view.indicators[command.IndicatorStart] {
		t.Errorf("indicators after reset = %v", w.view.indicators)
	}
}

func TestObserverUpdates(t *testing.T) {
	w := New(DefaultConfig())
	if w.view.mode != command.DefaultMode {
		t.Fatalf("initial mode = %s", w.view.mode)
	}

	w.StateChanged(session.Active, "Kinect")
	w.ModeChanged(command.ModeAnnotating)
	w.drain()

	if w.view.state != session.Active || w.view.sensor != "Kinect" {
		t.Errorf("state = %s sensor = %q", w.view.state, w.view.sensor)
	}
	if w.view.mode != command.ModeAnnotating {
		t.Errorf("mode = %s", w.view.mode)
	}
}

func TestLevelOf(t *testing.T) {
	if levelOf(nil) != 0 {
		t.Error("empty level")
	}
	loud := make([]float32, 2048)
	for i := range loud {
		loud[i] = 0.9
	}
	if levelOf(loud) != 1 {
		t.Errorf("loud level = %v", levelOf(loud))
	}
	quiet := []float32{0.1, -0.1, 0.1, -0.1}
	if got := levelOf(quiet); got < 0.29 || got > 0.31 {
		t.Errorf("quiet level = %v", got)
	}
}

func TestCornerPosition(t *testing.T) {
	x, y := cornerPosition(1920, 1080, 520, 420)
	if x != 1380 || y != 50 {
		t.Errorf("position = %d,%d", x, y)
	}
	x, _ = cornerPosition(400, 300, 520, 420)
	if x != 0 {
		t.Errorf("x = %d on small screen", x)
	}
}
