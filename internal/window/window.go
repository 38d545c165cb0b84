// Package window provides the main window: status line, mode switch,
// command indicators, audio level and the growing transcript.
//
// Calls from other goroutines are queued and applied on the window's frame
// goroutine before the next draw.
package window

import (
	"image/color"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget"

	"voxnote/internal/audio"
	"voxnote/internal/command"
	"voxnote/internal/i18n"
	"voxnote/internal/session"
)

// Config holds window configuration.
type Config struct {
	Width        int           // Window width in pixels
	Height       int           // Window height in pixels
	RefreshRate  time.Duration // Refresh interval
	BGColor      color.NRGBA   // Background color
	WaveColor    color.NRGBA   // Waveform color
	VolumeColor  color.NRGBA   // Volume bar color
	TextColor    color.NRGBA   // Text color
	TextDimColor color.NRGBA   // Dim text color
	AccentColor  color.NRGBA   // Accent color (active mode, spinner)
	PanelColor   color.NRGBA   // Panel background
	LitColor     color.NRGBA   // Lit command indicator
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Width:        520,
		Height:       420,
		RefreshRate:  33 * time.Millisecond, // ~30fps
		BGColor:      color.NRGBA{R: 30, G: 30, B: 34, A: 255},
		WaveColor:    color.NRGBA{R: 80, G: 200, B: 120, A: 255},
		VolumeColor:  color.NRGBA{R: 255, G: 100, B: 100, A: 255},
		TextColor:    color.NRGBA{R: 240, G: 240, B: 245, A: 255},
		TextDimColor: color.NRGBA{R: 140, G: 140, B: 150, A: 255},
		AccentColor:  color.NRGBA{R: 88, G: 166, B: 255, A: 255},
		PanelColor:   color.NRGBA{R: 45, G: 45, B: 50, A: 255},
		LitColor:     color.NRGBA{R: 80, G: 200, B: 120, A: 255},
	}
}

// view is the displayed state. Only touched on the frame goroutine.
type view struct {
	status     string
	transcript string
	indicators map[command.Indicator]bool
	mode       command.Mode
	state      session.State
	sensor     string
}

func newView() view {
	return view{
		status:     i18n.T("status_waiting_sensor"),
		indicators: make(map[command.Indicator]bool),
		mode:       command.DefaultMode,
	}
}

// Window is the main application window.
type Window struct {
	config Config

	mu      sync.Mutex
	meter   audio.Meter
	queue   []func(*view)
	onMode  func(command.Mode)
	onClose func()

	window  *app.Window
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Owned by the frame goroutine while the window is open, by mu otherwise.
	view       view
	modeBtns   map[command.Mode]*widget.Clickable
	transcript widget.List
	startedAt  time.Time
}

// New creates the main window.
func New(cfg Config) *Window {
	btns := make(map[command.Mode]*widget.Clickable)
	for _, m := range command.Modes() {
		btns[m] = new(widget.Clickable)
	}
	return &Window{
		config:   cfg,
		view:     newView(),
		modeBtns: btns,
		transcript: widget.List{
			List: layout.List{Axis: layout.Vertical, ScrollToEnd: true},
		},
	}
}

// SetMeter sets the level meter source. Nil hides the meter.
func (w *Window) SetMeter(m audio.Meter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.meter = m
}

// OnModeSelect sets the callback for mode buttons.
func (w *Window) OnModeSelect(fn func(command.Mode)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onMode = fn
}

// OnClose sets the callback for when the user closes the window.
func (w *Window) OnClose(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onClose = fn
}

// post queues a view update and asks for a redraw. With no frame
// goroutine alive the update is applied at once, so a closed window does
// not accumulate updates.
func (w *Window) post(fn func(*view)) {
	w.mu.Lock()
	if w.window == nil && !w.running {
		fn(&w.view)
		w.mu.Unlock()
		return
	}
	w.queue = append(w.queue, fn)
	win := w.window
	w.mu.Unlock()

	if win != nil {
		win.Invalidate()
	}
}

// drain applies queued updates. Runs on the frame goroutine.
func (w *Window) drain() {
	w.mu.Lock()
	queue := w.queue
	w.queue = nil
	w.mu.Unlock()

	for _, fn := range queue {
		fn(&w.view)
	}
}

// ReportStatus replaces the status line.
func (w *Window) ReportStatus(status string) {
	w.post(func(v *view) { v.status = status })
}

// UpdateText appends a fragment to the transcript, separated by a space.
func (w *Window) UpdateText(text string) {
	w.post(func(v *view) { v.transcript = v.transcript + " " + text })
}

// ShowIndicator lights a command indicator.
func (w *Window) ShowIndicator(ind command.Indicator) {
	w.post(func(v *view) { v.indicators[ind] = true })
}

// ResetIndicators turns all command indicators off.
func (w *Window) ResetIndicators() {
	w.post(func(v *view) { clear(v.indicators) })
}

// StateChanged implements session.Observer.
func (w *Window) StateChanged(state session.State, sensor string) {
	w.post(func(v *view) {
		v.state = state
		v.sensor = sensor
	})
}

// ModeChanged implements session.Observer.
func (w *Window) ModeChanged(mode command.Mode) {
	w.post(func(v *view) { v.mode = mode })
}

// Show displays the window (non-blocking).
func (w *Window) Show() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.startedAt = time.Now()

	go w.runEventLoop(w.stopCh, w.doneCh)
}

// Hide closes the window.
func (w *Window) Hide() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh := w.stopCh
	doneCh := w.doneCh
	w.stopCh = nil
	w.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}

	// Wait for window to close
	if doneCh != nil {
		select {
		case <-doneCh:
		case <-time.After(time.Second):
		}
	}
}

const windowTitle = "Voxnote"

func (w *Window) runEventLoop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	win := new(app.Window)
	win.Option(
		app.Title(windowTitle),
		app.Size(unit.Dp(w.config.Width), unit.Dp(w.config.Height)),
		app.MinSize(unit.Dp(360), unit.Dp(280)),
	)

	w.mu.Lock()
	w.window = win
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.window = nil
		closedByUser := w.running
		w.running = false
		onClose := w.onClose
		// Apply what arrived after the last frame; post writes the view
		// directly from now on.
		for _, fn := range w.queue {
			fn(&w.view)
		}
		w.queue = nil
		w.mu.Unlock()

		if closedByUser && onClose != nil {
			go onClose()
		}
	}()

	var ops op.Ops

	go positionWindow(windowTitle, w.config.Width, w.config.Height)

	// Timer for periodic redraws of the level meter
	ticker := time.NewTicker(w.config.RefreshRate)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-stopCh:
				win.Perform(system.ActionClose)
				return
			case <-doneCh:
				return
			case <-ticker.C:
				win.Invalidate()
			}
		}
	}()

	for {
		switch e := win.Event().(type) {
		case app.DestroyEvent:
			return
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			w.drain()
			w.handleInput(gtx)
			w.draw(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

// handleInput processes mode button clicks.
func (w *Window) handleInput(gtx layout.Context) {
	for _, m := range command.Modes() {
		if !w.modeBtns[m].Clicked(gtx) {
			continue
		}
		w.mu.Lock()
		fn := w.onMode
		w.mu.Unlock()
		if fn != nil {
			go fn(m)
		}
	}
}

func (w *Window) samples() []float32 {
	w.mu.Lock()
	m := w.meter
	w.mu.Unlock()
	if m == nil || !m.IsRecording() {
		return nil
	}
	return m.GetSamples()
}
