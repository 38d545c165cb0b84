// Package startup provides the loading window shown while the recognizer
// loads and while the sensor warms up.
package startup

import (
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/font"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"voxnote/internal/command"
	"voxnote/internal/i18n"
	"voxnote/internal/session"
)

var (
	colorBG     = color.NRGBA{R: 30, G: 30, B: 34, A: 255}
	colorText   = color.NRGBA{R: 240, G: 240, B: 245, A: 255}
	colorDim    = color.NRGBA{R: 140, G: 140, B: 150, A: 255}
	colorAccent = color.NRGBA{R: 88, G: 166, B: 255, A: 255}
	colorTrack  = color.NRGBA{R: 60, G: 60, B: 68, A: 255}
)

// Window represents the startup loading window. It also implements
// session.Observer: it opens on WarmingUp and closes on any other state.
type Window struct {
	mu      sync.Mutex
	window  *app.Window
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	status    string
	substatus string

	// Warm-up progress; zero warmDelay means an indeterminate spinner.
	warmStart time.Time
	warmDelay time.Duration
	readyIn   time.Duration

	// seq counts session state changes; a deferred hide only acts if no
	// later change happened.
	seq uint64
}

// New creates a new startup window. readyDelay is the sensor warm-up
// duration shown as a progress bar.
func New(readyDelay time.Duration) *Window {
	return &Window{
		status:  i18n.T("startup_status"),
		readyIn: readyDelay,
	}
}

// Show displays the loading window.
func (w *Window) Show() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	go w.runEventLoop(stopCh, doneCh)
}

// Hide closes the loading window.
func (w *Window) Hide() {
	w.hide(func() bool { return true })
}

// hideIfCurrent closes the window unless a state change after seq
// happened. Returns whether the window was closed.
func (w *Window) hideIfCurrent(seq uint64) bool {
	return w.hide(func() bool { return w.seq == seq })
}

// hide closes the window if ok returns true. ok runs under mu.
func (w *Window) hide(ok func() bool) bool {
	w.mu.Lock()
	if !w.running || !ok() {
		w.mu.Unlock()
		return false
	}
	w.running = false
	stopCh := w.stopCh
	doneCh := w.doneCh
	w.stopCh = nil
	w.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}

	if doneCh != nil {
		select {
		case <-doneCh:
		case <-time.After(time.Second):
		}
	}
	return true
}

// SetStatus updates the loading status text.
func (w *Window) SetStatus(status, substatus string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.substatus = substatus
	w.warmDelay = 0
}

// StateChanged implements session.Observer.
func (w *Window) StateChanged(state session.State, sensor string) {
	w.mu.Lock()
	w.seq++
	seq := w.seq
	if state != session.WarmingUp {
		w.mu.Unlock()
		// Hide waits for the window goroutine; observers must not block.
		go w.hideIfCurrent(seq)
		return
	}
	w.status = i18n.T("startup_warming_up")
	w.substatus = sensor
	w.warmStart = time.Now()
	w.warmDelay = w.readyIn
	w.mu.Unlock()
	w.Show()
}

// ModeChanged implements session.Observer.
func (w *Window) ModeChanged(command.Mode) {}

func (w *Window) snapshot(now time.Time) (status, substatus string, progress float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	progress = -1
	if w.warmDelay > 0 {
		progress = warmupProgress(w.warmStart, w.warmDelay, now)
	}
	return w.status, w.substatus, progress
}

// warmupProgress returns the elapsed share of the warm-up in [0, 1].
func warmupProgress(start time.Time, delay time.Duration, now time.Time) float32 {
	if delay <= 0 {
		return 1
	}
	p := float32(now.Sub(start)) / float32(delay)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

func (w *Window) runEventLoop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	win := new(app.Window)
	win.Option(
		app.Title(i18n.T("app_name")),
		app.Size(unit.Dp(300), unit.Dp(150)),
		app.MinSize(unit.Dp(300), unit.Dp(150)),
		app.MaxSize(unit.Dp(300), unit.Dp(150)),
	)
	w.mu.Lock()
	w.window = win
	w.mu.Unlock()

	var ops op.Ops
	th := material.NewTheme()

	// Invalidation goroutine
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				win.Perform(system.ActionClose)
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
			w.draw(gtx, th)
			e.Frame(gtx.Ops)
		}
	}
}

func (w *Window) draw(gtx layout.Context, th *material.Theme) layout.Dimensions {
	rect := clip.Rect{Max: gtx.Constraints.Max}
	paint.FillShape(gtx.Ops, colorBG, rect.Op())

	status, substatus, progress := w.snapshot(gtx.Now)

	return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if progress >= 0 {
					return drawProgress(gtx, progress)
				}
				return drawSpinner(gtx, gtx.Now)
			}),

			layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),

			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				lbl := material.Label(th, unit.Sp(14), status)
				lbl.Color = colorText
				lbl.Font.Weight = font.Medium
				lbl.Alignment = text.Middle
				return lbl.Layout(gtx)
			}),

			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if substatus == "" {
					return layout.Dimensions{}
				}
				return layout.Inset{Top: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					lbl := material.Label(th, unit.Sp(11), substatus)
					lbl.Color = colorDim
					lbl.Alignment = text.Middle
					return lbl.Layout(gtx)
				})
			}),
		)
	})
}

func drawProgress(gtx layout.Context, progress float32) layout.Dimensions {
	width := gtx.Dp(unit.Dp(200))
	height := gtx.Dp(unit.Dp(6))
	r := height / 2

	track := clip.UniformRRect(image.Rectangle{Max: image.Pt(width, height)}, r)
	paint.FillShape(gtx.Ops, colorTrack, track.Op(gtx.Ops))

	if filled := int(float32(width) * progress); filled > 0 {
		bar := clip.UniformRRect(image.Rectangle{Max: image.Pt(filled, height)}, r)
		paint.FillShape(gtx.Ops, colorAccent, bar.Op(gtx.Ops))
	}
	return layout.Dimensions{Size: image.Pt(width, height)}
}

func drawSpinner(gtx layout.Context, now time.Time) layout.Dimensions {
	size := gtx.Dp(unit.Dp(40))
	thickness := gtx.Dp(unit.Dp(3))

	angle := float64(now.UnixMilli()%1000) / 1000.0 * 2 * math.Pi

	center := image.Pt(size/2, size/2)
	radius := size/2 - thickness

	const numSegments = 12
	for i := 0; i < numSegments; i++ {
		segmentAngle := angle + float64(i)*2*math.Pi/float64(numSegments)
		alpha := uint8(255 - i*20)

		x := center.X + int(float64(radius)*math.Cos(segmentAngle))
		y := center.Y + int(float64(radius)*math.Sin(segmentAngle))

		dotRadius := thickness / 2
		dot := clip.Ellipse{
			Min: image.Pt(x-dotRadius, y-dotRadius),
			Max: image.Pt(x+dotRadius, y+dotRadius),
		}
		col := color.NRGBA{R: colorAccent.R, G: colorAccent.G, B: colorAccent.B, A: alpha}
		paint.FillShape(gtx.Ops, col, dot.Op(gtx.Ops))
	}

	return layout.Dimensions{Size: image.Pt(size, size)}
}
