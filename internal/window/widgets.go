package window

import (
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	"gioui.org/f32"
	"gioui.org/font"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"voxnote/internal/command"
	"voxnote/internal/i18n"
	"voxnote/internal/session"
)

func (w *Window) draw(gtx layout.Context) layout.Dimensions {
	cfg := w.config
	v := &w.view
	elapsed := time.Since(w.startedAt)
	th := material.NewTheme()

	drawBackground(gtx, cfg.BGColor)

	return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			// Status line
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return drawStatusRow(gtx, th, v, elapsed, cfg)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(10)}.Layout),

			// Mode switch
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return w.drawModeRow(gtx, th, v.mode)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),

			// Command indicators
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return drawIndicatorRow(gtx, th, v.indicators, cfg)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),

			// Level meter
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				gtx.Constraints.Min.Y = gtx.Dp(unit.Dp(56))
				gtx.Constraints.Max.Y = gtx.Constraints.Min.Y
				return drawWaveformPanel(gtx, w.samples(), cfg)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),

			// Transcript
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return drawTranscriptPanel(gtx, th, &w.transcript, v.transcript, cfg)
			}),
		)
	})
}

// drawBackground draws a rectangle background.
func drawBackground(gtx layout.Context, col color.NRGBA) {
	rect := clip.Rect{Max: gtx.Constraints.Max}
	paint.FillShape(gtx.Ops, col, rect.Op())
}

func drawStatusRow(gtx layout.Context, th *material.Theme, v *view, elapsed time.Duration, cfg Config) layout.Dimensions {
	return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			switch v.state {
			case session.Active:
				return drawRecordingDot(gtx, elapsed, cfg.WaveColor)
			case session.WarmingUp:
				return drawModernSpinner(gtx, elapsed, cfg.AccentColor)
			default:
				return drawIdleDot(gtx, cfg.TextDimColor)
			}
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			th.Palette.Fg = cfg.TextColor
			lbl := material.Label(th, unit.Sp(14), v.status)
			lbl.Font.Weight = font.Medium
			lbl.MaxLines = 1
			return lbl.Layout(gtx)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if v.sensor == "" {
				return layout.Dimensions{}
			}
			th.Palette.Fg = cfg.TextDimColor
			return material.Label(th, unit.Sp(11), v.sensor).Layout(gtx)
		}),
	)
}

// modeLabel returns the button caption for a mode.
func modeLabel(m command.Mode) string {
	return i18n.T("mode_" + m.String())
}

func (w *Window) drawModeRow(gtx layout.Context, th *material.Theme, active command.Mode) layout.Dimensions {
	modes := command.Modes()
	children := make([]layout.FlexChild, 0, len(modes)*2)
	for i, m := range modes {
		if i > 0 {
			children = append(children, layout.Rigid(layout.Spacer{Width: unit.Dp(6)}.Layout))
		}
		children = append(children, layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			bg := w.config.PanelColor
			if m == active {
				bg = w.config.AccentColor
			}
			return drawActionButton(gtx, th, w.modeBtns[m], bg, modeLabel(m))
		}))
	}
	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx, children...)
}

func drawIndicatorRow(gtx layout.Context, th *material.Theme, lit map[command.Indicator]bool, cfg Config) layout.Dimensions {
	inds := command.Indicators()
	children := make([]layout.FlexChild, 0, len(inds)*2)
	for i, ind := range inds {
		if i > 0 {
			children = append(children, layout.Rigid(layout.Spacer{Width: unit.Dp(6)}.Layout))
		}
		on := lit[ind]
		label := strings.ToUpper(ind.String())
		children = append(children, layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return drawIndicator(gtx, th, label, on, cfg)
		}))
	}
	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx, children...)
}

// drawIndicator draws a command chip, lit or dim.
func drawIndicator(gtx layout.Context, th *material.Theme, text string, on bool, cfg Config) layout.Dimensions {
	bg, fg := cfg.PanelColor, cfg.TextDimColor
	if on {
		bg, fg = cfg.LitColor, color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}

	macro := op.Record(gtx.Ops)
	dims := layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			th.Palette.Fg = fg
			lbl := material.Label(th, unit.Sp(12), text)
			lbl.Font.Weight = font.Bold
			return lbl.Layout(gtx)
		})
	})
	call := macro.Stop()

	rr := gtx.Dp(unit.Dp(6))
	rect := clip.RRect{
		Rect: image.Rectangle{Max: image.Pt(gtx.Constraints.Max.X, dims.Size.Y)},
		NE:   rr, NW: rr, SE: rr, SW: rr,
	}
	paint.FillShape(gtx.Ops, bg, rect.Op(gtx.Ops))
	call.Add(gtx.Ops)

	return layout.Dimensions{Size: image.Pt(gtx.Constraints.Max.X, dims.Size.Y)}
}

// drawIdleDot draws a static hollow dot while no sensor is active.
func drawIdleDot(gtx layout.Context, col color.NRGBA) layout.Dimensions {
	size := gtx.Dp(unit.Dp(10))
	circle := clip.Ellipse{Max: image.Pt(size, size)}
	paint.FillShape(gtx.Ops, col, clip.Stroke{
		Path:  circle.Path(gtx.Ops),
		Width: float32(gtx.Dp(unit.Dp(1.5))),
	}.Op())
	return layout.Dimensions{Size: image.Pt(size, size)}
}

// drawRecordingDot draws a pulsing listening indicator.
func drawRecordingDot(gtx layout.Context, elapsed time.Duration, col color.NRGBA) layout.Dimensions {
	size := gtx.Dp(unit.Dp(10))

	// Pulsing effect
	pulse := float32(math.Sin(float64(elapsed.Milliseconds())/200.0)*0.3 + 0.7)
	alpha := uint8(float32(col.A) * pulse)
	pulseCol := color.NRGBA{R: col.R, G: col.G, B: col.B, A: alpha}

	circle := clip.Ellipse{Max: image.Pt(size, size)}
	paint.FillShape(gtx.Ops, pulseCol, circle.Op(gtx.Ops))

	return layout.Dimensions{Size: image.Pt(size, size)}
}

// drawModernSpinner draws a small spinner while the sensor warms up.
func drawModernSpinner(gtx layout.Context, elapsed time.Duration, col color.NRGBA) layout.Dimensions {
	size := gtx.Dp(unit.Dp(14))
	thickness := gtx.Dp(unit.Dp(2))

	rotation := float64(elapsed.Milliseconds()) / 800.0 * 2 * math.Pi

	center := image.Pt(size/2, size/2)
	radius := size/2 - thickness

	numDots := 8
	for i := 0; i < numDots; i++ {
		angle := rotation + float64(i)*2*math.Pi/float64(numDots)
		x := center.X + int(float64(radius)*math.Cos(angle))
		y := center.Y + int(float64(radius)*math.Sin(angle))

		alpha := uint8(255 - i*28)
		dotColor := color.NRGBA{R: col.R, G: col.G, B: col.B, A: alpha}

		dotRadius := thickness / 2
		if dotRadius < 1 {
			dotRadius = 1
		}
		dot := clip.Ellipse{
			Min: image.Pt(x-dotRadius, y-dotRadius),
			Max: image.Pt(x+dotRadius, y+dotRadius),
		}
		paint.FillShape(gtx.Ops, dotColor, dot.Op(gtx.Ops))
	}

	return layout.Dimensions{Size: image.Pt(size, size)}
}

// drawWaveformPanel draws the level meter in a panel.
func drawWaveformPanel(gtx layout.Context, samples []float32, cfg Config) layout.Dimensions {
	rr := gtx.Dp(unit.Dp(8))
	rect := clip.RRect{
		Rect: image.Rectangle{Max: image.Pt(gtx.Constraints.Max.X, gtx.Constraints.Max.Y)},
		NE:   rr, NW: rr, SE: rr, SW: rr,
	}
	paint.FillShape(gtx.Ops, cfg.PanelColor, rect.Op(gtx.Ops))

	return layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			// Volume bar
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				gtx.Constraints.Max.X = gtx.Dp(unit.Dp(20))
				gtx.Constraints.Min.X = gtx.Constraints.Max.X
				return drawVolumeBar(gtx, samples, cfg)
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
			// Waveform
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return drawWaveform(gtx, samples, cfg.WaveColor)
			}),
		)
	})
}

// levelOf computes a 0-1 volume level from the most recent samples.
func levelOf(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}

	// Use only last 1024 samples for responsiveness
	start := 0
	if len(samples) > 1024 {
		start = len(samples) - 1024
	}
	subset := samples[start:]

	var sum float64
	for _, s := range subset {
		sum += float64(s) * float64(s)
	}

	rms := float32(math.Sqrt(sum / float64(len(subset))))

	// Typical speech is around 0.1-0.3 RMS
	level := rms * 3
	if level > 1 {
		level = 1
	}
	return level
}

// drawVolumeBar renders vertical volume indicator.
func drawVolumeBar(gtx layout.Context, samples []float32, cfg Config) layout.Dimensions {
	level := levelOf(samples)
	width := gtx.Constraints.Max.X
	height := gtx.Constraints.Max.Y

	rr := gtx.Dp(unit.Dp(4))
	bgRect := clip.RRect{
		Rect: image.Rectangle{Max: image.Pt(width, height)},
		NE:   rr, NW: rr, SE: rr, SW: rr,
	}
	paint.FillShape(gtx.Ops, color.NRGBA{R: 35, G: 35, B: 40, A: 255}, bgRect.Op(gtx.Ops))

	// Active bar (from bottom)
	barHeight := int(level * float32(height))
	if barHeight > 0 {
		barRect := clip.RRect{
			Rect: image.Rectangle{
				Min: image.Pt(2, height-barHeight),
				Max: image.Pt(width-2, height-2),
			},
			NE: rr - 1, NW: rr - 1, SE: rr - 1, SW: rr - 1,
		}
		barColor := cfg.WaveColor
		if level > 0.7 {
			barColor = cfg.VolumeColor
		} else if level > 0.4 {
			barColor = color.NRGBA{R: 255, G: 180, B: 0, A: 255}
		}
		paint.FillShape(gtx.Ops, barColor, barRect.Op(gtx.Ops))
	}

	return layout.Dimensions{Size: image.Pt(width, height)}
}

// drawWaveform renders oscilloscope-style waveform.
func drawWaveform(gtx layout.Context, samples []float32, col color.NRGBA) layout.Dimensions {
	width := float32(gtx.Constraints.Max.X)
	height := float32(gtx.Constraints.Max.Y)
	centerY := height / 2

	centerLine := clip.Rect{
		Min: image.Pt(0, int(centerY)),
		Max: image.Pt(int(width), int(centerY)+1),
	}
	paint.FillShape(gtx.Ops, color.NRGBA{R: 60, G: 60, B: 65, A: 255}, centerLine.Op())

	if len(samples) < 2 {
		return layout.Dimensions{Size: image.Pt(int(width), int(height))}
	}

	// Use only last N samples that fit the width
	displaySamples := samples
	maxSamples := int(width)
	if len(samples) > maxSamples {
		displaySamples = samples[len(samples)-maxSamples:]
	}

	var path clip.Path
	path.Begin(gtx.Ops)

	step := width / float32(len(displaySamples))
	for i, sample := range displaySamples {
		x := float32(i) * step
		y := centerY - (sample * centerY * 0.85)

		if i == 0 {
			path.MoveTo(f32.Pt(x, y))
		} else {
			path.LineTo(f32.Pt(x, y))
		}
	}

	paint.FillShape(gtx.Ops, col, clip.Stroke{
		Path:  path.End(),
		Width: 2,
	}.Op())

	return layout.Dimensions{Size: image.Pt(int(width), int(height))}
}

// drawTranscriptPanel draws the scrolling transcript.
func drawTranscriptPanel(gtx layout.Context, th *material.Theme, list *widget.List, text string, cfg Config) layout.Dimensions {
	rr := gtx.Dp(unit.Dp(10))
	rect := clip.RRect{
		Rect: image.Rectangle{Max: image.Pt(gtx.Constraints.Max.X, gtx.Constraints.Max.Y)},
		NE:   rr, NW: rr, SE: rr, SW: rr,
	}
	paint.FillShape(gtx.Ops, cfg.PanelColor, rect.Op(gtx.Ops))

	return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		if strings.TrimSpace(text) == "" {
			th.Palette.Fg = cfg.TextDimColor
			return material.Label(th, unit.Sp(14), i18n.T("transcript_empty")).Layout(gtx)
		}
		th.Palette.Fg = cfg.TextColor
		return material.List(th, list).Layout(gtx, 1, func(gtx layout.Context, _ int) layout.Dimensions {
			return material.Label(th, unit.Sp(16), strings.TrimSpace(text)).Layout(gtx)
		})
	})
}

// drawActionButton draws a flat button with a centered caption.
func drawActionButton(gtx layout.Context, th *material.Theme, btn *widget.Clickable, bgColor color.NRGBA, text string) layout.Dimensions {
	return btn.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		currentBg := bgColor
		if btn.Hovered() {
			// Darken on hover
			currentBg = color.NRGBA{
				R: uint8(float32(bgColor.R) * 0.85),
				G: uint8(float32(bgColor.G) * 0.85),
				B: uint8(float32(bgColor.B) * 0.85),
				A: bgColor.A,
			}
		}

		macro := op.Record(gtx.Ops)
		dims := layout.Inset{
			Top: unit.Dp(8), Bottom: unit.Dp(8),
			Left: unit.Dp(8), Right: unit.Dp(8),
		}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				th.Palette.Fg = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
				lbl := material.Label(th, unit.Sp(13), text)
				lbl.Font.Weight = font.Medium
				return lbl.Layout(gtx)
			})
		})
		call := macro.Stop()

		rr := gtx.Dp(unit.Dp(8))
		btnRect := clip.RRect{
			Rect: image.Rectangle{Max: image.Pt(gtx.Constraints.Max.X, dims.Size.Y)},
			NE:   rr, NW: rr, SE: rr, SW: rr,
		}
		paint.FillShape(gtx.Ops, currentBg, btnRect.Op(gtx.Ops))

		call.Add(gtx.Ops)
		return layout.Dimensions{Size: image.Pt(gtx.Constraints.Max.X, dims.Size.Y)}
	})
}
