package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestMixdownAdaptivePicksLoudestChannel(t *testing.T) {
	// 3 кадра, 4 канала; канал 2 самый громкий
	in := []int16{
		10, -5, 900, 1,
		-10, 5, -800, 2,
		10, -5, 700, 3,
	}
	got := mixdown(in, 4, BeamAdaptive)
	want := []int16{900, -800, 700}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestMixdownFixedAverages(t *testing.T) {
	in := []int16{100, 300, -100, -300, 32767, 32767}
	got := mixdown(in, 2, BeamFixed)
	want := []int16{200, -200, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestMixdownMonoCopies(t *testing.T) {
	in := []int16{1, 2, 3}
	got := mixdown(in, 1, BeamAdaptive)
	got[0] = 42
	if in[0] != 1 {
		t.Error("mixdown aliased its input")
	}
}

func TestGainControl(t *testing.T) {
	t.Run("quiet signal is boosted", func(t *testing.T) {
		g := newGainControl()
		for i := 0; i < 50; i++ {
			buf := []int16{500, -500, 500, -500}
			g.apply(buf)
		}
		if g.gain <= 1 || g.gain > agcMaxGain {
			t.Errorf("gain = %v", g.gain)
		}
	})

	t.Run("silence keeps gain", func(t *testing.T) {
		g := newGainControl()
		buf := []int16{10, -10, 10}
		g.apply(buf)
		if g.gain != 1 {
			t.Errorf("gain = %v", g.gain)
		}
	})

	t.Run("output clipped", func(t *testing.T) {
		g := &gainControl{gain: agcMaxGain}
		buf := []int16{math.MaxInt16, math.MinInt16, 200}
		g.apply(buf)
		if buf[0] != math.MaxInt16 || buf[1] != math.MinInt16 {
			t.Errorf("not clipped: %v", buf)
		}
	})
}

func TestEncodePCM(t *testing.T) {
	out := encodePCM([]int16{1, -2})
	if len(out) != 4 {
		t.Fatalf("len = %d", len(out))
	}
	if int16(binary.LittleEndian.Uint16(out[2:])) != -2 {
		t.Errorf("second sample = %v", out[2:])
	}
}

func TestToFloat32(t *testing.T) {
	out := toFloat32([]int16{16384, -32768})
	if out[0] != 0.5 || out[1] != -1 {
		t.Errorf("out = %v", out)
	}
}
