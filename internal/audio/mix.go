package audio

import (
	"encoding/binary"
	"math"
)

// mixdown сводит чередующиеся каналы в моно.
// Адаптивный луч берёт самый громкий канал буфера, фиксированный усредняет.
func mixdown(interleaved []int16, channels int, mode BeamMode) []int16 {
	if channels <= 1 {
		out := make([]int16, len(interleaved))
		copy(out, interleaved)
		return out
	}

	frames := len(interleaved) / channels
	out := make([]int16, frames)

	if mode == BeamAdaptive {
		best := loudestChannel(interleaved, channels)
		for i := 0; i < frames; i++ {
			out[i] = interleaved[i*channels+best]
		}
		return out
	}

	for i := 0; i < frames; i++ {
		var sum int32
		for c := 0; c < channels; c++ {
			sum += int32(interleaved[i*channels+c])
		}
		out[i] = int16(sum / int32(channels))
	}
	return out
}

func loudestChannel(interleaved []int16, channels int) int {
	energy := make([]float64, channels)
	for i, s := range interleaved {
		v := float64(s)
		energy[i%channels] += v * v
	}
	best := 0
	for c := 1; c < channels; c++ {
		if energy[c] > energy[best] {
			best = c
		}
	}
	return best
}

const (
	agcTarget     = 3000.0 // Целевой RMS
	agcNoiseFloor = 100.0  // Тишину не усиливаем
	agcMaxGain    = 8.0
	agcMinGain    = 0.25
	agcSmoothing  = 0.1
)

// gainControl - простая АРУ со сглаживанием усиления между буферами.
type gainControl struct {
	gain float64
}

func newGainControl() *gainControl {
	return &gainControl{gain: 1}
}

func (g *gainControl) apply(samples []int16) {
	level := rms(samples)
	if level >= agcNoiseFloor {
		desired := math.Max(agcMinGain, math.Min(agcMaxGain, agcTarget/level))
		g.gain += (desired - g.gain) * agcSmoothing
	}
	for i, s := range samples {
		v := float64(s) * g.gain
		switch {
		case v > math.MaxInt16:
			v = math.MaxInt16
		case v < math.MinInt16:
			v = math.MinInt16
		}
		samples[i] = int16(v)
	}
}

func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// encodePCM кодирует сэмплы в PCM16 LE.
func encodePCM(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// toFloat32 нормализует сэмплы в [-1, 1] для индикатора уровня.
func toFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}
