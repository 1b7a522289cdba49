// Package sound uses a sound card as the relay's microphone and buzzer.
// Capture levels are scaled into the same 12-bit range as an ADC reading so
// the same detection threshold applies to either input backend.
package sound

// SampleRate is used for both capture and playback streams.
const SampleRate = 16000

// ADCMax is the full-scale value returned by the sampler.
const ADCMax = 4095

// MaxDuty is the full-scale duty of the emitter; duty maps linearly to
// square wave amplitude.
const MaxDuty = 1000

// peakLevel returns the absolute peak of buf scaled to [0, ADCMax].
func peakLevel(buf []int16) uint16 {
	var peak int32
	for _, s := range buf {
		v := int32(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return uint16(peak * ADCMax / 32768)
}

// squareWave fills out with a square wave and returns the next phase.
// phase counts samples since the wave started so consecutive buffers join
// without a glitch.
func squareWave(out []int16, phase uint64, freqHz uint32, duty uint32) uint64 {
	if duty > MaxDuty {
		duty = MaxDuty
	}
	amp := int16(int64(32767) * int64(duty) / MaxDuty)
	if duty == 0 || freqHz == 0 {
		for i := range out {
			out[i] = 0
		}
		return phase + uint64(len(out))
	}

	for i := range out {
		// position within the period, in units of 1/(2*freq) of a second
		pos := (phase + uint64(i)) * uint64(freqHz) * 2 / SampleRate
		if pos%2 == 0 {
			out[i] = amp
		} else {
			out[i] = -amp
		}
	}
	return phase + uint64(len(out))
}
