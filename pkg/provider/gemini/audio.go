package gemini

import (
	"encoding/binary"
	"math"
)

// resamplePCM16 converts 16-bit little-endian mono PCM from one sample rate
// to another by linear interpolation. Good enough for speech input; the
// backend's recognizer is tolerant of simple resampling.
func resamplePCM16(pcm []byte, fromRate, toRate int) []byte {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 || len(pcm) < 2 {
		return pcm
	}

	in := make([]int16, len(pcm)/2)
	for i := range in {
		in[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}

	outLen := int(float64(len(in)) * float64(toRate) / float64(fromRate))
	if outLen == 0 {
		return nil
	}

	out := make([]byte, outLen*2)
	step := float64(fromRate) / float64(toRate)
	for i := 0; i < outLen; i++ {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= len(in)-1 {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(in[len(in)-1]))
			continue
		}
		frac := pos - float64(idx)
		sample := float64(in[idx])*(1-frac) + float64(in[idx+1])*frac
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(sample)))
	}
	return out
}

// rmsPCM16 returns the root-mean-square amplitude of a 16-bit little-endian
// mono PCM chunk, in int16 units.
func rmsPCM16(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}
