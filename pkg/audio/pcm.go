package audio

import (
	"encoding/binary"
)

// PCMInt16ToLE converts int16 samples to raw little-endian bytes.
func PCMInt16ToLE(samples []int16) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// LEToPCMInt16 converts raw little-endian bytes back to int16 samples.
// A trailing odd byte is ignored.
func LEToPCMInt16(b []byte) []int16 {
	out := make([]int16, len(b)/BytesPerSample)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

// MonoToStereo duplicates every mono sample into an L/R pair.
func MonoToStereo(m []int16) []int16 {
	dst := make([]int16, len(m)*2)
	for i, v := range m {
		dst[2*i], dst[2*i+1] = v, v
	}
	return dst
}

// Resample converts interleaved samples with the given channel count from
// srcRate to dstRate using linear interpolation. The input is returned
// unchanged when the rates match.
func Resample(src []int16, channels, srcRate, dstRate int) []int16 {
	if channels <= 0 || srcRate <= 0 || dstRate <= 0 || srcRate == dstRate {
		return src
	}
	srcFrames := len(src) / channels
	if srcFrames == 0 {
		return nil
	}
	dstFrames := int(int64(srcFrames) * int64(dstRate) / int64(srcRate))
	dst := make([]int16, dstFrames*channels)
	ratio := float64(srcRate) / float64(dstRate)

	for i := range dstFrames {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)
		next := idx + 1
		if next >= srcFrames {
			next = srcFrames - 1
		}
		for c := range channels {
			s0 := float64(src[idx*channels+c])
			s1 := float64(src[next*channels+c])
			dst[i*channels+c] = int16(s0*(1-frac) + s1*frac)
		}
	}
	return dst
}

// ToDiscordFrame converts a block of captured samples into 48 kHz stereo:
// resample first, then upmix mono. Only mono and stereo input is supported.
func ToDiscordFrame(src []int16, channels, rate int) []int16 {
	pcm := Resample(src, channels, rate, DiscordSampleRate)
	switch channels {
	case 1:
		pcm = MonoToStereo(pcm)
	case DiscordChannels:
	default:
		// Keep the first two channels.
		frames := len(pcm) / channels
		out := make([]int16, frames*DiscordChannels)
		for i := range frames {
			out[2*i] = pcm[i*channels]
			out[2*i+1] = pcm[i*channels+1]
		}
		pcm = out
	}
	return pcm
}

// FitFrame pads with silence or truncates pcm to exactly one Discord frame.
func FitFrame(pcm []int16) []int16 {
	want := DiscordFrameSize * DiscordChannels
	if len(pcm) == want {
		return pcm
	}
	out := make([]int16, want)
	copy(out, pcm)
	return out
}
