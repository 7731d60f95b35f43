package audio

// Format constants for the PCM that flows from a source to the voice encoder.
const (
	DiscordSampleRate = 48_000 // Hz
	DiscordChannels   = 2      // interleaved stereo
	DiscordFrameSize  = 960    // samples per channel (20 ms)

	// BytesPerSample is the width of one s16le sample.
	BytesPerSample = 2

	// FrameBytes is one 20 ms stereo s16le frame at 48 kHz.
	FrameBytes = DiscordFrameSize * DiscordChannels * BytesPerSample // 3840

	// FrameDurationMs is the duration of one voice frame.
	FrameDurationMs = 20
)

// SamplesPerFrame returns how many samples per channel a 20 ms frame holds at rate.
func SamplesPerFrame(rate int) int {
	return rate * FrameDurationMs / 1000
}
