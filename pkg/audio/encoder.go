package audio

import (
	"errors"
	"fmt"
	"sync"

	"layeh.com/gopus"
)

// OpusSilence is the canonical Opus silence frame Discord expects after a
// transmission ends.
var OpusSilence = []byte{0xF8, 0xFF, 0xFE}

// ErrEncoderClosed is returned by Encode after Close.
var ErrEncoderClosed = errors.New("opus encoder closed")

// Encoder turns 20 ms 48 kHz stereo PCM frames into Discord-ready Opus packets.
type Encoder struct {
	mu     sync.Mutex
	enc    *gopus.Encoder
	closed bool
}

// NewEncoder creates an Opus encoder tuned for music at the given bitrate in kbps.
func NewEncoder(bitrateKbps int) (*Encoder, error) {
	enc, err := gopus.NewEncoder(DiscordSampleRate, DiscordChannels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}
	if bitrateKbps > 0 {
		enc.SetBitrate(bitrateKbps * 1000)
	}

	return &Encoder{enc: enc}, nil
}

// Encode encodes exactly one s16le frame of FrameBytes bytes.
func (e *Encoder) Encode(frame []byte) ([]byte, error) {
	if len(frame) != FrameBytes {
		return nil, fmt.Errorf("need %d bytes, got %d", FrameBytes, len(frame))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEncoderClosed
	}

	opus, err := e.enc.Encode(LEToPCMInt16(frame), DiscordFrameSize, FrameBytes)
	if err != nil {
		return nil, fmt.Errorf("opus encode: %w", err)
	}
	return opus, nil
}

// Close marks the encoder unusable. gopus frees its state with a finalizer.
func (e *Encoder) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}
