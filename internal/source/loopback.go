package source

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smallnest/ringbuffer"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/pkg/audio"
)

const (
	// Fallback when the endpoint cannot be probed.
	defaultLoopbackRate     = 48000
	defaultLoopbackChannels = 2

	// loopbackBufferFrames is how much captured audio is kept before the oldest is dropped.
	loopbackBufferFrames = 25
	// loopbackReadTimeout bounds how long ReadFrame waits for the capture callback.
	loopbackReadTimeout = 40 * time.Millisecond
)

var errCaptureInactive = errors.New("capture not running")

// LoopbackSource captures the system audio output natively. It is the only
// variant that owns a live resource: the capture stream and its library
// context belong to it exclusively.
type LoopbackSource struct {
	index       int
	name        string
	format      CaptureFormat
	bitrateKbps int
	backend     CaptureBackend
	logger      *zap.Logger

	mu      sync.Mutex
	stream  CaptureStream
	buf     *ringbuffer.RingBuffer
	notify  chan struct{}
	handle  *loopbackHandle
	cleaned bool
}

// NewLoopbackSource probes the endpoint's native format. A failed probe falls
// back to 48 kHz stereo.
func NewLoopbackSource(index int, name string, bitrateKbps int, backend CaptureBackend, logger *zap.Logger) *LoopbackSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	format, err := backend.Probe(index)
	if err != nil {
		logger.Warn("Failed to probe loopback device, assuming 48 kHz stereo",
			zap.Int("index", index), zap.String("device", name), zap.Error(err))
		format = CaptureFormat{SampleRate: defaultLoopbackRate, Channels: defaultLoopbackChannels}
	}
	return &LoopbackSource{
		index:       index,
		name:        name,
		format:      format,
		bitrateKbps: bitrateKbps,
		backend:     backend,
		logger:      logger,
	}
}

func (s *LoopbackSource) sealed() {}

// Description implements Source.
func (s *LoopbackSource) Description() string {
	return "System Audio: " + s.name
}

// Kind implements Source.
func (s *LoopbackSource) Kind() Kind {
	return KindLoopback
}

// StreamURL implements Source.
func (s *LoopbackSource) StreamURL() (string, bool) {
	return "", false
}

// Format returns the probed native capture format.
func (s *LoopbackSource) Format() CaptureFormat {
	return s.format
}

// frameBytes is the size of one 20 ms block in the native format.
func (s *LoopbackSource) frameBytes() int {
	return audio.SamplesPerFrame(s.format.SampleRate) * s.format.Channels * audio.BytesPerSample
}

// Open implements Source. Opening an already open source returns the live handle.
func (s *LoopbackSource) Open(_ context.Context) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cleaned {
		return nil, connectionError(s, ErrSourceClosed)
	}
	if s.handle != nil {
		return s.handle, nil
	}

	buf := ringbuffer.New(s.frameBytes() * loopbackBufferFrames)
	notify := make(chan struct{}, 1)

	stream, err := s.backend.Start(s.index, s.format, func(data []byte) {
		s.push(buf, notify, data)
	})
	if err != nil {
		return nil, connectionError(s, err)
	}

	s.stream = stream
	s.buf = buf
	s.notify = notify
	s.handle = &loopbackHandle{src: s}
	s.logger.Info("Loopback capture started",
		zap.String("device", s.name),
		zap.Int("sample_rate", s.format.SampleRate),
		zap.Int("channels", s.format.Channels))
	return s.handle, nil
}

// push runs on the capture callback. When the buffer is full the oldest
// audio is dropped so the relay stays live.
func (s *LoopbackSource) push(buf *ringbuffer.RingBuffer, notify chan struct{}, data []byte) {
	if len(data) == 0 {
		return
	}
	if over := len(data) - buf.Free(); over > 0 {
		_, _ = buf.Read(make([]byte, over))
	}
	_, _ = buf.Write(data)

	select {
	case notify <- struct{}{}:
	default:
	}
}

// read returns one converted frame or an error when no full block is available.
func (s *LoopbackSource) read(timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	buf, notify := s.buf, s.notify
	s.mu.Unlock()
	if buf == nil {
		return nil, errCaptureInactive
	}

	need := s.frameBytes()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for buf.Length() < need {
		select {
		case <-notify:
		case <-deadline.C:
			return nil, errCaptureInactive
		}
	}

	block := make([]byte, need)
	if _, err := buf.Read(block); err != nil {
		return nil, err
	}

	samples := audio.ToDiscordFrame(audio.LEToPCMInt16(block), s.format.Channels, s.format.SampleRate)
	return audio.PCMInt16ToLE(audio.FitFrame(samples)), nil
}

// stopStream stops and releases the capture stream. Caller holds s.mu.
func (s *LoopbackSource) stopStream() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Stop(); err != nil {
		s.logger.Warn("Failed to stop loopback capture", zap.Error(err))
	}
	s.stream.Close()
	s.stream = nil
	s.buf = nil
	s.handle = nil
}

// Cleanup implements Source. It is safe before Open and on repeated calls.
func (s *LoopbackSource) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cleaned {
		return
	}
	s.cleaned = true
	s.stopStream()
	if err := s.backend.Close(); err != nil {
		s.logger.Warn("Failed to release capture context", zap.Error(err))
	}
}

type loopbackHandle struct {
	src *LoopbackSource
}

// ReadFrame returns an empty frame on any capture error so the caller keeps
// its pacing.
func (h *loopbackHandle) ReadFrame() ([]byte, error) {
	frame, err := h.src.read(loopbackReadTimeout)
	if err != nil {
		return []byte{}, nil
	}
	return frame, nil
}

// Close stops the capture stream but keeps the library context for a later Open.
func (h *loopbackHandle) Close() error {
	h.src.mu.Lock()
	defer h.src.mu.Unlock()
	if h.src.handle == h {
		h.src.stopStream()
	}
	return nil
}
