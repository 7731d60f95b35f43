package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/pkg/audio"
)

// Recorder writes the PCM a playback sends to a WAV file. A nil *Recorder
// records nothing.
type Recorder struct {
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	file   *os.File
	enc    *wav.Encoder
	frames int
	failed bool
}

// NewRecorder creates dir if needed and opens a WAV file named after the playback.
func NewRecorder(dir, playbackID string, logger *zap.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("record dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("playback_%s_%s.wav",
		time.Now().Format("20060102_150405"), playbackID))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}
	return &Recorder{
		path:   path,
		logger: logger,
		file:   f,
		enc:    wav.NewEncoder(f, audio.DiscordSampleRate, 16, audio.DiscordChannels, 1),
	}, nil
}

// Path returns the file being written.
func (r *Recorder) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Write appends one s16le frame. The first failure disables the recorder.
func (r *Recorder) Write(frame []byte) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed || r.enc == nil {
		return
	}

	pcm := audio.LEToPCMInt16(frame)
	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{SampleRate: audio.DiscordSampleRate, NumChannels: audio.DiscordChannels},
		SourceBitDepth: 16,
	}
	if err := r.enc.Write(buf); err != nil {
		r.failed = true
		r.logger.Warn("Debug recording failed, disabling", zap.String("file", r.path), zap.Error(err))
		return
	}
	r.frames++
}

// Close finalizes the WAV header and closes the file.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return nil
	}

	encErr := r.enc.Close()
	fileErr := r.file.Close()
	r.enc = nil
	if encErr != nil {
		return fmt.Errorf("finalize wav: %w", encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("close wav: %w", fileErr)
	}

	r.logger.Info("Saved debug recording",
		zap.String("file", r.path),
		zap.Float64("duration_sec", float64(r.frames*audio.FrameDurationMs)/1000))
	return nil
}
