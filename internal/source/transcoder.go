package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/smallnest/ringbuffer"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/config"
	"github.com/Raikerian/go-discord-dj/pkg/audio"
)

// Transcoder starts an external process that decodes input into PCM.
// args carry the input side and encoder options; the implementation appends
// the raw PCM output specification. Closing the returned reader stops the process.
type Transcoder interface {
	Start(ctx context.Context, args []string) (io.ReadCloser, error)
}

// pcmOutputArgs makes the transcoder write 48 kHz stereo s16le to stdout.
var pcmOutputArgs = []string{
	"-f", "s16le",
	"-ar", "48000",
	"-ac", "2",
	"pipe:1",
}

const stderrTailBytes = 2048

// FFmpeg runs the ffmpeg binary.
type FFmpeg struct {
	path   string
	logger *zap.Logger
}

// NewFFmpeg creates an ffmpeg transcoder from config.
func NewFFmpeg(cfg *config.Config, logger *zap.Logger) *FFmpeg {
	path := "ffmpeg"
	if cfg != nil && cfg.Audio.FFmpegPath != "" {
		path = cfg.Audio.FFmpegPath
	}
	return &FFmpeg{path: path, logger: logger.Named("ffmpeg")}
}

// CommandLine returns the full argument list passed to ffmpeg for args.
func CommandLine(args []string) []string {
	full := []string{"-hide_banner", "-nostdin", "-loglevel", "error"}
	full = append(full, args...)
	return append(full, pcmOutputArgs...)
}

// Start implements Transcoder.
func (f *FFmpeg) Start(ctx context.Context, args []string) (io.ReadCloser, error) {
	full := CommandLine(args)
	cmd := exec.CommandContext(ctx, f.path, full...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	tail := newStderrTail(stderrTailBytes)
	cmd.Stderr = tail

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", f.path, err)
	}

	f.logger.Debug("Started transcoder",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("args", strings.Join(full, " ")))

	return &ffmpegProcess{cmd: cmd, stdout: stdout, stderr: tail, logger: f.logger}, nil
}

type ffmpegProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *stderrTail
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

func (p *ffmpegProcess) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if errors.Is(err, io.EOF) {
		if msg := p.stderr.String(); msg != "" {
			p.logger.Warn("Transcoder ended", zap.String("stderr", msg))
		}
	}
	return n, err
}

func (p *ffmpegProcess) Close() error {
	p.closeOnce.Do(func() {
		_ = p.cmd.Process.Kill()
		err := p.cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			p.closeErr = err
		}
		p.logger.Debug("Stopped transcoder", zap.Int("pid", p.cmd.Process.Pid))
	})
	return p.closeErr
}

// stderrTail keeps the most recent bytes ffmpeg wrote to stderr.
type stderrTail struct {
	mu   sync.Mutex
	size int
	buf  *ringbuffer.RingBuffer
}

func newStderrTail(size int) *stderrTail {
	return &stderrTail{size: size, buf: ringbuffer.New(size)}
}

func (t *stderrTail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p)
	if n > t.size {
		p = p[n-t.size:]
	}
	if over := len(p) - t.buf.Free(); over > 0 {
		_, _ = t.buf.Read(make([]byte, over))
	}
	_, _ = t.buf.Write(p)
	return n, nil
}

func (t *stderrTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := make([]byte, t.buf.Length())
	n, _ := t.buf.Read(data)
	data = data[:n]
	_, _ = t.buf.Write(data)
	return strings.TrimSpace(string(data))
}

// pcmHandle reads fixed-size frames from a transcoder's stdout.
type pcmHandle struct {
	rc  io.ReadCloser
	eof bool
}

func newPCMHandle(rc io.ReadCloser) *pcmHandle {
	return &pcmHandle{rc: rc}
}

func (h *pcmHandle) ReadFrame() ([]byte, error) {
	if h.eof {
		return nil, io.EOF
	}
	frame := make([]byte, audio.FrameBytes)
	n, err := io.ReadFull(h.rc, frame)
	switch {
	case err == nil:
		return frame, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		// Final partial frame, padded with silence.
		h.eof = true
		clear(frame[n:])
		return frame, nil
	case errors.Is(err, io.EOF):
		h.eof = true
		return nil, io.EOF
	default:
		return nil, err
	}
}

func (h *pcmHandle) Close() error {
	return h.rc.Close()
}
