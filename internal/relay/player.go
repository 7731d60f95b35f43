package relay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/metrics"
	"github.com/Raikerian/go-discord-dj/internal/source"
	"github.com/Raikerian/go-discord-dj/pkg/audio"
)

// trailingSilenceFrames are sent when playback ends so clients do not
// interpolate the last packet.
const trailingSilenceFrames = 5

// FrameEncoder turns one PCM frame into an Opus packet.
type FrameEncoder interface {
	Encode(frame []byte) ([]byte, error)
	Close()
}

// EncoderFactory creates a FrameEncoder for a bitrate in kbps.
type EncoderFactory func(bitrateKbps int) (FrameEncoder, error)

// OpusEncoders is the EncoderFactory backed by libopus.
func OpusEncoders(bitrateKbps int) (FrameEncoder, error) {
	return audio.NewEncoder(bitrateKbps)
}

// Player pumps frames from a source handle into a voice connection.
type Player struct {
	handle   source.Handle
	encoder  FrameEncoder
	conn     VoiceConn
	recorder *Recorder
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// Run plays until ctx is cancelled or the handle reaches io.EOF, both of
// which are a normal stop. Empty frames become Opus silence.
func (p *Player) Run(ctx context.Context) error {
	defer p.sendSilence()

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := p.handle.ReadFrame()
		if errors.Is(err, io.EOF) {
			p.logger.Info("Source reached end of stream")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		packet := audio.OpusSilence
		if len(frame) == 0 {
			p.metrics.SilenceFrames.Inc()
		} else {
			if packet, err = p.encoder.Encode(frame); err != nil {
				return err
			}
			p.recorder.Write(frame)
		}

		if _, err := p.conn.Write(packet); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("write voice packet: %w", err)
		}
		p.metrics.FramesSent.Inc()
	}
}

func (p *Player) sendSilence() {
	for range trailingSilenceFrames {
		if _, err := p.conn.Write(audio.OpusSilence); err != nil {
			p.logger.Debug("Failed to send trailing silence", zap.Error(err))
			return
		}
	}
}
