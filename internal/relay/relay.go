// Package relay connects the selected audio source to a Discord voice channel.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/metrics"
	"github.com/Raikerian/go-discord-dj/internal/source"
	"github.com/Raikerian/go-discord-dj/internal/stream"
	"github.com/Raikerian/go-discord-dj/pkg/util"
)

var (
	ErrUserNotInVoice   = errors.New("user is not in a voice channel")
	ErrAlreadyConnected = errors.New("already connected to a voice channel")
	ErrNotConnected     = errors.New("not connected to a voice channel")
	ErrAlreadyPlaying   = errors.New("already playing audio")
	ErrNotPlaying       = errors.New("not currently playing audio")
	ErrNoSource         = errors.New("no audio source selected")
)

// JoinError wraps a failed voice connection attempt.
type JoinError struct {
	Err error
}

func (e *JoinError) Error() string {
	return "failed to join voice channel: " + e.Err.Error()
}

func (e *JoinError) Unwrap() error {
	return e.Err
}

// Options tunes a Relay.
type Options struct {
	BitrateKbps int
	// RecordDir enables a WAV recording per playback when set.
	RecordDir string
	// ProbeStreams checks stream URLs serve data before starting the transcoder.
	ProbeStreams bool
	// Prober replaces stream.Probe.
	Prober func(ctx context.Context, url string) error
	// Encoders replaces OpusEncoders.
	Encoders EncoderFactory
	Idle     *util.Debouncer
}

type playback struct {
	id     string
	source source.Source
	cancel context.CancelFunc
	done   chan struct{}
}

// Relay owns the voice connection and the one active Source. Its mutex is
// never held across voice connects, source opens or waits on a playback.
type Relay struct {
	states  VoiceStateLookup
	dialer  VoiceDialer
	opts    Options
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu         sync.Mutex
	conn       VoiceConn
	connecting bool
	starting   bool
	src        source.Source
	playback   *playback

	watchOnce sync.Once
	quit      chan struct{}
	watchDone chan struct{}
}

// New creates a Relay with no source and no connection.
func New(states VoiceStateLookup, dialer VoiceDialer, opts Options, m *metrics.Metrics, logger *zap.Logger) *Relay {
	if opts.Encoders == nil {
		opts.Encoders = OpusEncoders
	}
	if opts.Prober == nil {
		opts.Prober = func(ctx context.Context, url string) error {
			return stream.Probe(ctx, url, stream.WithLogger(logger))
		}
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Relay{
		states:  states,
		dialer:  dialer,
		opts:    opts,
		metrics: m,
		logger:  logger.Named("relay"),
		quit:    make(chan struct{}),
	}
}

// Source returns the selected source, or nil.
func (r *Relay) Source() source.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src
}

// SetSource selects src and cleans up the previous source. It refuses while
// a playback is running so only one source is ever open.
func (r *Relay) SetSource(src source.Source) error {
	r.mu.Lock()
	if r.playback != nil || r.starting {
		r.mu.Unlock()
		return ErrAlreadyPlaying
	}
	old := r.src
	r.src = src
	r.mu.Unlock()

	if old != nil && old != src {
		old.Cleanup()
	}
	if src != nil {
		r.logger.Info("Audio source selected", zap.String("source", src.Description()))
	}
	return nil
}

// IsConnected reports whether the relay holds a voice connection.
func (r *Relay) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// IsPlaying reports whether a playback is running.
func (r *Relay) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playback != nil
}

// Join connects to the voice channel userID is in and returns its ID.
func (r *Relay) Join(ctx context.Context, guildID discord.GuildID, userID discord.UserID) (discord.ChannelID, error) {
	vs, err := r.states.VoiceState(guildID, userID)
	if err != nil || vs == nil || !vs.ChannelID.IsValid() {
		return 0, ErrUserNotInVoice
	}

	r.mu.Lock()
	if r.conn != nil || r.connecting {
		r.mu.Unlock()
		return 0, ErrAlreadyConnected
	}
	r.connecting = true
	r.mu.Unlock()

	conn, err := r.dialer.Join(ctx, vs.ChannelID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.connecting = false
	if err != nil {
		r.logger.Error("Failed to join voice channel", zap.Stringer("channel_id", vs.ChannelID), zap.Error(err))
		return 0, &JoinError{Err: err}
	}
	r.conn = conn
	r.metrics.VoiceConnected.Set(1)
	r.armIdle()
	r.logger.Info("Joined voice channel",
		zap.Stringer("guild_id", guildID),
		zap.Stringer("channel_id", vs.ChannelID))
	return vs.ChannelID, nil
}

// Leave stops any playback and disconnects.
func (r *Relay) Leave(ctx context.Context) error {
	r.mu.Lock()
	conn := r.conn
	if conn == nil {
		r.mu.Unlock()
		return ErrNotConnected
	}
	r.conn = nil
	pb := r.playback
	r.disarmIdle()
	r.mu.Unlock()

	r.metrics.VoiceConnected.Set(0)
	var stopErr error
	if pb != nil {
		stopErr = r.stopPlayback(ctx, pb)
	}
	return errors.Join(stopErr, conn.Leave(ctx))
}

// Play starts streaming the selected source, joining the caller's voice
// channel first when not connected. It returns the source description.
func (r *Relay) Play(ctx context.Context, guildID discord.GuildID, userID discord.UserID) (string, error) {
	r.mu.Lock()
	if r.playback != nil || r.starting {
		r.mu.Unlock()
		return "", ErrAlreadyPlaying
	}
	src := r.src
	if src == nil {
		r.mu.Unlock()
		return "", ErrNoSource
	}
	r.starting = true
	connected := r.conn != nil
	r.mu.Unlock()

	started := false
	defer func() {
		if !started {
			r.mu.Lock()
			r.starting = false
			r.mu.Unlock()
		}
	}()

	if !connected {
		if _, err := r.Join(ctx, guildID, userID); err != nil && !errors.Is(err, ErrAlreadyConnected) {
			return "", err
		}
	}

	if err := r.probe(ctx, src); err != nil {
		r.metrics.PlaybackFailures.WithLabelValues(string(src.Kind())).Inc()
		return "", err
	}

	id := uuid.NewString()
	playCtx, cancel := context.WithCancel(context.Background())
	handle, err := src.Open(playCtx)
	if err != nil {
		cancel()
		r.metrics.PlaybackFailures.WithLabelValues(string(src.Kind())).Inc()
		r.logger.Error("Failed to open source", zap.String("source", src.Description()), zap.Error(err))
		return "", err
	}

	encoder, err := r.opts.Encoders(r.opts.BitrateKbps)
	if err != nil {
		cancel()
		_ = handle.Close()
		return "", &source.SourceConnectionError{Source: src.Description(), Err: err}
	}

	var recorder *Recorder
	if r.opts.RecordDir != "" {
		if recorder, err = NewRecorder(r.opts.RecordDir, id, r.logger); err != nil {
			r.logger.Warn("Debug recording disabled", zap.Error(err))
		}
	}

	r.mu.Lock()
	conn := r.conn
	if conn == nil {
		// Left while the source was opening.
		r.mu.Unlock()
		cancel()
		_ = handle.Close()
		encoder.Close()
		_ = recorder.Close()
		return "", ErrNotConnected
	}
	pb := &playback{id: id, source: src, cancel: cancel, done: make(chan struct{})}
	r.playback = pb
	r.starting = false
	started = true
	r.disarmIdle()
	r.mu.Unlock()

	player := &Player{
		handle:   handle,
		encoder:  encoder,
		conn:     conn,
		recorder: recorder,
		metrics:  r.metrics,
		logger:   r.logger.With(zap.String("playback_id", id)),
	}
	r.metrics.Playbacks.WithLabelValues(string(src.Kind())).Inc()
	r.logger.Info("Playback started",
		zap.String("playback_id", id),
		zap.String("source", src.Description()),
		zap.Stringer("channel_id", conn.ChannelID()))

	go r.run(playCtx, pb, player, recorder)
	return src.Description(), nil
}

func (r *Relay) run(ctx context.Context, pb *playback, player *Player, recorder *Recorder) {
	defer close(pb.done)

	err := player.Run(ctx)
	if closeErr := player.handle.Close(); closeErr != nil {
		r.logger.Debug("Source handle close failed", zap.Error(closeErr))
	}
	player.encoder.Close()
	if recErr := recorder.Close(); recErr != nil {
		r.logger.Warn("Failed to finalize debug recording", zap.Error(recErr))
	}
	pb.cancel()

	if err != nil {
		r.metrics.PlaybackFailures.WithLabelValues(string(pb.source.Kind())).Inc()
		r.logger.Error("Player error", zap.String("playback_id", pb.id), zap.Error(err))
	} else {
		r.logger.Info("Playback finished", zap.String("playback_id", pb.id))
	}

	r.mu.Lock()
	if r.playback == pb {
		r.playback = nil
		if r.conn != nil {
			r.armIdle()
		}
	}
	r.mu.Unlock()
}

// Stop ends the running playback and waits for it to wind down.
func (r *Relay) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.conn == nil {
		r.mu.Unlock()
		return ErrNotConnected
	}
	pb := r.playback
	r.mu.Unlock()
	if pb == nil {
		return ErrNotPlaying
	}

	return r.stopPlayback(ctx, pb)
}

func (r *Relay) stopPlayback(ctx context.Context, pb *playback) error {
	pb.cancel()
	select {
	case <-pb.done:
		return nil
	case <-ctx.Done():
		r.logger.Warn("Timed out waiting for playback to stop", zap.String("playback_id", pb.id))
		return fmt.Errorf("stop playback %s: %w", pb.id, ctx.Err())
	}
}

// probe checks a stream source serves data when probing is enabled.
func (r *Relay) probe(ctx context.Context, src source.Source) error {
	if !r.opts.ProbeStreams {
		return nil
	}
	url, ok := src.StreamURL()
	if !ok {
		return nil
	}
	if err := r.opts.Prober(ctx, url); err != nil {
		r.logger.Warn("Stream probe failed", zap.String("url", url), zap.Error(err))
		return &source.SourceConnectionError{Source: src.Description(), Err: err}
	}
	return nil
}

// Shutdown disconnects from voice, then cleans up the selected source.
func (r *Relay) Shutdown(ctx context.Context) error {
	r.stopWatching()

	var errs []error
	if err := r.Leave(ctx); err != nil && !errors.Is(err, ErrNotConnected) {
		errs = append(errs, err)
	}

	r.mu.Lock()
	src := r.src
	r.src = nil
	r.mu.Unlock()
	if src != nil {
		src.Cleanup()
	}

	if len(errs) > 0 {
		return fmt.Errorf("relay shutdown: %w", errors.Join(errs...))
	}
	r.logger.Info("Relay shut down")
	return nil
}
