package device

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/config"
)

// Enumerator lists capture devices by shelling out to platform tools.
type Enumerator struct {
	goos     string
	ffmpeg   string
	runner   Runner
	loopback LoopbackLister
	logger   *zap.Logger
}

// EnumeratorParams holds dependencies for NewEnumerator.
type EnumeratorParams struct {
	fx.In

	Cfg      *config.Config
	Runner   Runner
	Loopback LoopbackLister
	Logger   *zap.Logger
}

// NewEnumerator creates an Enumerator for the running OS.
func NewEnumerator(params EnumeratorParams) *Enumerator {
	ffmpeg := "ffmpeg"
	if params.Cfg != nil && params.Cfg.Audio.FFmpegPath != "" {
		ffmpeg = params.Cfg.Audio.FFmpegPath
	}
	return NewEnumeratorFor(runtime.GOOS, ffmpeg, params.Runner, params.Loopback, params.Logger)
}

// NewEnumeratorFor creates an Enumerator for an explicit GOOS value.
func NewEnumeratorFor(goos, ffmpeg string, runner Runner, loopback LoopbackLister, logger *zap.Logger) *Enumerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enumerator{
		goos:     goos,
		ffmpeg:   ffmpeg,
		runner:   runner,
		loopback: loopback,
		logger:   logger.Named("device"),
	}
}

// EnumerateDevices returns the capture devices currently visible on the host,
// indexed from 1.
func (e *Enumerator) EnumerateDevices(ctx context.Context) ([]AudioDevice, error) {
	var (
		devices []AudioDevice
		err     error
	)
	switch e.goos {
	case "windows":
		devices, err = e.enumerateWindows(ctx)
	case "linux":
		devices, err = e.enumerateLinux(ctx)
	case "darwin":
		devices, err = e.enumerateDarwin(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, e.goos)
	}
	if err != nil {
		return nil, err
	}

	if len(devices) == 0 {
		e.logger.Warn("No audio devices found", zap.String("os", e.goos))
	} else {
		e.logger.Debug("Enumerated audio devices", zap.String("os", e.goos), zap.Int("count", len(devices)))
	}
	return devices, nil
}

// GetDeviceByIndex re-enumerates and returns the device with the given index.
// The index mapping may change between calls if hardware changed.
func (e *Enumerator) GetDeviceByIndex(ctx context.Context, index int) (*AudioDevice, bool, error) {
	devices, err := e.EnumerateDevices(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range devices {
		if devices[i].Index == index {
			return &devices[i], true, nil
		}
	}
	return nil, false, nil
}

func (e *Enumerator) enumerateWindows(ctx context.Context) ([]AudioDevice, error) {
	var ix indexer

	if e.loopback != nil {
		endpoints, err := e.loopback.ListLoopback(ctx)
		if err != nil {
			e.logger.Warn("Failed to enumerate loopback devices", zap.Error(err))
		}
		for _, ep := range endpoints {
			ix.add(loopbackDisplayName(ep.Name), LoopbackPrefix+strconv.Itoa(ep.Index), KindOutput)
			ix.devices[len(ix.devices)-1].Default = ep.IsDefault
		}
		e.logger.Info("Found loopback devices", zap.Int("count", len(endpoints)))
	}

	_, stderr, err := e.runner.Run(ctx, e.ffmpeg, "-hide_banner", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
	switch {
	case errors.Is(err, ErrToolNotFound):
		return nil, fmt.Errorf("%w: ffmpeg is required to list DirectShow devices: %w", ErrDeviceEnumeration, err)
	case errors.Is(err, ErrToolTimeout):
		e.logger.Warn("DirectShow device enumeration timed out", zap.Error(err))
		return ix.devices, nil
	case err != nil:
		e.logger.Error("Failed to enumerate DirectShow devices", zap.Error(err))
		return ix.devices, nil
	}

	for _, name := range parseDShow(string(stderr)) {
		id := DShowPrefix + "audio=" + name
		if isStereoMix(name) {
			ix.add(name+" [System Audio]", id, KindOutput)
		} else {
			ix.add(name+" [Microphone]", id, KindInput)
		}
	}
	return ix.devices, nil
}

func (e *Enumerator) enumerateLinux(ctx context.Context) ([]AudioDevice, error) {
	var ix indexer

	stdout, stderr, err := e.runner.Run(ctx, e.ffmpeg, "-hide_banner", "-sources", "pulse")
	switch {
	case errors.Is(err, ErrToolNotFound):
		return nil, fmt.Errorf("%w: ffmpeg is required to list PulseAudio sources: %w", ErrDeviceEnumeration, err)
	case err != nil:
		e.logger.Warn("PulseAudio source listing failed, falling back to ALSA", zap.Error(err))
	default:
		for _, src := range parsePulseSources(string(stdout) + "\n" + string(stderr)) {
			name := src.ID
			if src.Description != "" {
				name = src.Description
			}
			ix.add(name, src.ID, KindInput)
		}
	}
	if len(ix.devices) > 0 {
		return ix.devices, nil
	}

	stdout, _, err = e.runner.Run(ctx, "arecord", "-L")
	if err != nil {
		return nil, fmt.Errorf("%w: arecord: %w", ErrDeviceEnumeration, err)
	}
	for _, src := range parseArecord(string(stdout)) {
		name := src.ID
		if src.Description != "" {
			name = src.Description + " (" + src.ID + ")"
		}
		ix.add(name, src.ID, KindInput)
	}
	return ix.devices, nil
}

func (e *Enumerator) enumerateDarwin(ctx context.Context) ([]AudioDevice, error) {
	var ix indexer

	_, stderr, err := e.runner.Run(ctx, e.ffmpeg, "-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "")
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg avfoundation: %w", ErrDeviceEnumeration, err)
	}
	for _, d := range parseAVFoundation(string(stderr)) {
		ix.add(d.Name, ":"+strconv.Itoa(d.Number), KindInput)
	}
	return ix.devices, nil
}
