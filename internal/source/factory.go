package source

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/config"
	"github.com/Raikerian/go-discord-dj/internal/device"
)

// Source type tags accepted by CreateFromConfig.
const (
	TypeLocal   = "local"
	TypeIcecast = "icecast"
	TypeURL     = "url"
)

const (
	defaultBitrateKbps  = 128
	defaultSampleRateHz = 48000
)

// DeviceResolver looks up an enumerated device by its index.
type DeviceResolver interface {
	GetDeviceByIndex(ctx context.Context, index int) (*device.AudioDevice, bool, error)
}

// Options is the loosely typed configuration for CreateFromConfig. Which
// fields are required depends on the source type.
type Options struct {
	DeviceIndex  *int
	URL          string
	BitrateKbps  int
	SampleRateHz int
}

// Factory builds sources. Nothing is opened at creation time.
type Factory struct {
	devices    DeviceResolver
	transcoder Transcoder
	capture    func() CaptureBackend
	goos       string
	logger     *zap.Logger
}

// FactoryParams holds dependencies for NewFactory.
type FactoryParams struct {
	fx.In

	Devices    DeviceResolver
	Transcoder Transcoder
	Logger     *zap.Logger
}

// NewFactory creates a Factory for the running OS with native loopback capture.
func NewFactory(params FactoryParams) *Factory {
	return NewFactoryFor(runtime.GOOS, params.Devices, params.Transcoder,
		func() CaptureBackend { return NewMalgoCapture() }, params.Logger)
}

// NewFactoryFor creates a Factory with explicit platform collaborators.
func NewFactoryFor(goos string, devices DeviceResolver, t Transcoder, capture func() CaptureBackend, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		devices:    devices,
		transcoder: t,
		capture:    capture,
		goos:       goos,
		logger:     logger.Named("source"),
	}
}

// CreateFromConfig builds the source variant for sourceType. The type tag is
// matched case-insensitively.
func (f *Factory) CreateFromConfig(ctx context.Context, sourceType string, opts Options) (Source, error) {
	bitrate := opts.BitrateKbps
	if bitrate <= 0 {
		bitrate = defaultBitrateKbps
	}
	rate := opts.SampleRateHz
	if rate <= 0 {
		rate = defaultSampleRateHz
	}

	switch strings.ToLower(strings.TrimSpace(sourceType)) {
	case TypeLocal:
		if opts.DeviceIndex == nil {
			return nil, fmt.Errorf("%w: device index is required for local sources", ErrInvalidConfiguration)
		}
		return f.createLocal(ctx, *opts.DeviceIndex, rate, bitrate)
	case TypeIcecast:
		if opts.URL == "" {
			return nil, fmt.Errorf("%w: url is required for icecast sources", ErrInvalidConfiguration)
		}
		f.logger.Info("Created Icecast source", zap.String("url", opts.URL))
		return NewIcecastSource(opts.URL, bitrate, f.transcoder), nil
	case TypeURL:
		if opts.URL == "" {
			return nil, fmt.Errorf("%w: url is required for url sources", ErrInvalidConfiguration)
		}
		f.logger.Info("Created URL source", zap.String("url", opts.URL))
		return NewURLSource(opts.URL, bitrate, f.transcoder), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSourceType, sourceType)
	}
}

// FromConfig builds a source from the application's source selection.
func (f *Factory) FromConfig(ctx context.Context, cfg config.AudioSourceConfig) (Source, error) {
	opts := Options{
		URL:          cfg.URL,
		BitrateKbps:  cfg.BitrateKbps,
		SampleRateHz: cfg.SampleRateHz,
	}
	if cfg.DeviceIndex > 0 {
		idx := cfg.DeviceIndex
		opts.DeviceIndex = &idx
	}
	return f.CreateFromConfig(ctx, cfg.Type, opts)
}

func (f *Factory) createLocal(ctx context.Context, index, rate, bitrate int) (Source, error) {
	dev, ok, err := f.devices.GetDeviceByIndex(ctx, index)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no device with index %d", ErrDeviceNotFound, index)
	}

	if dev.IsLoopback() {
		sub, err := strconv.Atoi(strings.TrimPrefix(dev.ID, device.LoopbackPrefix))
		if err != nil {
			return nil, fmt.Errorf("%w: malformed loopback id %q", ErrInvalidConfiguration, dev.ID)
		}
		f.logger.Info("Created loopback source", zap.String("device", dev.Name), zap.Int("endpoint", sub))
		return NewLoopbackSource(sub, dev.Name, bitrate, f.capture(), f.logger), nil
	}

	f.logger.Info("Created local device source", zap.String("device", dev.Name), zap.String("id", dev.ID))
	return NewLocalDeviceSource(*dev, rate, bitrate, f.goos, f.transcoder), nil
}
