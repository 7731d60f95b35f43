package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Raikerian/go-discord-dj/internal/device"
)

// LocalDeviceSource captures a microphone or line-in through the transcoder.
type LocalDeviceSource struct {
	device      device.AudioDevice
	sampleRate  int
	bitrateKbps int
	goos        string
	transcoder  Transcoder
}

// NewLocalDeviceSource creates a source for dev. goos selects the capture API.
func NewLocalDeviceSource(dev device.AudioDevice, sampleRate, bitrateKbps int, goos string, t Transcoder) *LocalDeviceSource {
	return &LocalDeviceSource{
		device:      dev,
		sampleRate:  sampleRate,
		bitrateKbps: bitrateKbps,
		goos:        goos,
		transcoder:  t,
	}
}

func (s *LocalDeviceSource) sealed() {}

// Description implements Source.
func (s *LocalDeviceSource) Description() string {
	return "Local Device: " + s.device.Name
}

// Kind implements Source.
func (s *LocalDeviceSource) Kind() Kind {
	return KindLocalDevice
}

// StreamURL implements Source.
func (s *LocalDeviceSource) StreamURL() (string, bool) {
	return "", false
}

// Args returns the transcoder arguments for this device.
func (s *LocalDeviceSource) Args() ([]string, error) {
	format, err := inputFormat(s.goos)
	if err != nil {
		return nil, err
	}
	return []string{
		"-f", format,
		"-i", s.inputName(),
		"-ar", strconv.Itoa(s.sampleRate),
		"-ac", "2",
		"-b:a", strconv.Itoa(s.bitrateKbps) + "k",
	}, nil
}

// Open implements Source.
func (s *LocalDeviceSource) Open(ctx context.Context) (Handle, error) {
	args, err := s.Args()
	if err != nil {
		return nil, connectionError(s, err)
	}
	rc, err := s.transcoder.Start(ctx, args)
	if err != nil {
		return nil, connectionError(s, err)
	}
	return newPCMHandle(rc), nil
}

// Cleanup implements Source. The transcoder owns the device, so there is nothing to release.
func (s *LocalDeviceSource) Cleanup() {}

func (s *LocalDeviceSource) inputName() string {
	id := s.device.ID
	if s.goos != "windows" {
		return id
	}
	id = strings.TrimPrefix(id, device.DShowPrefix)
	if !strings.HasPrefix(id, "audio=") {
		id = "audio=" + id
	}
	return id
}

// inputFormat maps an OS to the ffmpeg capture input format.
func inputFormat(goos string) (string, error) {
	switch goos {
	case "windows":
		return "dshow", nil
	case "linux":
		return "pulse", nil
	case "darwin":
		return "avfoundation", nil
	default:
		return "", fmt.Errorf("%w: %s", device.ErrUnsupportedPlatform, goos)
	}
}
