package source

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// CaptureFormat is the native format of a capture endpoint.
type CaptureFormat struct {
	SampleRate int
	Channels   int
}

// CaptureStream is a running native capture.
type CaptureStream interface {
	Stop() error
	Close()
}

// CaptureBackend opens loopback captures on render endpoints. A backend is
// owned by exactly one LoopbackSource.
type CaptureBackend interface {
	Probe(index int) (CaptureFormat, error)
	Start(index int, format CaptureFormat, onData func([]byte)) (CaptureStream, error)
	// Close releases the library context. Probe or Start may re-acquire it.
	Close() error
}

// MalgoCapture captures WASAPI loopback audio through miniaudio.
type MalgoCapture struct {
	mu   sync.Mutex
	mctx *malgo.AllocatedContext
}

// NewMalgoCapture returns a backend with no context allocated yet.
func NewMalgoCapture() *MalgoCapture {
	return &MalgoCapture{}
}

func (m *MalgoCapture) context() (*malgo.AllocatedContext, error) {
	if m.mctx != nil {
		return m.mctx, nil
	}
	mctx, err := malgo.InitContext([]malgo.Backend{malgo.BackendWasapi}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init wasapi context: %w", err)
	}
	m.mctx = mctx
	return mctx, nil
}

func (m *MalgoCapture) endpoint(index int) (malgo.DeviceInfo, error) {
	mctx, err := m.context()
	if err != nil {
		return malgo.DeviceInfo{}, err
	}
	infos, err := mctx.Devices(malgo.Playback)
	if err != nil {
		return malgo.DeviceInfo{}, fmt.Errorf("list playback devices: %w", err)
	}
	if index < 0 || index >= len(infos) {
		return malgo.DeviceInfo{}, fmt.Errorf("loopback endpoint %d: %w", index, ErrDeviceNotFound)
	}
	return infos[index], nil
}

// Probe implements CaptureBackend.
func (m *MalgoCapture) Probe(index int) (CaptureFormat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, err := m.endpoint(index)
	if err != nil {
		return CaptureFormat{}, err
	}
	full, err := m.mctx.DeviceInfo(malgo.Playback, info.ID, malgo.Shared)
	if err != nil {
		return CaptureFormat{}, fmt.Errorf("device info: %w", err)
	}
	for _, f := range full.Formats {
		if f.SampleRate > 0 && f.Channels > 0 {
			return CaptureFormat{SampleRate: int(f.SampleRate), Channels: int(f.Channels)}, nil
		}
	}
	return CaptureFormat{}, errors.New("device reports no native format")
}

// Start implements CaptureBackend.
func (m *MalgoCapture) Start(index int, format CaptureFormat, onData func([]byte)) (CaptureStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, err := m.endpoint(index)
	if err != nil {
		return nil, err
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Loopback)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = uint32(format.Channels)
	cfg.Capture.DeviceID = info.ID.Pointer()
	cfg.SampleRate = uint32(format.SampleRate)

	dev, err := malgo.InitDevice(m.mctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			onData(input)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init loopback device: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("start loopback device: %w", err)
	}
	return &malgoStream{dev: dev}, nil
}

// Close implements CaptureBackend.
func (m *MalgoCapture) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mctx == nil {
		return nil
	}
	err := m.mctx.Uninit()
	m.mctx.Free()
	m.mctx = nil
	return err
}

type malgoStream struct {
	dev *malgo.Device
}

func (s *malgoStream) Stop() error {
	if !s.dev.IsStarted() {
		return nil
	}
	return s.dev.Stop()
}

func (s *malgoStream) Close() {
	s.dev.Uninit()
}
