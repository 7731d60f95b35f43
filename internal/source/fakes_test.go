package source_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/Raikerian/go-discord-dj/internal/device"
	"github.com/Raikerian/go-discord-dj/internal/source"
)

// fakeTranscoder records the args of each Start and serves data from memory.
type fakeTranscoder struct {
	mu    sync.Mutex
	calls [][]string
	data  []byte
	err   error
}

func (f *fakeTranscoder) Start(_ context.Context, args []string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

type fakeResolver struct {
	devices []device.AudioDevice
	err     error
}

func (f *fakeResolver) GetDeviceByIndex(_ context.Context, index int) (*device.AudioDevice, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	for i := range f.devices {
		if f.devices[i].Index == index {
			d := f.devices[i]
			return &d, true, nil
		}
	}
	return nil, false, nil
}

// fakeCapture is an in-memory CaptureBackend. Tests drive audio through emit.
type fakeCapture struct {
	mu       sync.Mutex
	format   source.CaptureFormat
	probeErr error
	startErr error
	onData   func([]byte)
	starts   int
	stops    int
	closes   int
}

func (f *fakeCapture) Probe(int) (source.CaptureFormat, error) {
	if f.probeErr != nil {
		return source.CaptureFormat{}, f.probeErr
	}
	return f.format, nil
}

func (f *fakeCapture) Start(_ int, _ source.CaptureFormat, onData func([]byte)) (source.CaptureStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.starts++
	f.onData = onData
	return &fakeStream{capture: f}, nil
}

func (f *fakeCapture) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeCapture) emit(data []byte) {
	f.mu.Lock()
	cb := f.onData
	f.mu.Unlock()
	if cb != nil {
		cb(data)
	}
}

func (f *fakeCapture) counts() (starts, stops, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops, f.closes
}

type fakeStream struct {
	capture *fakeCapture
}

func (s *fakeStream) Stop() error {
	s.capture.mu.Lock()
	defer s.capture.mu.Unlock()
	s.capture.stops++
	s.capture.onData = nil
	return nil
}

func (s *fakeStream) Close() {}

var errBoom = errors.New("boom")
