// Package device discovers audio capture endpoints on the host.
package device

import (
	"errors"
)

// Kind classifies a capture endpoint.
type Kind string

const (
	// KindInput is a microphone or line-in style device.
	KindInput Kind = "input"
	// KindOutput marks a loopback capture of the system's audio output, not a playback sink.
	KindOutput Kind = "output"
)

// Device ID prefixes understood by the source factory.
const (
	LoopbackPrefix = "wasapi:"
	DShowPrefix    = "dshow:"
)

var (
	// ErrDeviceEnumeration is returned when the platform tooling needed to list devices is unavailable.
	ErrDeviceEnumeration = errors.New("device enumeration failed")
	// ErrUnsupportedPlatform is returned on operating systems without a capture path.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// AudioDevice is one discovered capture endpoint. Index is assigned
// sequentially from 1 within a single enumeration and is not stable across calls.
type AudioDevice struct {
	Index int    `yaml:"index"`
	Name  string `yaml:"name"`
	ID    string `yaml:"id"`
	Kind  Kind   `yaml:"kind"`
	// Default marks the system's default output endpoint.
	Default bool `yaml:"default,omitempty"`
}

// IsLoopback reports whether the device is captured through the native loopback path.
func (d AudioDevice) IsLoopback() bool {
	return len(d.ID) > len(LoopbackPrefix) && d.ID[:len(LoopbackPrefix)] == LoopbackPrefix
}

// indexer hands out the shared, monotonically increasing device index.
type indexer struct {
	devices []AudioDevice
}

func (ix *indexer) add(name, id string, kind Kind) {
	ix.devices = append(ix.devices, AudioDevice{
		Index: len(ix.devices) + 1,
		Name:  name,
		ID:    id,
		Kind:  kind,
	})
}
