// Package source implements the audio sources the relay can stream from.
//
// The set of variants is closed: LocalDeviceSource, LoopbackSource,
// IcecastSource and URLSource. Callers work through Source and never switch
// on the concrete type.
package source

import (
	"context"
	"errors"
	"fmt"
)

// Kind identifies a source variant.
type Kind string

const (
	KindLocalDevice Kind = "local_device"
	KindLoopback    Kind = "wasapi_loopback"
	KindIcecast     Kind = "icecast_stream"
	KindURL         Kind = "url_stream"
)

// Source is something the relay can turn into a stream of PCM frames.
type Source interface {
	// Description is human readable and includes the device name or URL.
	Description() string
	Kind() Kind
	// StreamURL returns the HTTP address for stream variants. ok is false
	// for capture sources.
	StreamURL() (url string, ok bool)
	// Open starts producing audio. Failures are *SourceConnectionError.
	Open(ctx context.Context) (Handle, error)
	// Cleanup releases everything the source owns. It is idempotent.
	Cleanup()

	sealed()
}

// Handle yields 20 ms frames of 48 kHz stereo s16le PCM.
type Handle interface {
	// ReadFrame returns exactly audio.FrameBytes bytes, an empty frame when
	// no data is available this tick, or io.EOF when the stream has ended.
	ReadFrame() ([]byte, error)
	Close() error
}

var (
	// ErrInvalidConfiguration is returned when a required field for a source type is missing.
	ErrInvalidConfiguration = errors.New("invalid source configuration")
	// ErrUnknownSourceType is returned for an unrecognized source type tag.
	ErrUnknownSourceType = errors.New("unknown source type")
	// ErrDeviceNotFound is returned when no enumerated device carries the requested index.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrSourceClosed is returned by Open after Cleanup on sources that cannot reopen.
	ErrSourceClosed = errors.New("source cleaned up")
)

// SourceConnectionError wraps a failure to open a source.
type SourceConnectionError struct {
	Source string
	Err    error
}

func (e *SourceConnectionError) Error() string {
	return fmt.Sprintf("failed to open %s: %v", e.Source, e.Err)
}

func (e *SourceConnectionError) Unwrap() error {
	return e.Err
}

func connectionError(src Source, err error) error {
	return &SourceConnectionError{Source: src.Description(), Err: err}
}
