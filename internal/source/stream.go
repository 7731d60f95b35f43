package source

import (
	"context"
	"strconv"
)

// reconnectArgs make the transcoder resume a dropped HTTP stream.
var reconnectArgs = []string{
	"-reconnect", "1",
	"-reconnect_streamed", "1",
	"-reconnect_delay_max", "5",
}

// streamSource is the shared implementation of the HTTP stream variants.
// It owns nothing; the transcoder holds the connection.
type streamSource struct {
	url         string
	bitrateKbps int
	transcoder  Transcoder
}

// StreamURL implements Source.
func (s *streamSource) StreamURL() (string, bool) {
	return s.url, true
}

// Args returns the transcoder arguments for the stream.
func (s *streamSource) Args() []string {
	args := make([]string, 0, len(reconnectArgs)+6)
	args = append(args, reconnectArgs...)
	return append(args,
		"-i", s.url,
		"-vn",
		"-b:a", strconv.Itoa(s.bitrateKbps)+"k",
	)
}

func (s *streamSource) open(ctx context.Context, src Source) (Handle, error) {
	rc, err := s.transcoder.Start(ctx, s.Args())
	if err != nil {
		return nil, connectionError(src, err)
	}
	return newPCMHandle(rc), nil
}

// IcecastSource relays an Icecast mount.
type IcecastSource struct {
	streamSource
}

// NewIcecastSource creates an Icecast source.
func NewIcecastSource(url string, bitrateKbps int, t Transcoder) *IcecastSource {
	return &IcecastSource{streamSource{url: url, bitrateKbps: bitrateKbps, transcoder: t}}
}

func (s *IcecastSource) sealed() {}

// Description implements Source.
func (s *IcecastSource) Description() string { return "Icecast Stream: " + s.url }

// Kind implements Source.
func (s *IcecastSource) Kind() Kind { return KindIcecast }

// Open implements Source.
func (s *IcecastSource) Open(ctx context.Context) (Handle, error) { return s.open(ctx, s) }

// Cleanup implements Source.
func (s *IcecastSource) Cleanup() {}

// URLSource relays any media URL the transcoder can read.
type URLSource struct {
	streamSource
}

// NewURLSource creates a generic URL source.
func NewURLSource(url string, bitrateKbps int, t Transcoder) *URLSource {
	return &URLSource{streamSource{url: url, bitrateKbps: bitrateKbps, transcoder: t}}
}

func (s *URLSource) sealed() {}

// Description implements Source.
func (s *URLSource) Description() string { return "URL Stream: " + s.url }

// Kind implements Source.
func (s *URLSource) Kind() Kind { return KindURL }

// Open implements Source.
func (s *URLSource) Open(ctx context.Context) (Handle, error) { return s.open(ctx, s) }

// Cleanup implements Source.
func (s *URLSource) Cleanup() {}
