// Package metrics exposes relay counters to Prometheus.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the relay's Prometheus collectors.
type Metrics struct {
	FramesSent       prometheus.Counter
	SilenceFrames    prometheus.Counter
	Playbacks        *prometheus.CounterVec
	PlaybackFailures *prometheus.CounterVec
	Commands         *prometheus.CounterVec
	VoiceConnected   prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dj_frames_sent_total",
			Help: "Opus frames written to the voice connection",
		}),
		SilenceFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dj_silence_frames_total",
			Help: "Silence frames sent because the source had no data",
		}),
		Playbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dj_playbacks_total",
			Help: "Playbacks started, by source kind",
		}, []string{"kind"}),
		PlaybackFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dj_playback_failures_total",
			Help: "Playbacks that could not start or ended with an error, by source kind",
		}, []string{"kind"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dj_commands_total",
			Help: "Chat commands handled, by name",
		}, []string{"command"}),
		VoiceConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dj_voice_connected",
			Help: "1 while the bot is in a voice channel",
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register relay metrics: %w", err)
	}
	return m, nil
}

// NewNop returns metrics backed by a private registry, for tests and tools.
func NewNop() *Metrics {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		panic(err)
	}
	return m
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.FramesSent.Describe(ch)
	m.SilenceFrames.Describe(ch)
	m.Playbacks.Describe(ch)
	m.PlaybackFailures.Describe(ch)
	m.Commands.Describe(ch)
	m.VoiceConnected.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.FramesSent.Collect(ch)
	m.SilenceFrames.Collect(ch)
	m.Playbacks.Collect(ch)
	m.PlaybackFailures.Collect(ch)
	m.Commands.Collect(ch)
	m.VoiceConnected.Collect(ch)
}
