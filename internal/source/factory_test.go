package source_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/go-discord-dj/internal/config"
	"github.com/Raikerian/go-discord-dj/internal/device"
	"github.com/Raikerian/go-discord-dj/internal/source"
)

func newTestFactory(t *testing.T, goos string, devices []device.AudioDevice, capture *fakeCapture) (*source.Factory, *fakeTranscoder) {
	t.Helper()
	tr := &fakeTranscoder{}
	if capture == nil {
		capture = &fakeCapture{format: source.CaptureFormat{SampleRate: 48000, Channels: 2}}
	}
	f := source.NewFactoryFor(goos, &fakeResolver{devices: devices}, tr,
		func() source.CaptureBackend { return capture }, zaptest.NewLogger(t))
	return f, tr
}

func intPtr(i int) *int { return &i }

func TestCreateLocalDevice(t *testing.T) {
	f, _ := newTestFactory(t, "windows", []device.AudioDevice{
		{Index: 1, Name: "Mic", ID: "dshow:audio=Mic", Kind: device.KindInput},
	}, nil)

	src, err := f.CreateFromConfig(context.Background(), "local", source.Options{DeviceIndex: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, "Local Device: Mic", src.Description())
	assert.Equal(t, source.KindLocalDevice, src.Kind())

	local, ok := src.(*source.LocalDeviceSource)
	require.True(t, ok)
	args, err := local.Args()
	require.NoError(t, err)
	assert.Equal(t, []string{"-f", "dshow", "-i", "audio=Mic", "-ar", "48000", "-ac", "2", "-b:a", "128k"}, args)
}

func TestCreateLocalDeviceLoopback(t *testing.T) {
	capture := &fakeCapture{format: source.CaptureFormat{SampleRate: 44100, Channels: 2}}
	f, _ := newTestFactory(t, "windows", []device.AudioDevice{
		{Index: 1, Name: "Speakers [System Audio Output]", ID: "wasapi:3", Kind: device.KindOutput},
	}, capture)

	src, err := f.CreateFromConfig(context.Background(), "LOCAL", source.Options{DeviceIndex: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, source.KindLoopback, src.Kind())
	assert.Equal(t, "System Audio: Speakers [System Audio Output]", src.Description())

	lb, ok := src.(*source.LoopbackSource)
	require.True(t, ok)
	assert.Equal(t, 44100, lb.Format().SampleRate)
	src.Cleanup()
}

func TestCreateLocalDeviceErrors(t *testing.T) {
	f, _ := newTestFactory(t, "linux", []device.AudioDevice{
		{Index: 1, Name: "Mic", ID: "alsa_input.mic"},
	}, nil)

	_, err := f.CreateFromConfig(context.Background(), "local", source.Options{})
	assert.ErrorIs(t, err, source.ErrInvalidConfiguration)

	_, err = f.CreateFromConfig(context.Background(), "local", source.Options{DeviceIndex: intPtr(7)})
	assert.ErrorIs(t, err, source.ErrDeviceNotFound)
}

func TestCreateLocalDeviceEnumerationFailure(t *testing.T) {
	f := source.NewFactoryFor("linux", &fakeResolver{err: device.ErrDeviceEnumeration}, &fakeTranscoder{},
		nil, zaptest.NewLogger(t))

	_, err := f.CreateFromConfig(context.Background(), "local", source.Options{DeviceIndex: intPtr(1)})
	assert.ErrorIs(t, err, device.ErrDeviceEnumeration)
}

func TestCreateStreamsIsCaseInsensitive(t *testing.T) {
	f, _ := newTestFactory(t, "linux", nil, nil)
	url := "http://radio.example:8000/live"

	upper, err := f.CreateFromConfig(context.Background(), "ICECAST", source.Options{URL: url})
	require.NoError(t, err)
	lower, err := f.CreateFromConfig(context.Background(), "icecast", source.Options{URL: url})
	require.NoError(t, err)

	assert.Equal(t, upper.Kind(), lower.Kind())
	assert.Equal(t, upper.Description(), lower.Description())
	assert.Equal(t, "Icecast Stream: "+url, lower.Description())

	generic, err := f.CreateFromConfig(context.Background(), "Url", source.Options{URL: url, BitrateKbps: 96})
	require.NoError(t, err)
	assert.Equal(t, source.KindURL, generic.Kind())
	assert.Equal(t, "URL Stream: "+url, generic.Description())
}

func TestCreateStreamRequiresURL(t *testing.T) {
	f, _ := newTestFactory(t, "linux", nil, nil)

	for _, typ := range []string{"icecast", "url"} {
		t.Run(typ, func(t *testing.T) {
			_, err := f.CreateFromConfig(context.Background(), typ, source.Options{})
			assert.ErrorIs(t, err, source.ErrInvalidConfiguration)
		})
	}
}

func TestCreateUnknownType(t *testing.T) {
	f, _ := newTestFactory(t, "linux", nil, nil)

	_, err := f.CreateFromConfig(context.Background(), "spotify", source.Options{URL: "x"})
	assert.ErrorIs(t, err, source.ErrUnknownSourceType)
}

func TestFromConfig(t *testing.T) {
	f, _ := newTestFactory(t, "darwin", []device.AudioDevice{
		{Index: 2, Name: "MacBook Microphone", ID: ":0"},
	}, nil)

	src, err := f.FromConfig(context.Background(), config.AudioSourceConfig{Type: "local", DeviceIndex: 2})
	require.NoError(t, err)
	assert.Equal(t, "Local Device: MacBook Microphone", src.Description())

	_, err = f.FromConfig(context.Background(), config.AudioSourceConfig{Type: "local"})
	assert.ErrorIs(t, err, source.ErrInvalidConfiguration)
}
