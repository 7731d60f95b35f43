package cmd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/go-discord-dj/internal/device"
	"github.com/Raikerian/go-discord-dj/internal/source"
)

var testDevices = []device.AudioDevice{
	{Index: 1, Name: "Mic", ID: "Mic", Kind: device.KindInput},
	{Index: 2, Name: "Speakers (Loopback)", ID: "wasapi:0", Kind: device.KindOutput, Default: true},
}

func TestSelectSourceDevice(t *testing.T) {
	var out bytes.Buffer
	sel, err := SelectSource(context.Background(), strings.NewReader("2\n"), &out, testDevices)

	require.NoError(t, err)
	assert.Equal(t, Selection{Type: source.TypeLocal, DeviceIndex: 2}, sel)
	assert.Contains(t, out.String(), "1. Mic (input)\n")
	assert.Contains(t, out.String(), "2. Speakers (Loopback) (output) [default]")
	assert.Contains(t, out.String(), "3. Custom stream URL")
}

func TestSelectSourceInvalidChoiceReprompts(t *testing.T) {
	var out bytes.Buffer
	sel, err := SelectSource(context.Background(), strings.NewReader("abc\n0\n9\n1\n"), &out, testDevices)

	require.NoError(t, err)
	assert.Equal(t, 1, sel.DeviceIndex)
	assert.Equal(t, 3, strings.Count(out.String(), "Invalid selection"))
}

func TestSelectSourceCustomURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType string
	}{
		{name: "icecast", input: "3\nhttp://radio:8000/live\ny\n", wantType: source.TypeIcecast},
		{name: "plain url default", input: "3\nhttp://radio:8000/live\n\n", wantType: source.TypeURL},
		{name: "empty url reprompts", input: "3\n\nhttp://radio:8000/live\nn\n", wantType: source.TypeURL},
		{name: "malformed url reprompts", input: "3\nradio\nhttp://radio:8000/live\nYES\n", wantType: source.TypeIcecast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := SelectSource(context.Background(), strings.NewReader(tt.input), io.Discard, testDevices)

			require.NoError(t, err)
			assert.Equal(t, tt.wantType, sel.Type)
			assert.Equal(t, "http://radio:8000/live", sel.URL)
		})
	}
}

func TestSelectSourceWithoutDevices(t *testing.T) {
	var out bytes.Buffer
	sel, err := SelectSource(context.Background(), strings.NewReader("1\nhttp://x/y\n\n"), &out, nil)

	require.NoError(t, err)
	assert.Equal(t, source.TypeURL, sel.Type)
	assert.Contains(t, out.String(), "1. Custom stream URL")
}

func TestSelectSourceEOFAborts(t *testing.T) {
	for _, input := range []string{"", "3\n", "3\nhttp://x/y\n"} {
		_, err := SelectSource(context.Background(), strings.NewReader(input), io.Discard, testDevices)
		assert.ErrorIs(t, err, ErrSelectionAborted, "input %q", input)
	}
}

func TestSelectSourceCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SelectSource(ctx, r, io.Discard, testDevices)
	assert.ErrorIs(t, err, ErrSelectionAborted)
}

func TestWriteDevices(t *testing.T) {
	var table bytes.Buffer
	require.NoError(t, writeDevices(&table, testDevices, "table"))
	assert.Contains(t, table.String(), "INDEX")
	assert.Contains(t, table.String(), "DEFAULT")
	assert.Regexp(t, `Speakers \(Loopback\)\s+output\s+\*\s+wasapi:0`, table.String())

	var yml bytes.Buffer
	require.NoError(t, writeDevices(&yml, testDevices, "yaml"))
	assert.Contains(t, yml.String(), "name: Mic")
	assert.Contains(t, yml.String(), "kind: output")
	assert.Contains(t, yml.String(), "default: true")
	assert.Equal(t, 1, strings.Count(yml.String(), "default:"))

	var empty bytes.Buffer
	require.NoError(t, writeDevices(&empty, nil, "table"))
	assert.Equal(t, "No audio devices found.\n", empty.String())

	assert.Error(t, writeDevices(io.Discard, testDevices, "json"))
}
