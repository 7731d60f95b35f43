package device

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"
)

// LoopbackEndpoint is a render endpoint that can be captured in loopback mode.
type LoopbackEndpoint struct {
	// Index is the position in the capture library's playback device list.
	Index     int
	Name      string
	IsDefault bool
}

// LoopbackLister lists endpoints available for loopback capture.
type LoopbackLister interface {
	ListLoopback(ctx context.Context) ([]LoopbackEndpoint, error)
}

// MalgoLoopbackLister enumerates WASAPI render endpoints through miniaudio.
type MalgoLoopbackLister struct{}

// NewMalgoLoopbackLister returns the WASAPI loopback lister.
func NewMalgoLoopbackLister() *MalgoLoopbackLister {
	return &MalgoLoopbackLister{}
}

// ListLoopback implements LoopbackLister.
func (l *MalgoLoopbackLister) ListLoopback(_ context.Context) ([]LoopbackEndpoint, error) {
	mctx, err := malgo.InitContext([]malgo.Backend{malgo.BackendWasapi}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init wasapi context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	infos, err := mctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("list playback devices: %w", err)
	}

	endpoints := make([]LoopbackEndpoint, 0, len(infos))
	for i := range infos {
		endpoints = append(endpoints, LoopbackEndpoint{
			Index:     i,
			Name:      infos[i].Name(),
			IsDefault: infos[i].IsDefault != 0,
		})
	}
	return endpoints, nil
}

// loopbackDisplayName strips the capture library's own suffix and marks the
// entry as a system output capture.
func loopbackDisplayName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, " [Loopback]", ""))
	return name + " [System Audio Output]"
}
