package device

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// Parsers for the text that platform tools print. Each returns structured
// records and treats unexpected output as "no devices".

var (
	dshowTaggedPattern  = regexp.MustCompile(`"([^"]+)"\s*\(audio\)`)
	dshowSectionPattern = regexp.MustCompile(`\[dshow[^\]]*\]\s*"([^"]+)"`)
	pulsePattern        = regexp.MustCompile(`^\s*(\*\s+)?(\S+)\s+\[(.+)\]\s*$`)
	avfoundationPattern = regexp.MustCompile(`\[AVFoundation[^\]]*\]\s*\[(\d+)\]\s*(.+)`)
)

// Keywords marking a legacy stereo-mix style device on Windows.
var stereoMixKeywords = []string{"stereo mix", "wave out", "what u hear"}

const (
	dshowAudioMarker        = "DirectShow audio devices"
	dshowVideoMarker        = "DirectShow video devices"
	avfoundationAudioMarker = "AVFoundation audio devices:"
	avfoundationVideoMarker = "AVFoundation video devices:"
)

func lines(output string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		out = append(out, strings.TrimRight(sc.Text(), "\r"))
	}
	return out
}

// parseDShow extracts audio device names from `ffmpeg -list_devices true -f dshow`.
// Newer ffmpeg tags each device with "(audio)"; older builds group them
// under a "DirectShow audio devices" header.
func parseDShow(output string) []string {
	var names []string
	seen := make(map[string]bool)
	inAudio := false

	for _, line := range lines(output) {
		switch {
		case strings.Contains(line, dshowAudioMarker):
			inAudio = true
			continue
		case strings.Contains(line, dshowVideoMarker):
			inAudio = false
			continue
		case strings.Contains(line, "Alternative name"):
			continue
		}

		var name string
		if m := dshowTaggedPattern.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if inAudio && !strings.Contains(line, "(video)") {
			if m := dshowSectionPattern.FindStringSubmatch(line); m != nil {
				name = m[1]
			}
		}

		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// isStereoMix reports whether a dshow device mirrors system output.
func isStereoMix(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range stereoMixKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type namedSource struct {
	ID          string
	Description string
}

// parsePulseSources reads `ffmpeg -sources pulse`. The default source is
// marked with "*".
func parsePulseSources(output string) []namedSource {
	var out []namedSource
	for _, line := range lines(output) {
		m := pulsePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, namedSource{ID: m[2], Description: strings.TrimSpace(m[3])})
	}
	return out
}

// parseArecord reads `arecord -L`: device names start at column 0, the
// indented lines after each one describe it.
func parseArecord(output string) []namedSource {
	var out []namedSource
	for _, line := range lines(output) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] != ' ' && line[0] != '\t' {
			out = append(out, namedSource{ID: strings.TrimSpace(line)})
			continue
		}
		if n := len(out); n > 0 && out[n-1].Description == "" {
			out[n-1].Description = strings.TrimSpace(line)
		}
	}
	return out
}

type avfoundationDevice struct {
	Number int
	Name   string
}

// parseAVFoundation reads the audio section of
// `ffmpeg -f avfoundation -list_devices true -i ""`.
func parseAVFoundation(output string) []avfoundationDevice {
	var out []avfoundationDevice
	inAudio := false
	for _, line := range lines(output) {
		if strings.Contains(line, avfoundationAudioMarker) {
			inAudio = true
			continue
		}
		if strings.Contains(line, avfoundationVideoMarker) {
			inAudio = false
			continue
		}
		if !inAudio {
			continue
		}
		m := avfoundationPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, avfoundationDevice{Number: n, Name: strings.TrimSpace(m[2])})
	}
	return out
}
