package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/Raikerian/go-discord-dj/internal/device"
	"github.com/Raikerian/go-discord-dj/internal/source"
)

// ErrSelectionAborted is returned when input ends or the user interrupts the menu.
var ErrSelectionAborted = errors.New("source selection aborted")

// Selection is the source chosen in the interactive menu.
type Selection struct {
	Type        string
	DeviceIndex int
	URL         string
}

// SelectSource shows the numbered device menu plus a custom URL entry and
// reads answers from in until a valid choice is made.
func SelectSource(ctx context.Context, in io.Reader, out io.Writer, devices []device.AudioDevice) (Selection, error) {
	type result struct {
		sel Selection
		err error
	}
	ch := make(chan result, 1)
	go func() {
		sel, err := prompt(bufio.NewScanner(in), out, devices)
		ch <- result{sel, err}
	}()

	select {
	case r := <-ch:
		return r.sel, r.err
	case <-ctx.Done():
		fmt.Fprintln(out)
		return Selection{}, ErrSelectionAborted
	}
}

func prompt(sc *bufio.Scanner, out io.Writer, devices []device.AudioDevice) (Selection, error) {
	customOption := len(devices) + 1

	fmt.Fprintln(out, "Available audio sources:")
	for i, d := range devices {
		marker := ""
		if d.Default {
			marker = " [default]"
		}
		fmt.Fprintf(out, "  %d. %s (%s)%s\n", i+1, d.Name, d.Kind, marker)
	}
	fmt.Fprintf(out, "  %d. Custom stream URL\n", customOption)

	for {
		fmt.Fprintf(out, "Select a source [1-%d]: ", customOption)
		line, ok := readLine(sc)
		if !ok {
			return Selection{}, ErrSelectionAborted
		}

		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > customOption {
			fmt.Fprintf(out, "Invalid selection. Enter a number between 1 and %d.\n", customOption)
			continue
		}
		if n < customOption {
			return Selection{Type: source.TypeLocal, DeviceIndex: devices[n-1].Index}, nil
		}
		return promptURL(sc, out)
	}
}

func promptURL(sc *bufio.Scanner, out io.Writer) (Selection, error) {
	var raw string
	for {
		fmt.Fprint(out, "Stream URL: ")
		line, ok := readLine(sc)
		if !ok {
			return Selection{}, ErrSelectionAborted
		}
		if line == "" {
			fmt.Fprintln(out, "URL cannot be empty.")
			continue
		}
		u, err := url.Parse(line)
		if err != nil || u.Scheme == "" || u.Host == "" {
			fmt.Fprintln(out, "Enter a full URL such as http://host:8000/live.")
			continue
		}
		raw = line
		break
	}

	fmt.Fprint(out, "Is this an Icecast stream? [y/N]: ")
	line, ok := readLine(sc)
	if !ok {
		return Selection{}, ErrSelectionAborted
	}
	typ := source.TypeURL
	if strings.HasPrefix(strings.ToLower(line), "y") {
		typ = source.TypeIcecast
	}
	return Selection{Type: typ, URL: raw}, nil
}

func readLine(sc *bufio.Scanner) (string, bool) {
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}
