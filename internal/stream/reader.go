// Package stream reads long-lived HTTP audio streams such as Icecast mounts.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds how long Connect waits for response headers.
const DefaultTimeout = 10 * time.Second

// DefaultChunkSize is used by ReadStream when chunkSize is not positive.
const DefaultChunkSize = 4096

var (
	// ErrNotConnected is returned by ReadStream before Connect succeeds or after Close.
	ErrNotConnected = errors.New("stream not connected")
	// ErrClosed is returned by a Connect that Close aborted.
	ErrClosed = errors.New("stream reader closed")
	// ErrConnectInProgress is returned when Connect is called while another Connect is pending.
	ErrConnectInProgress = errors.New("stream connect already in progress")
)

const (
	connectPending int32 = iota
	connectDone
	connectTimedOut
)

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stream %s returned HTTP %d", e.URL, e.StatusCode)
}

// Reader holds one HTTP response body open and hands it out in chunks.
type Reader struct {
	url     string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger

	mu         sync.Mutex
	body       io.ReadCloser
	cancel     context.CancelFunc
	connecting bool
	aborted    bool
}

// Option configures a Reader.
type Option func(*Reader)

// WithTimeout sets the header timeout for Connect.
func WithTimeout(d time.Duration) Option {
	return func(r *Reader) { r.timeout = d }
}

// WithHTTPClient replaces the default client. Its Timeout should be zero
// since the body is read for as long as the stream lives.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Reader) { r.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reader) { r.logger = l }
}

// NewReader creates a Reader for url. Nothing is fetched until Connect.
func NewReader(url string, opts ...Option) *Reader {
	r := &Reader{
		url:     url,
		timeout: DefaultTimeout,
		client:  &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("stream").With(zap.String("url", url))
	return r
}

// Connect issues the GET. Calling it while connected is a no-op. The lock is
// not held during the request, so Close aborts a pending Connect.
func (r *Reader) Connect(ctx context.Context) error {
	r.mu.Lock()
	if r.body != nil {
		r.mu.Unlock()
		r.logger.Debug("Stream already connected")
		return nil
	}
	if r.connecting {
		r.mu.Unlock()
		return ErrConnectInProgress
	}

	reqCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, r.url, http.NoBody)
	if err != nil {
		r.mu.Unlock()
		cancel()
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Icy-MetaData", "0")
	r.connecting = true
	r.aborted = false
	r.cancel = cancel
	r.mu.Unlock()

	// The timer only guards the headers. Whichever of the timer and the
	// response claims the state first decides the outcome, so a response that
	// won is never cancelled afterwards.
	var state atomic.Int32
	timer := time.AfterFunc(r.timeout, func() {
		if state.CompareAndSwap(connectPending, connectTimedOut) {
			cancel()
		}
	})
	resp, err := r.client.Do(req)
	timer.Stop()
	timedOut := !state.CompareAndSwap(connectPending, connectDone)

	r.mu.Lock()
	defer r.mu.Unlock()
	aborted := r.aborted
	r.connecting = false
	r.aborted = false
	r.cancel = nil

	fail := func(err error) error {
		if resp != nil {
			resp.Body.Close()
		}
		cancel()
		return err
	}
	switch {
	case aborted:
		return fail(fmt.Errorf("connect to %s: %w", r.url, ErrClosed))
	case timedOut:
		return fail(fmt.Errorf("connect to %s: timed out after %s", r.url, r.timeout))
	case err != nil:
		return fail(fmt.Errorf("connect to %s: %w", r.url, err))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fail(&StatusError{URL: r.url, StatusCode: resp.StatusCode})
	}

	r.body = resp.Body
	r.cancel = cancel
	r.logger.Info("Connected to stream",
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")))
	return nil
}

// IsConnected reports whether a response body is held.
func (r *Reader) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body != nil
}

// ReadStream yields chunks of at most chunkSize bytes until the body ends.
// A cancelled ctx is yielded as its error. Before Connect the sequence yields
// ErrNotConnected once.
func (r *Reader) ReadStream(ctx context.Context, chunkSize int) iter.Seq2[[]byte, error] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return func(yield func([]byte, error) bool) {
		r.mu.Lock()
		body := r.body
		r.mu.Unlock()
		if body == nil {
			yield(nil, ErrNotConnected)
			return
		}

		buf := make([]byte, chunkSize)
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			n, err := body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				if !yield(chunk, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				}
				yield(nil, err)
				return
			}
		}
	}
}

// Close releases the response, or aborts a pending Connect. It is safe to
// call repeatedly and before Connect.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connecting {
		r.aborted = true
		r.cancel()
		r.logger.Debug("Pending connect aborted")
		return nil
	}
	if r.body == nil {
		return nil
	}
	err := r.body.Close()
	r.cancel()
	r.body = nil
	r.cancel = nil
	r.logger.Debug("Stream closed")
	return err
}

// Probe connects and reads the first chunk to check that url serves data.
func Probe(ctx context.Context, url string, opts ...Option) error {
	r := NewReader(url, opts...)
	defer r.Close()

	if err := r.Connect(ctx); err != nil {
		return err
	}
	for chunk, err := range r.ReadStream(ctx, DefaultChunkSize) {
		if err != nil {
			return err
		}
		if len(chunk) > 0 {
			return nil
		}
	}
	return fmt.Errorf("stream %s ended before any data", url)
}
