package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/config"
)

const metricsPath = "/metrics"

// Server serves the registry over HTTP. It is inert when no address is configured.
type Server struct {
	addr    string
	metrics *Metrics
	logger  *zap.Logger
	srv     *http.Server
}

// NewServer creates the endpoint for cfg.Metrics.Addr.
func NewServer(cfg *config.Config, m *Metrics, logger *zap.Logger) *Server {
	return &Server{addr: cfg.Metrics.Addr, metrics: m, logger: logger.Named("metrics")}
}

// Handler returns the /metrics handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))
	return mux
}

// Start binds the listener and serves in the background.
func (s *Server) Start(context.Context) error {
	if s.addr == "" {
		s.logger.Debug("Metrics endpoint disabled")
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("Serving metrics", zap.String("addr", ln.Addr().String()), zap.String("path", metricsPath))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Module provides relay metrics and registers the HTTP endpoint with the lifecycle.
var Module = fx.Module("metrics",
	fx.Provide(
		func() *prometheus.Registry { return prometheus.NewRegistry() },
		New,
		NewServer,
	),
	fx.Invoke(func(lc fx.Lifecycle, s *Server) {
		lc.Append(fx.Hook{OnStart: s.Start, OnStop: s.Stop})
	}),
)
