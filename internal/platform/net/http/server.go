package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"stopsearch/internal/platform/config"
	"stopsearch/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// ServerOptions configures the read API listener
type ServerOptions struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// ServerOptionsFromConfig reads CORE_API_PORT, CORE_API_READ_HEADER_TIMEOUT and CORE_API_SHUTDOWN_TIMEOUT
func ServerOptionsFromConfig(cfg config.Conf) ServerOptions {
	a := cfg.Prefix("CORE_API_")
	return ServerOptions{
		Addr:              a.MayPort("PORT", 4000),
		ReadHeaderTimeout: a.MayDuration("READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownTimeout:   a.MayDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Server is a thin wrapper over chi + stdlib http.Server
type Server struct {
	opts ServerOptions
	mux  *chi.Mux
	srv  *stdhttp.Server
}

// NewServer creates the server; opts receive the *chi.Mux so callers can mount routes and middleware
func NewServer(o ServerOptions, opts ...func(*chi.Mux)) *Server {
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 10 * time.Second
	}
	m := chi.NewRouter()
	for _, fn := range opts {
		fn(m)
	}
	return &Server{
		opts: o,
		mux:  m,
		srv: &stdhttp.Server{
			Addr:              o.Addr,
			Handler:           m,
			ReadHeaderTimeout: o.ReadHeaderTimeout,
		},
	}
}

// Router returns a Router facade over the internal chi mux
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr returns the listening address
func (s *Server) Addr() string { return s.opts.Addr }

// Serve listens until ctx is done, then shuts down within ShutdownTimeout.
// It satisfies suture.Service so a supervisor can restart a crashed listener
func (s *Server) Serve(ctx context.Context) error {
	log := logger.Named("http")
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.opts.Addr).Msg("http listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(sctx); err != nil {
			return err
		}
		<-errCh
		log.Info().Msg("http stopped")
		return ctx.Err()
	}
}

// String names the service in supervisor events
func (s *Server) String() string { return "http-server" }
