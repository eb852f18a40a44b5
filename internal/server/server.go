// Package server exposes stream resolution over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"

	"cinestream/internal/httputil"
	"cinestream/internal/logging"
	"cinestream/internal/media"
	"cinestream/internal/metrics"
	"cinestream/internal/playback"
	"cinestream/internal/registry"
	"cinestream/internal/resolver"
	"cinestream/internal/state"
)

// Options configures the HTTP server.
type Options struct {
	Providers  resolver.Providers
	DefaultAPI string        // Provider family used when the request names none
	Timeout    time.Duration // Upper bound for one resolution
}

// Server resolves streams on request. Every request gets its own
// controller and in-memory language state.
type Server struct {
	app    *fiber.App
	opts   Options
	logger *zap.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates a Server with its routes registered.
func New(opts Options, logger *zap.Logger) *Server {
	logger = logging.Component(logger, "server")
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			logger.Error("request failed", zap.Error(err), zap.String("url", c.OriginalURL()))
			return c.Status(code).JSON(errorResponse{Error: http.StatusText(code)})
		},
	})

	s := &Server{app: app, opts: opts, logger: logger}

	app.Use(recover.New())
	app.Use(s.logRequests)

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		metrics.Write(w)
	}))
	app.Get("/stream/:kind/:imdb", s.handleStream)

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("address", addr))
		errc <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listening on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	if err := s.app.Shutdown(); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

func (s *Server) logRequests(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("duration", time.Since(start)))
	return err
}

// handleStream runs a one-shot resolution and returns the settled snapshot.
// Query parameters: season, episode, lang, provider, id.
func (s *Server) handleStream(c fiber.Ctx) error {
	imdb := c.Params("imdb")
	if err := httputil.ValidateIMDbID(imdb); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}

	raw := "watch/" + c.Params("kind") + "/" + imdb
	if qs := string(c.Request().URI().QueryString()); qs != "" {
		raw += "?" + qs
	}
	addr, err := media.ParseAddress(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}

	ref := addr.Ref
	ref.Provider = c.Query("provider", s.opts.DefaultAPI)
	if _, ok := s.opts.Providers.Lookup(ref.Provider); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: fmt.Sprintf("%s %q", resolver.ErrUnknownProvider, ref.Provider),
		})
	}

	snap, err := s.resolve(c.Context(), ref, addr.Query.Get(registry.LangKey))
	if err != nil {
		return c.Status(fiber.StatusGatewayTimeout).JSON(errorResponse{Error: err.Error()})
	}
	if snap.Phase == playback.Error {
		return c.Status(fiber.StatusNotFound).JSON(snap)
	}
	return c.JSON(snap)
}

func (s *Server) resolve(parent context.Context, ref media.Ref, lang string) (playback.Snapshot, error) {
	ctx, cancel := context.WithTimeout(parent, s.opts.Timeout)
	defer cancel()

	store := state.NewMemory(map[string]string{registry.LangKey: lang})
	reg := registry.New(store)
	trace := playback.SinkFunc(func(snap playback.Snapshot) {
		s.logger.Debug("snapshot",
			zap.String("title", ref.Title()),
			zap.String("phase", string(snap.Phase)),
			zap.Bool("in_flight", snap.InFlight),
			zap.Uint64("generation", snap.Generation))
	})
	ctrl := resolver.New(s.opts.Providers, reg, trace, s.logger)
	go ctrl.Run(ctx)
	ctrl.Mount(ref)

	snap, err := ctrl.Wait(ctx)
	if err != nil {
		return snap, fmt.Errorf("resolving %s: %w", ref.Title(), err)
	}
	return snap, nil
}
