package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wingera/schematic-material-viewer/internal/api"
	"github.com/wingera/schematic-material-viewer/internal/config"
	"github.com/wingera/schematic-material-viewer/internal/session"
	"github.com/wingera/schematic-material-viewer/internal/storage"
	"github.com/wingera/schematic-material-viewer/internal/users"
	"github.com/wingera/schematic-material-viewer/internal/ws"
)

// Server wires the collaborators together: one registry, one session
// store, one coordinator, constructed once here and injected everywhere.
type Server struct {
	httpServer *http.Server
	Coord      *session.Coordinator
	log        *zap.Logger
}

func NewServer(cfg config.Config, log *zap.Logger) (*Server, error) {
	files, err := storage.NewStore(cfg.UploadFolder, log)
	if err != nil {
		return nil, err
	}
	userStore, err := users.NewStore(cfg.UsersFolder, log)
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub(log)
	coord := session.NewCoordinator(session.NewRegistry(), session.NewStore(), hub, log)

	handlers := &api.Handlers{
		Files:          files,
		Users:          userStore,
		Coord:          coord,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	wsHandler := &ws.Handler{Hub: hub, Coord: coord, Log: log}
	mux := api.SetupRoutes(handlers, wsHandler)

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Addr(),
			Handler: mux,
		},
		Coord: coord,
		log:   log,
	}, nil
}

// Run serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		s.log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
