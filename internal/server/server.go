package server

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/soar/padkbd/internal/hub"
)

type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	switcher    hub.ProfileSwitcher
	frontendFS  fs.FS
	addr        string

	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
}

// New creates the status server. switcher may be nil.
func New(h *hub.Hub, b *hub.Broadcaster, switcher hub.ProfileSwitcher, frontendFS fs.FS, addr string) *Server {
	return &Server{
		hub:         h,
		broadcaster: b,
		switcher:    switcher,
		frontendFS:  frontendFS,
		addr:        addr,
	}
}

// Handler builds the HTTP routes.
func (s *Server) Handler() (http.Handler, error) {
	page, err := minifyPage(s.frontendFS, "index.html")
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("GET /ws", handleWebSocket(s.hub, s.broadcaster, s.switcher))
	mux.HandleFunc("GET /api/status", handleStatus(s.broadcaster))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Static files (frontend), index served minified
	fileServer := http.FileServer(http.FS(s.frontendFS))
	mux.HandleFunc("GET /{$}", servePage(page))
	mux.Handle("GET /", fileServer)

	return mux, nil
}

// ListenAndServe binds addr and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return http.ErrServerClosed
	}
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: handler,
	}
	srv := s.httpServer
	s.mu.Unlock()

	log.Info().Str("addr", ln.Addr().String()).Msg("status server listening")
	return srv.Serve(ln)
}

// Shutdown stops the server. A later ListenAndServe returns http.ErrServerClosed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		log.Info().Msg("shutting down status server")
		return srv.Shutdown(ctx)
	}
	return nil
}
