package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bingohub/service"

	log "github.com/sirupsen/logrus"
)

// Server is the localhost-only debug API
type Server struct {
	server *http.Server
}

// NewServer creates a debug API bound to 127.0.0.1:port
func NewServer(port int, lobbies service.LobbyService, users service.UserService) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", port),
			Handler:      SetupRoutes(lobbies, users),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Start serves in the background
func (s *Server) Start() {
	go func() {
		log.WithField("addr", s.server.Addr).Info("Debug API listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Debug API server error")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
