package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/janekbaraniewski/claudewatch/internal/config"
	"github.com/janekbaraniewski/claudewatch/internal/core"
	"github.com/janekbaraniewski/claudewatch/internal/version"
)

// Source is the watcher state the server exposes over the socket. It is
// satisfied by *scheduler.Scheduler.
type Source interface {
	Current() core.Outcome
	LastGood() core.MetricMap
	Interval() time.Duration
}

// DefaultSocketPath returns the per-user socket the daemon listens on.
func DefaultSocketPath() string {
	return filepath.Join(config.ConfigDir(), "claudewatch.sock")
}

// Server publishes the watcher read model over a unix-domain HTTP socket.
type Server struct {
	cfg    Config
	source Source

	httpServer *http.Server
	listener   net.Listener
}

func NewServer(cfg Config, source Source) *Server {
	if strings.TrimSpace(cfg.SocketPath) == "" {
		cfg.SocketPath = DefaultSocketPath()
	}
	return &Server{cfg: cfg, source: source}
}

// SocketPath reports the resolved socket path the server binds to.
func (s *Server) SocketPath() string {
	return s.cfg.SocketPath
}

// Start binds the socket and serves until the context is cancelled. A stale
// socket file from a crashed daemon is removed; a live one is an error so two
// watchers never race over the same path.
func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.cfg.SocketPath), 0o755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	if err := EnsureSocketPathAvailable(s.cfg.SocketPath); err != nil {
		return err
	}

	listener, err := net.Listen("unix", s.cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("listen on daemon socket: %w", err)
	}
	_ = os.Chmod(s.cfg.SocketPath, 0o600)
	s.listener = listener
	log.Printf("daemon socket listening path=%s", s.cfg.SocketPath)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/read-model", s.handleReadModel)

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       20 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		_ = listener.Close()
		_ = os.Remove(s.cfg.SocketPath)
	}()
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("daemon socket server error=%v", err)
		}
	}()

	return nil
}

// EnsureSocketPathAvailable removes a leftover socket file if nothing is
// listening on it, and fails if another daemon instance answers the dial.
func EnsureSocketPathAvailable(socketPath string) error {
	socketPath = strings.TrimSpace(socketPath)
	if socketPath == "" {
		return fmt.Errorf("socket path is empty")
	}

	info, err := os.Stat(socketPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat socket path %s: %w", socketPath, err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("socket path %s already exists and is not a socket", socketPath)
	}

	dialer := net.Dialer{Timeout: 450 * time.Millisecond}
	conn, dialErr := dialer.Dial("unix", socketPath)
	if dialErr == nil {
		_ = conn.Close()
		return fmt.Errorf("daemon already running on socket %s", socketPath)
	}

	if err := os.Remove(socketPath); err != nil {
		return fmt.Errorf("remove stale daemon socket %s: %w", socketPath, err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		DaemonVersion: strings.TrimSpace(version.Version),
		APIVersion:    APIVersion,
	})
}

func (s *Server) handleReadModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, ReadModel{
		Outcome:         s.source.Current(),
		LastGood:        s.source.LastGood(),
		IntervalSeconds: int(s.source.Interval() / time.Second),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
