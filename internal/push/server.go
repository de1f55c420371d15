package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// TaskSource is the subset of the lifecycle service the push server reads
// from. Snapshots always come from here so clients see enriched tasks, never
// the raw files.
type TaskSource interface {
	GetAllTasks() (map[string]models.ProjectTasks, error)
	GetProjects() (map[string]string, error)
}

// Server wires the hub and the watcher behind one HTTP listener. Every
// change broadcast is a full snapshot; clients never have to reconcile
// deltas against local state.
type Server struct {
	source   TaskSource
	watch    WatchSource
	addr     string
	debounce time.Duration
	hub      *Hub
}

// NewServer creates a push server listening on addr.
func NewServer(source TaskSource, watch WatchSource, addr string, debounce time.Duration) *Server {
	s := &Server{
		source:   source,
		watch:    watch,
		addr:     addr,
		debounce: debounce,
	}
	s.hub = NewHub(s.snapshot)
	return s
}

// Hub exposes the underlying hub, mainly for tests.
func (s *Server) Hub() *Hub { return s.hub }

// Addr returns the listen address the server was configured with.
func (s *Server) Addr() string { return s.addr }

// Handler returns the HTTP handler: the WebSocket endpoint at /ws and a
// liveness probe at /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Run serves until ctx is cancelled, running the file watcher alongside the
// HTTP listener.
func (s *Server) Run(ctx context.Context) error {
	watcher := NewWatcher(s.watch, s.debounce, s.broadcastTasks, s.broadcastProjects)

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Run(ctx)
	}()

	httpServer := &http.Server{Addr: s.addr, Handler: s.Handler()}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("push server: %w", err)
	case err := <-watchErr:
		_ = httpServer.Close()
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("push server: %w", err)
	}
}

// snapshot builds the frames for a newly connected client: the full task
// picture first, then the registry.
func (s *Server) snapshot() []Frame {
	var frames []Frame
	if tasks, err := s.source.GetAllTasks(); err == nil {
		frames = append(frames, Frame{Type: "tasks-update", Data: tasks})
	}
	if projects, err := s.source.GetProjects(); err == nil {
		frames = append(frames, Frame{Type: "projects-update", Data: projects})
	}
	return frames
}

func (s *Server) broadcastTasks() {
	tasks, err := s.source.GetAllTasks()
	if err != nil {
		return
	}
	s.hub.Broadcast(Frame{Type: "tasks-update", Data: tasks})
}

func (s *Server) broadcastProjects() {
	projects, err := s.source.GetProjects()
	if err != nil {
		return
	}
	s.hub.Broadcast(Frame{Type: "projects-update", Data: projects})
}
