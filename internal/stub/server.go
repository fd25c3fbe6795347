package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rodri-oliveira/atendeja/internal/order"
)

const (
	// DefaultHost is the loopback interface used when no override is given.
	DefaultHost = "127.0.0.1"
	// DefaultPort matches the real service's local port.
	DefaultPort = 8000
	// DefaultReadTimeout guards hung clients.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds handler writes.
	DefaultWriteTimeout = 15 * time.Second
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
)

// Settings configures the stub server's listener.
type Settings struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SettingsFromEnv builds Settings from defaults plus ATENDEJA_SIM_*
// environment overrides.
func SettingsFromEnv() Settings {
	s := Settings{
		Host:         DefaultHost,
		Port:         DefaultPort,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}
	if host := strings.TrimSpace(os.Getenv("ATENDEJA_SIM_HOST")); host != "" {
		s.Host = host
	}
	if port := strings.TrimSpace(os.Getenv("ATENDEJA_SIM_PORT")); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && parsed > 0 && parsed <= 65535 {
			s.Port = parsed
		}
	}
	return s
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Logger records server status lines.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Server wraps the HTTP listener and handlers over a Store.
type Server struct {
	settings Settings
	store    *Store
	logger   Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// ServerOption customizes server construction.
type ServerOption func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer prepares a stub server over store.
func NewServer(settings Settings, store *Store, opts ...ServerOption) *Server {
	s := &Server{settings: settings, store: store, logger: nopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("stub: server already started")
	}
	listener, err := net.Listen("tcp", s.settings.Address())
	if err != nil {
		return fmt.Errorf("stub: listen %s: %w", s.settings.Address(), err)
	}
	s.listener = listener
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("stub: serve error: %v", err)
		}
	}()
	s.logger.Printf("stub: order service listening on %s", listener.Addr().String())
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.server = nil
	s.listener = nil
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler exposes the route table, also usable under httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/orders", s.handleList)
	mux.HandleFunc("/orders/", s.handleOrder)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, s.store.List(ParseListQuery(r.URL.Query().Get)))
}

// handleOrder dispatches /orders/{id}[/status|/events|/relation|/reorders].
func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/orders/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeDetail(w, http.StatusNotFound, "order_not_found")
		return
	}
	id := order.ID(parts[0])
	switch {
	case len(parts) == 1:
		s.handleOne(w, r, id)
	case len(parts) == 2 && parts[1] == "status":
		s.handleSetStatus(w, r, id)
	case len(parts) == 2 && parts[1] == "events":
		s.respondGet(w, r, func() (any, error) { return s.store.Events(id) })
	case len(parts) == 2 && parts[1] == "relation":
		s.respondGet(w, r, func() (any, error) { return s.store.Relation(id) })
	case len(parts) == 2 && parts[1] == "reorders":
		s.respondGet(w, r, func() (any, error) { return s.store.Reorders(id) })
	default:
		writeDetail(w, http.StatusNotFound, "unknown_resource")
	}
}

func (s *Server) handleOne(w http.ResponseWriter, r *http.Request, id order.ID) {
	switch r.Method {
	case http.MethodGet:
		detail, err := s.store.Get(id)
		s.respond(w, detail, err)
	case http.MethodPatch:
		switch op := r.URL.Query().Get("op"); op {
		case "confirm":
			detail, err := s.store.Confirm(id)
			s.respond(w, detail, err)
		case "set_address":
			var body struct {
				Address order.Address `json:"address"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeDetail(w, http.StatusBadRequest, "invalid_json")
				return
			}
			detail, err := s.store.SetAddress(id, body.Address)
			s.respond(w, detail, err)
		default:
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("unknown_op:%s", op))
		}
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPatch)
	}
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request, id order.ID) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, http.MethodPatch)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid_json")
		return
	}
	summary, err := s.store.SetStatus(id, order.Status(body.Status))
	s.respond(w, summary, err)
}

func (s *Server) respondGet(w http.ResponseWriter, r *http.Request, load func() (any, error)) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	payload, err := load()
	s.respond(w, payload, err)
}

func (s *Server) respond(w http.ResponseWriter, payload any, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, payload)
		return
	}
	var rejection *Rejection
	switch {
	case errors.Is(err, ErrNotFound):
		writeDetail(w, http.StatusNotFound, "order_not_found")
	case errors.As(err, &rejection):
		writeDetail(w, http.StatusBadRequest, rejection.Detail)
	default:
		s.logger.Printf("stub: handler error: %v", err)
		writeDetail(w, http.StatusInternalServerError, "internal_error")
	}
}

func methodNotAllowed(w http.ResponseWriter, methods ...string) {
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeDetail(w, http.StatusMethodNotAllowed, "method_not_allowed")
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
