// Package web serves the live monitoring dashboard: a single page, a stats endpoint and a push socket.
package web

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Qwalex/IntradayBot/internal/history"
	"github.com/Qwalex/IntradayBot/internal/signal"
)

// Push message types.
const (
	TypeStats  = "stats"
	TypeLog    = "log"
	TypeTrade  = "trade"
	TypeLogRaw = "logRaw"
)

//go:embed index.html
var indexHTML string

var pageTmpl = template.Must(template.New("index").Parse(indexHTML))

// StatsSource provides the dashboard snapshot.
type StatsSource interface {
	Snapshot() history.Stats
}

// LogEvent is the payload of a "log" message.
type LogEvent struct {
	TS      int64          `json:"ts"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Server is the dashboard. It also implements telemetry.Observer.
type Server struct {
	port     int
	stats    StatsSource
	hub      *Hub
	tailer   *LogTailer
	certPath string
	keyPath  string
	log      zerolog.Logger
	page     []byte
}

// Option configures a Server.
type Option func(*Server)

// WithTLS serves HTTPS when both paths are set.
func WithTLS(certPath, keyPath string) Option {
	return func(s *Server) {
		s.certPath = certPath
		s.keyPath = keyPath
	}
}

// WithLogFile streams the given log file to connected clients.
func WithLogFile(path string) Option {
	return func(s *Server) {
		if path != "" {
			s.tailer = NewLogTailer(path, s.log)
		}
	}
}

// NewServer builds the dashboard for port.
func NewServer(port int, stats StatsSource, log zerolog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		port:  port,
		stats: stats,
		log:   log.With().Str("component", "web").Logger(),
	}
	s.hub = NewHub(s.log)
	for _, opt := range opts {
		opt(s)
	}
	var buf bytes.Buffer
	err := pageTmpl.Execute(&buf, struct {
		Scheme string
		Port   int
	}{s.scheme(), port})
	if err != nil {
		return nil, fmt.Errorf("render dashboard: %w", err)
	}
	s.page = buf.Bytes()
	return s, nil
}

func (s *Server) tls() bool { return s.certPath != "" && s.keyPath != "" }

func (s *Server) scheme() string {
	if s.tls() {
		return "https"
	}
	return "http"
}

// Handler routes /, /stats and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(s.page)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.stats.Snapshot()); err != nil {
		s.log.Warn().Err(err).Msg("encode stats")
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	initial := []Message{{Type: TypeStats, Payload: s.stats.Snapshot()}}
	if s.tailer != nil {
		tail, err := s.tailer.Tail(TailBytes)
		if err != nil {
			s.log.Debug().Err(err).Msg("read log tail")
		} else if tail != "" {
			initial = append(initial, Message{Type: TypeLogRaw, Payload: tail})
		}
	}
	s.hub.ServeWS(w, r, initial...)
}

// OnLog pushes a log event to every client.
func (s *Server) OnLog(level, message string, fields map[string]any) {
	s.hub.Broadcast(Message{Type: TypeLog, Payload: LogEvent{
		TS:      time.Now().UnixMilli(),
		Level:   level,
		Message: message,
		Data:    fields,
	}})
}

// OnTrade pushes a trade to every client.
func (s *Server) OnTrade(rec signal.TradeRecord) {
	s.hub.Broadcast(Message{Type: TypeTrade, Payload: rec})
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.tailer != nil {
		go s.tailer.Watch(ctx, func(chunk string) {
			s.hub.Broadcast(Message{Type: TypeLogRaw, Payload: chunk})
		})
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("scheme", s.scheme()).Int("port", s.port).Msg("dashboard listening")
		var err error
		if s.tls() {
			err = srv.ListenAndServeTLS(s.certPath, s.keyPath)
		} else {
			err = srv.ListenAndServe()
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
