package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hectorgimenez/afkbot/internal/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const broadcastInterval = time.Second

type Controller interface {
	Start(ctx context.Context) error
	Stop()
	Status() bot.Status
}

type HttpServer struct {
	logger   *slog.Logger
	server   *http.Server
	manager  Controller
	registry *prometheus.Registry
	wsServer *WebSocketServer
	runCtx   context.Context

	buildVersion string
}

type statusResponse struct {
	bot.Status
	UptimeSeconds float64 `json:"uptimeSeconds"`
	Version       string  `json:"version"`
}

// New builds the status server. Runs started through the API live as long as runCtx.
func New(runCtx context.Context, logger *slog.Logger, manager Controller, version string) (*HttpServer, error) {
	s := &HttpServer{
		logger:   logger,
		manager:  manager,
		registry: prometheus.NewRegistry(),
		wsServer: NewWebSocketServer(logger),
		runCtx:   runCtx,
	}
	if err := s.registerMetrics(version); err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	return s, nil
}

func (s *HttpServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.status)
	mux.HandleFunc("POST /api/start", s.startBot)
	mux.HandleFunc("POST /api/stop", s.stopBot)
	mux.HandleFunc("/ws", s.wsServer.HandleWebSocket)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return mux
}

func (s *HttpServer) Listen(ctx context.Context, port int) error {
	go s.wsServer.Run(ctx)
	go s.BroadcastStatus(ctx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Status server listening", slog.Int("port", port))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HttpServer) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *HttpServer) BroadcastStatus(ctx context.Context) {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		jsonData, err := json.Marshal(s.statusData())
		if err != nil {
			s.logger.Error("Failed to marshal status data", slog.Any("error", err))
			continue
		}
		s.wsServer.Broadcast(ctx, jsonData)
	}
}

func (s *HttpServer) statusData() statusResponse {
	st := s.manager.Status()
	return statusResponse{
		Status:        st,
		UptimeSeconds: st.Uptime.Seconds(),
		Version:       s.version(),
	}
}

func (s *HttpServer) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.statusData())
}

func (s *HttpServer) startBot(w http.ResponseWriter, r *http.Request) {
	err := s.manager.Start(s.runCtx)
	switch {
	case errors.Is(err, bot.ErrAlreadyRunning):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, s.statusData())
}

func (s *HttpServer) stopBot(w http.ResponseWriter, r *http.Request) {
	s.manager.Stop()
	writeJSON(w, http.StatusOK, s.statusData())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", slog.Any("error", err))
	}
}
