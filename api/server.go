// Package api provides the HTTP REST API server for dexlens.
//
// It exposes the rendered screener table, view-state commands (search,
// liquidity filter, market-cap bounds, sorting, column visibility), a
// market news feed, and WebSocket refresh notifications.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dexlens/dexlens/internal/config"
	"github.com/dexlens/dexlens/internal/datasource"
	"github.com/dexlens/dexlens/internal/screener"
	"github.com/dexlens/dexlens/web"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	engine  *screener.Engine
	news    *datasource.News // nil when news is disabled
	wsHub   *WSHub
	serveUI bool

	mu      sync.Mutex
	loadErr string // last refresh failure, cleared on the next good snapshot
}

// NewServer creates a configured API server with all routes and middleware.
// news may be nil.
func NewServer(cfg *config.Config, engine *screener.Engine, news *datasource.News) *Server {
	srv := &Server{
		cfg:     cfg,
		engine:  engine,
		news:    news,
		wsHub:   NewWSHub(),
		serveUI: true,
	}
	srv.router = srv.buildRouter()
	return srv
}

// SetServeUI controls whether the embedded web UI is served.
// Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// NotifyRefresh records a successful snapshot and tells connected clients
// to re-fetch the table.
func (s *Server) NotifyRefresh(snap datasource.Snapshot) {
	s.mu.Lock()
	s.loadErr = ""
	s.mu.Unlock()

	s.wsHub.Broadcast(WSMessage{
		Type: "snapshot",
		Data: map[string]interface{}{
			"tokens":        len(snap.Records),
			"fetched_at":    snap.FetchedAt,
			"ref_price_usd": snap.RefPriceUSD,
		},
	})
}

// NotifyLoadError records a failed refresh. The previous table stays
// served; clients see the error alongside it.
func (s *Server) NotifyLoadError(err error) {
	s.mu.Lock()
	s.loadErr = err.Error()
	s.mu.Unlock()

	s.wsHub.Broadcast(WSMessage{
		Type: "load_error",
		Data: map[string]interface{}{"error": err.Error()},
	})
}

func (s *Server) lastLoadError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "err", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Table
		r.Get("/table", s.handleTable)
		r.Get("/columns", s.handleColumns)

		// View state commands
		r.Post("/view/search", s.handleSearch)
		r.Post("/view/liquidity", s.handleLiquidity)
		r.Post("/view/marketcap", s.handleMarketCap)
		r.Post("/view/sort/{column}", s.handleSort)
		r.Post("/view/columns/{column}/toggle", s.handleToggleColumn)

		// News
		r.Get("/news", s.handleNews)

		// WebSocket refresh notifications
		r.Get("/ws", s.handleWebSocket)
	})

	// Serve the embedded web UI
	if s.serveUI {
		s.mountStatic(r)
	}

	return r
}

// mountStatic serves the embedded static UI, with index.html at /.
func (s *Server) mountStatic(r chi.Router) {
	staticFS := web.StaticFS()
	fileServer := http.FileServerFS(staticFS)

	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		rPath := strings.TrimPrefix(req.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}
		if f, err := staticFS.Open(rPath); err != nil {
			http.NotFound(w, req)
			return
		} else {
			f.Close()
		}
		if strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		fileServer.ServeHTTP(w, req)
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SearchRequest is the body for POST /api/v1/view/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// LiquidityRequest is the body for POST /api/v1/view/liquidity.
type LiquidityRequest struct {
	Class string `json:"class"` // "all", "liquid", "illiquid"
}

// MarketCapRequest is the body for POST /api/v1/view/marketcap.
// Bounds are free text; text that does not parse leaves the bound unset.
type MarketCapRequest struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// tableData wraps the rendered table with refresh status.
type tableData struct {
	screener.TableView
	LoadError string `json:"load_error,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	view := s.engine.Table()
	data := map[string]interface{}{
		"status":     "ok",
		"tokens":     view.Total,
		"fetched_at": view.FetchedAt,
		"ws_clients": s.wsHub.ClientCount(),
	}
	if errMsg := s.lastLoadError(); errMsg != "" {
		data["status"] = "degraded"
		data["load_error"] = errMsg
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	s.writeTable(w)
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.engine.Columns(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.engine.SetSearch(req.Query)
	s.writeTable(w)
}

func (s *Server) handleLiquidity(w http.ResponseWriter, r *http.Request) {
	var req LiquidityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	class, ok := screener.ParseLiquidityClass(req.Class)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid liquidity class: "+req.Class)
		return
	}
	s.engine.SetLiquidityFilter(class)
	s.writeTable(w)
}

func (s *Server) handleMarketCap(w http.ResponseWriter, r *http.Request) {
	var req MarketCapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.engine.SetMarketCapBounds(req.Min, req.Max)
	s.writeTable(w)
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")
	if !screener.KnownColumn(column) {
		writeError(w, http.StatusBadRequest, "unknown column: "+column)
		return
	}
	s.engine.SetSort(column)
	s.writeTable(w)
}

func (s *Server) handleToggleColumn(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")
	if !screener.KnownColumn(column) {
		writeError(w, http.StatusBadRequest, "unknown column: "+column)
		return
	}
	visible := s.engine.ToggleColumn(column)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"column":  column,
			"visible": visible,
			"columns": s.engine.Columns(),
		},
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		writeError(w, http.StatusServiceUnavailable, "news feed is disabled")
		return
	}

	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	items, err := s.news.GetHeadlines(ctx, limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: items})
}

// writeTable renders the current view with refresh status attached.
func (s *Server) writeTable(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: tableData{
			TableView: s.engine.Table(),
			LoadError: s.lastLoadError(),
		},
	})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}
