// Package httpapi exposes the read/write REST surface consumed by the
// web dashboard, plus a websocket stream of per-cycle results.
package httpapi

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chokepoint-radar/internal/observability"
	"chokepoint-radar/internal/storage"
)

// Default thresholds mirrored from the store semantics.
const (
	defaultSignalLimit = 50
	highPriorityCutoff = 8.5
)

// Server wires the gin router around a SignalStore.
type Server struct {
	store  storage.SignalStore
	hub    *Hub
	logger *log.Logger
	router *gin.Engine
}

// Options contains configuration for creating a Server.
type Options struct {
	Store     storage.SignalStore
	Logger    *log.Logger
	StaticDir string // optional directory served at /
}

// NewServer creates the API server and its routes.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		store:  opts.Store,
		hub:    NewHub(logger),
		logger: logger,
		router: router,
	}

	if opts.StaticDir != "" {
		router.Static("/static", opts.StaticDir)
		router.StaticFile("/", opts.StaticDir+"/index.html")
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	api := router.Group("/api")
	{
		api.GET("/dashboard", s.getDashboard)
		api.GET("/signals", s.getSignals)
		api.GET("/signals/high-priority", s.getHighPriority)
		api.GET("/signals/sector/:sector", s.getSectorSignals)
		api.GET("/sectors", s.getSectors)
		api.GET("/watchlist", s.getWatchlist)
		api.POST("/watchlist/add/:id", s.addToWatchlist)
		api.POST("/signal/:id/archive", s.archiveSignal)
		api.GET("/ws", s.hub.Serve)
	}

	return s
}

// Hub returns the websocket hub, for wiring the engine's OnCycle callback.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the router as an http.Handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the hub and serves HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	go s.hub.Run()
	s.logger.Printf("API server listening on %s", addr)
	return s.router.Run(addr)
}

func (s *Server) getDashboard(c *gin.Context) {
	stats, err := s.store.DashboardStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getSignals(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSignalLimit)))
	if err != nil || limit < 0 {
		limit = defaultSignalLimit
	}

	signals, err := s.store.GetActive(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, signals)
}

func (s *Server) getHighPriority(c *gin.Context) {
	signals, err := s.store.GetHighPriority(c.Request.Context(), highPriorityCutoff)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, signals)
}

func (s *Server) getSectorSignals(c *gin.Context) {
	signals, err := s.store.GetBySector(c.Request.Context(), c.Param("sector"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, signals)
}

func (s *Server) getSectors(c *gin.Context) {
	stats, err := s.store.SectorStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getWatchlist(c *gin.Context) {
	entries, err := s.store.GetWatchlist(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) addToWatchlist(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signal id"})
		return
	}

	if err := s.store.AddToWatchlist(c.Request.Context(), id, "Added from web interface"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) archiveSignal(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signal id"})
		return
	}

	if err := s.store.Archive(c.Request.Context(), id, "Archived from web interface"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
