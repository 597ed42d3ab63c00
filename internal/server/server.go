// Package server exposes the search call over HTTP for the UI search box.
package server

import (
	"context"
	"net/http"

	"github.com/jobatlas/jobatlas/internal/jobs"
	"github.com/jobatlas/jobatlas/internal/logger"
	"github.com/jobatlas/jobatlas/internal/matcher"
	"github.com/jobatlas/jobatlas/internal/orchestrator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Searcher is the orchestrator surface the server needs.
type Searcher interface {
	Search(ctx context.Context, req *jobs.SearchRequest) (*jobs.SearchResult, error)
	SearchAll(ctx context.Context, req *jobs.SearchRequest) (*jobs.SearchResult, error)
}

type Server struct {
	searcher Searcher
	matcher  *matcher.Matcher
	health   func() []orchestrator.Health
	logger   *zap.Logger
	engine   *gin.Engine
}

func New(searcher Searcher, m *matcher.Matcher, health func() []orchestrator.Health, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		searcher: searcher,
		matcher:  m,
		health:   health,
		logger:   log,
		engine:   gin.New(),
	}

	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", s.handleHealthz)

	api := s.engine.Group("/api/v1")
	api.POST("/search", s.handleSearch)
	api.GET("/sources", s.handleSources)

	return s
}

// Handler exposes the router for tests and custom http servers.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Run(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.engine.Run(addr)
}

// searchPayload is the HTTP request body: the search request plus the
// optional personalization profile.
type searchPayload struct {
	jobs.SearchRequest
	All     bool                 `json:"all,omitempty"`
	Profile *matcher.UserProfile `json:"profile,omitempty"`
}

type searchResponse struct {
	*jobs.SearchResult
	Personalized bool `json:"personalized,omitempty"`
}

func (s *Server) handleSearch(c *gin.Context) {
	var payload searchPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	log := logger.WithFields(s.logger, zap.String("query", logger.TruncateForLog(payload.Query, 80)))

	var (
		result *jobs.SearchResult
		err    error
	)
	if payload.All {
		result, err = s.searcher.SearchAll(c.Request.Context(), &payload.SearchRequest)
	} else {
		result, err = s.searcher.Search(c.Request.Context(), &payload.SearchRequest)
	}

	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case jobs.IsKind(err, jobs.KindValidation):
			status = http.StatusBadRequest
		case jobs.IsKind(err, jobs.KindAllSourcesFailed):
			status = http.StatusBadGateway
		}
		log.Warn("search failed", zap.Int("status", status), zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	response := searchResponse{SearchResult: result}

	if payload.Profile != nil && s.matcher != nil {
		// Rescore copies so the cached result stays profile-free.
		personalized := *result
		personalized.Postings = s.matcher.Rescore(result.CopyPostings(), payload.Profile)
		personalized.TotalCount = len(personalized.Postings)
		response.SearchResult = &personalized
		response.Personalized = true
	}

	logger.WithSearchFields(log, "", response.AlgorithmID).Debug("search served",
		zap.Int("count", response.TotalCount),
		zap.Bool("personalized", response.Personalized),
	)
	c.JSON(http.StatusOK, response)
}

func (s *Server) handleSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": s.health()})
}

func (s *Server) handleHealthz(c *gin.Context) {
	var unavailable []string
	for _, h := range s.health() {
		if !h.Available {
			unavailable = append(unavailable, h.Adapter)
		}
	}

	if len(unavailable) > 0 {
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "unavailable": unavailable})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Compile-time check that the orchestrator satisfies the server contract.
var _ Searcher = (*orchestrator.Orchestrator)(nil)
