// Package server exposes the generation engine over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/mindmap/internal/config"
	"github.com/agenthands/mindmap/internal/core"
	"github.com/agenthands/mindmap/internal/driver"
	"github.com/agenthands/mindmap/internal/llm"
	"github.com/agenthands/mindmap/internal/mindmap"
)

type Server struct {
	Generator *core.Generator
	Driver    driver.GraphDriver
	Logger    *zap.Logger
}

// NewServer builds the full stack from config/config.toml (or CONFIG_PATH)
// with env-var overrides. Configuration problems are fatal at startup.
func NewServer(logger *zap.Logger) (*Server, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("could not load config file, using env-only configuration", zap.Error(err))
		cfg = &config.Config{}
	}
	applyEnv(cfg)

	gen, err := core.NewFromConfig(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{Generator: gen, Logger: logger}
	if cfg.Memgraph.URI != "" {
		d, err := driver.NewMemgraphDriver(cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger)
		if err != nil {
			return nil, err
		}
		s.Driver = d
	}
	return s, nil
}

func applyEnv(cfg *config.Config) {
	if spec := os.Getenv("LLM_MODEL_SPEC"); spec != "" {
		if provider, model, err := llm.ParseSpec(spec); err == nil {
			cfg.LLM.Base.Provider = provider
			cfg.LLM.Base.Model = model
		}
	}
	if spec := os.Getenv("LLM_REASONING_MODEL_SPEC"); spec != "" {
		if provider, model, err := llm.ParseSpec(spec); err == nil {
			cfg.LLM.Reasoning.Provider = provider
			cfg.LLM.Reasoning.Model = model
		}
	}
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		cfg.LLM.Base.APIKey = apiKey
		if cfg.LLM.Reasoning.APIKey == "" {
			cfg.LLM.Reasoning.APIKey = apiKey
		}
	}
	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		cfg.LLM.Base.BaseURL = baseURL
	}
	if uri := os.Getenv("MEMGRAPH_URI"); uri != "" {
		cfg.Memgraph.URI = uri
	}
	if pass := os.Getenv("MEMGRAPH_PASSWORD"); pass != "" {
		cfg.Memgraph.Password = pass
	}
	if cfg.LLM.Reasoning.Provider == "" {
		cfg.LLM.Reasoning = cfg.LLM.Base
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/generate", s.Generate)
	r.POST("/refine", s.Refine)
	r.POST("/bootstrap", s.Bootstrap)
	r.POST("/dynamic", s.Dynamic)
	r.POST("/publish", s.Publish)

	return r
}

type outcomeResponse struct {
	Tree             *mindmap.MindMap `json:"tree,omitempty"`
	Rows             []mindmap.Row    `json:"rows,omitempty"`
	Report           *mindmap.Report  `json:"report,omitempty"`
	RefinementFailed bool             `json:"refinement_failed,omitempty"`
	Error            string           `json:"error,omitempty"`
}

func toResponse(o *core.Outcome) outcomeResponse {
	resp := outcomeResponse{
		Report:           o.Report,
		RefinementFailed: o.RefinementFailed,
	}
	if o.Tree != nil {
		resp.Tree = o.Tree
		resp.Rows = o.Tree.Rows()
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	return resp
}

func (s *Server) fail(c *gin.Context, err error) {
	var cfgErr *llm.ConfigurationError
	status := http.StatusBadGateway
	if errors.As(err, &cfgErr) {
		status = http.StatusBadRequest
	}
	s.Logger.Error("generation request failed", zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) Generate(c *gin.Context) {
	var req core.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	outcome, err := s.Generator.OneShot(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(outcome))
}

type refineRequest struct {
	core.Request
	Seed *mindmap.MindMap `json:"seed"`
}

func (s *Server) Refine(c *gin.Context) {
	var req refineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	outcome, err := s.Generator.Refined(c.Request.Context(), req.Request, req.Seed)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(outcome))
}

type bootstrapRequest struct {
	core.Request
	Seed     *mindmap.MindMap `json:"seed"`
	Variants int              `json:"variants"`
}

func (s *Server) Bootstrap(c *gin.Context) {
	var req bootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	outcomes, err := s.Generator.Bootstrap(c.Request.Context(), req.Request, req.Seed, req.Variants)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := make([]outcomeResponse, len(outcomes))
	for i := range outcomes {
		resp[i] = toResponse(&outcomes[i])
	}
	c.JSON(http.StatusOK, gin.H{"variants": resp})
}

type dynamicRequest struct {
	core.Request
	Seed      *mindmap.MindMap `json:"seed"`
	Intervals []core.Interval  `json:"intervals"`
}

func (s *Server) Dynamic(c *gin.Context) {
	var req dynamicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	series, err := s.Generator.Dynamic(c.Request.Context(), req.Request, req.Seed, req.Intervals)
	if err != nil {
		s.fail(c, err)
		return
	}

	entries := make([]gin.H, len(series.Entries))
	for i, e := range series.Entries {
		entries[i] = gin.H{"interval": e.Interval, "result": toResponse(&e.Outcome)}
	}
	resp := gin.H{"intervals": entries}
	if series.Base != nil {
		resp["base"] = toResponse(series.Base)
	}
	c.JSON(http.StatusOK, resp)
}

type publishRequest struct {
	MapID string           `json:"map_id"`
	Tree  *mindmap.MindMap `json:"tree"`
}

func (s *Server) Publish(c *gin.Context) {
	if s.Driver == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no graph backend configured"})
		return
	}
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Tree == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.MapID == "" {
		req.MapID = uuid.New().String()
	}
	if err := driver.Publish(c.Request.Context(), s.Driver, req.MapID, req.Tree); err != nil {
		s.Logger.Error("publish failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to publish mind map"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"map_id": req.MapID})
}
