// Package api exposes the inference pipeline over a local HTTP surface,
// mirroring the host-caller boundary operation for operation.
package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/mazzlabs/sentinel/internal/bridge"
	"github.com/mazzlabs/sentinel/internal/engine"
	"github.com/mazzlabs/sentinel/internal/logger"
)

// Server routes HTTP requests onto one engine instance. Inference requests
// serialize on the engine's lock, so concurrent callers queue.
type Server struct {
	engine *engine.Engine
	log    logger.Logger
	clock  func() time.Time
}

// NewServer returns a server over eng.
func NewServer(eng *engine.Engine, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{engine: eng, log: log, clock: time.Now}
}

// Register mounts all routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/model", s.handleModelInfo)
	e.POST("/v1/model/load", s.handleModelLoad)
	e.POST("/v1/model/release", s.handleModelRelease)
	e.POST("/v1/model/params", s.handleModelParams)
	e.POST("/v1/infer", s.handleInfer)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Ready: s.engine.Ready()})
}

func (s *Server) handleModelInfo(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.Info())
}

func (s *Server) handleModelLoad(c *echo.Context) error {
	req, err := decodeJSON[LoadRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if strings.TrimSpace(req.ModelPath) == "" {
		return writeBadRequest(c, "model_path is required")
	}
	if err := s.engine.Initialize(req.ModelPath, req.GrammarPath); err != nil {
		return writeError(c, http.StatusUnprocessableEntity, "model_load_error", err.Error())
	}
	return c.JSON(http.StatusOK, StatusResponse{Loaded: true})
}

func (s *Server) handleModelRelease(c *echo.Context) error {
	s.engine.Release()
	return c.JSON(http.StatusOK, StatusResponse{Released: true})
}

func (s *Server) handleModelParams(c *echo.Context) error {
	req, err := decodeJSON[ParamsRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	s.engine.SetParams(req.Temperature, req.TopP, req.MaxTokens)
	return c.JSON(http.StatusOK, StatusResponse{Updated: true})
}

func (s *Server) handleInfer(c *echo.Context) error {
	req, err := decodeJSON[InferRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if strings.TrimSpace(req.Query) == "" {
		return writeBadRequest(c, "query is required")
	}

	var opts engine.InferOptions
	switch {
	case req.GrammarPath != "":
		grammar := engine.ReadGrammar(req.GrammarPath, s.log)
		opts.GrammarOverride = &grammar
		opts.RawSystemPrompt = true
	case req.NoGrammar:
		none := ""
		opts.GrammarOverride = &none
	}

	resp := InferResponse{
		ID:        "inf_" + uuid.NewString(),
		Object:    "inference",
		CreatedAt: s.clock().Unix(),
	}

	result, err := s.engine.Infer(req.Query, req.Screen, opts)
	switch {
	case errors.Is(err, engine.ErrInjectionBlocked):
		resp.Output = bridge.BlockedPayload
		resp.Blocked = true
	case err != nil:
		resp.Output = bridge.FailureJSON(err.Error())
		resp.Failed = true
	default:
		resp.Output = result.Text
		resp.Truncated = result.Truncated
		resp.Stats = &InferStats{
			PromptTokens:    result.Stats.PromptTokens,
			TokensGenerated: result.Stats.TokensGenerated,
			DurationMS:      result.Stats.Duration.Milliseconds(),
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorResponse{Message: msg, Type: errType},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
