// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     service
// Description: Compile request orchestration for the Lovelace service
// Author:      msto63
// Created:     2026-09-24
// License:     MIT
// ============================================================================

package service

import (
	"context"
	"time"

	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
	"github.com/msto63/ct4pwd/foundation/vpl"
	"github.com/msto63/ct4pwd/foundation/vpl/ast"
	"github.com/msto63/ct4pwd/foundation/vpl/evaluator"
	"github.com/msto63/ct4pwd/foundation/vpl/structurer"
	"github.com/msto63/ct4pwd/foundation/vpl/token"
	"github.com/msto63/ct4pwd/internal/lovelace/detector"
	"github.com/msto63/ct4pwd/internal/lovelace/store"
	"github.com/msto63/ct4pwd/pkg/core/cache"
	"github.com/msto63/ct4pwd/pkg/core/logging"
)

// Request is one compile request. Either Tokens or Image is set; Expected
// or LevelID switches to verify mode.
type Request struct {
	Tokens    []token.Token
	Image     []byte
	Filename  string
	Expected  string
	LevelID   string
	RequestID string
}

// Response is the client-facing compile outcome
type Response struct {
	Success   bool   `json:"success"`
	IsCorrect bool   `json:"is_correct"`
	Output    string `json:"output"`
}

// Result is the full outcome of a compile request
type Result struct {
	Response
	Trace   evaluator.Trace `json:"trace,omitempty"`
	Program string          `json:"program,omitempty"`
	Stage   string          `json:"stage,omitempty"`
	Code    string          `json:"code,omitempty"`
	Row     int             `json:"row,omitempty"`
	Verify  bool            `json:"verify"`
	Legacy  bool            `json:"legacy,omitempty"`
	Tokens  int             `json:"tokens"`
	Cached  bool            `json:"cached"`
	RunID   string          `json:"run_id,omitempty"`
}

// Config holds service configuration
type Config struct {
	Engine               vpl.Options
	Detector             detector.Detector
	Store                store.Store
	LegacyDirectionsOnly bool
	CacheTTL             time.Duration
	CacheSize            int
	DisableCache         bool
	RecordRuns           bool
	Logger               *logging.Logger
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Engine:     vpl.DefaultOptions(),
		CacheTTL:   10 * time.Minute,
		CacheSize:  256,
		RecordRuns: true,
	}
}

// Service compiles marker programs
type Service struct {
	engine   *vpl.Engine
	detector detector.Detector
	store    store.Store
	cache    *cache.Cache[Result]
	logger   *logging.Logger
	legacy   bool
	record   bool
}

// New creates a new compile service. A nil Store means runs and levels
// are kept in memory; a nil Detector rejects image uploads.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("lovelace-service")
	}

	engineOpts := cfg.Engine
	if engineOpts.Logger == nil {
		engineOpts.Logger = logger.Logger
	}

	det := cfg.Detector
	if det == nil {
		det = detector.Unavailable()
	}
	st := cfg.Store
	if st == nil {
		st = store.NewMemoryStore()
	}

	s := &Service{
		engine:   vpl.New(engineOpts),
		detector: det,
		store:    st,
		logger:   logger,
		legacy:   cfg.LegacyDirectionsOnly,
		record:   cfg.RecordRuns,
	}
	if !cfg.DisableCache {
		s.cache = cache.New[Result](cache.Config{
			MaxItems: cfg.CacheSize,
			TTL:      cfg.CacheTTL,
		})
	}

	return s
}

// Store returns the level and run store
func (s *Service) Store() store.Store {
	return s.store
}

// Compile detects (when an image is given), compiles and, in verify mode,
// checks the program. Compile failures are reported in the Result with
// Success false; the error return is reserved for request failures such as
// an unreadable image, an unknown level or an unreachable detector.
func (s *Service) Compile(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	logger := s.logger.With("request_id", req.RequestID)

	tokens := req.Tokens
	if len(req.Image) > 0 {
		detected, err := s.detector.Detect(ctx, req.Image, req.Filename)
		if err != nil {
			e := mdwerror.Wrap(err, "marker detection failed").
				WithOperation("detect").
				WithRequestID(req.RequestID)
			logger.LogError(e)
			return nil, e
		}
		tokens = detected
	}

	mode, err := s.mode(ctx, req)
	if err != nil {
		e := mdwerror.Wrap(err, "invalid verification target").WithRequestID(req.RequestID)
		logger.LogError(e)
		return nil, e
	}

	key, keyErr := cache.Key("compile", tokens, mode.IsVerify(), mode.Expected(), s.legacy)
	var result Result
	cached := false
	if s.cache != nil && keyErr == nil {
		if hit, ok := s.cache.Get(key); ok {
			result = hit
			cached = true
		}
	}
	if !cached {
		result = s.compile(tokens, mode, logger)
		if s.cache != nil && keyErr == nil {
			s.cache.Set(key, result)
		}
	}
	result.Cached = cached

	if s.record {
		run := &store.Run{
			LevelID:    req.LevelID,
			Success:    result.Success,
			IsCorrect:  result.IsCorrect,
			Output:     result.Output,
			TokenCount: len(tokens),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err := s.store.RecordRun(ctx, run); err != nil {
			logger.Warn("failed to record run", "error", err)
		} else {
			result.RunID = run.ID
		}
	}

	logger.Info("compile finished",
		"tokens", len(tokens),
		"success", result.Success,
		"is_correct", result.IsCorrect,
		"cached", cached,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &result, nil
}

// compile runs the pipeline on tokens and folds stage errors into the
// result
func (s *Service) compile(tokens []token.Token, mode evaluator.Mode, logger *logging.Logger) Result {
	result := Result{Verify: mode.IsVerify(), Tokens: len(tokens)}

	if s.legacy && !mode.IsVerify() {
		if trace, ok := directionsOnly(tokens); ok {
			result.Legacy = true
			result.Trace = trace
			result.Response = Response{Success: true, IsCorrect: true, Output: trace.String()}
			return result
		}
	}

	compilation, err := s.engine.Compile(tokens, mode)
	if err != nil {
		diag := Diagnose(err)
		logger.LogError(diag.Err)
		result.Stage = diag.Stage
		result.Code = diag.Code
		result.Row = diag.Row
		result.Response = Response{Success: false, IsCorrect: false, Output: diag.Output}
		return result
	}

	result.Trace = compilation.Result.Trace
	result.Program = ast.Format(compilation.Program)
	result.Response = responseFor(compilation.Result)
	return result
}

// responseFor maps an evaluation to the client response
func responseFor(r *evaluator.Result) Response {
	if r.Verdict == nil {
		return Response{Success: true, IsCorrect: true, Output: r.Trace.String()}
	}
	return Response{Success: true, IsCorrect: r.Verdict.Correct, Output: r.Verdict.Text()}
}

// mode resolves the verification target of req
func (s *Service) mode(ctx context.Context, req Request) (evaluator.Mode, error) {
	switch {
	case req.Expected != "":
		expected, err := evaluator.ParseTrace(req.Expected)
		if err != nil {
			return evaluator.Mode{}, mdwerror.Wrap(err, "invalid expected trace").
				WithCode(mdwerror.CodeInvalidFormat).
				WithDetail("field", "expected")
		}
		return evaluator.VerifyMode(expected), nil
	case req.LevelID != "":
		level, err := s.store.GetLevel(ctx, req.LevelID)
		if err != nil {
			return evaluator.Mode{}, err
		}
		expected, err := level.ExpectedTrace()
		if err != nil {
			return evaluator.Mode{}, mdwerror.Wrap(err, "level has an invalid expected trace").
				WithCode(mdwerror.CodeInvalidFormat).
				WithDetail("level", level.ID)
		}
		return evaluator.VerifyMode(expected), nil
	}
	return evaluator.TraceMode(), nil
}

// Structure groups tokens into rows without parsing them
func (s *Service) Structure(tokens []token.Token) ([]structurer.Line, error) {
	entries, err := s.engine.Structure(tokens)
	if err != nil {
		return nil, err
	}
	return structurer.Lines(entries), nil
}

// CacheStats returns hits, misses and hit rate of the result cache
func (s *Service) CacheStats() (hits, misses int64, hitRate float64) {
	if s.cache == nil {
		return 0, 0, 0
	}
	return s.cache.Stats()
}

// Close releases the cache and the store
func (s *Service) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	return s.store.Close()
}
