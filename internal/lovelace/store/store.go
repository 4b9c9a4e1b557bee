// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     store
// Description: Persistence for levels (expected traces) and compile runs
// Author:      msto63
// Created:     2026-09-22
// License:     MIT
// ============================================================================

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
	"github.com/msto63/ct4pwd/foundation/vpl/evaluator"
)

// Level is a puzzle with the trace a correct program must produce
type Level struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Expected    string    `json:"expected"`
	CreatedAt   time.Time `json:"created_at"`
}

// Run records one compile request
type Run struct {
	ID         string    `json:"id"`
	LevelID    string    `json:"level_id,omitempty"`
	Success    bool      `json:"success"`
	IsCorrect  bool      `json:"is_correct"`
	Output     string    `json:"output"`
	TokenCount int       `json:"token_count"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is the interface for level and run persistence
type Store interface {
	// SaveLevel inserts or replaces a level, assigning an ID when empty
	SaveLevel(ctx context.Context, level *Level) error

	// GetLevel retrieves a level by ID
	GetLevel(ctx context.Context, id string) (*Level, error)

	// ListLevels returns all levels ordered by ID
	ListLevels(ctx context.Context) ([]*Level, error)

	// DeleteLevel removes a level by ID
	DeleteLevel(ctx context.Context, id string) error

	// RecordRun stores a run, assigning an ID when empty
	RecordRun(ctx context.Context, run *Run) error

	// ListRuns returns the newest runs first, optionally for one level
	ListRuns(ctx context.Context, levelID string, limit int) ([]*Run, error)

	// Ping checks the store is usable
	Ping(ctx context.Context) error

	// Close closes the store
	Close() error
}

// ExpectedTrace parses the level's expected trace
func (l *Level) ExpectedTrace() (evaluator.Trace, error) {
	return evaluator.ParseTrace(l.Expected)
}

// Validate checks required fields and normalizes the expected trace to
// its literal list form
func (l *Level) Validate() error {
	l.Title = strings.TrimSpace(l.Title)
	if l.Title == "" {
		return mdwerror.New("level title is required").
			WithCode(mdwerror.CodeRequiredField).
			WithDetail("field", "title")
	}
	if strings.TrimSpace(l.Expected) == "" {
		return mdwerror.New("level expected trace is required").
			WithCode(mdwerror.CodeRequiredField).
			WithDetail("field", "expected")
	}
	trace, err := l.ExpectedTrace()
	if err != nil {
		return mdwerror.Wrap(err, "invalid expected trace").
			WithCode(mdwerror.CodeInvalidFormat).
			WithDetail("field", "expected")
	}
	l.Expected = trace.String()
	return nil
}

func notFound(kind, id string) error {
	return mdwerror.Newf("%s not found: %s", kind, id).
		WithCode(mdwerror.CodeNotFound).
		WithDetail("id", id)
}

// IsNotFound reports whether err is a missing level or run
func IsNotFound(err error) bool {
	return mdwerror.HasCode(err, mdwerror.CodeNotFound)
}

func prepareLevel(level *Level) error {
	if err := level.Validate(); err != nil {
		return err
	}
	if level.ID == "" {
		level.ID = uuid.New().String()
	}
	if level.CreatedAt.IsZero() {
		level.CreatedAt = time.Now().UTC()
	}
	return nil
}

func prepareRun(run *Run) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}

// MemoryStore is an in-memory store for tests and the CLI
type MemoryStore struct {
	mu     sync.RWMutex
	levels map[string]*Level
	runs   []*Run
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{levels: make(map[string]*Level)}
}

// SaveLevel inserts or replaces a level
func (s *MemoryStore) SaveLevel(ctx context.Context, level *Level) error {
	if err := prepareLevel(level); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *level
	s.levels[level.ID] = &cp
	return nil
}

// GetLevel retrieves a level by ID
func (s *MemoryStore) GetLevel(ctx context.Context, id string) (*Level, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	level, ok := s.levels[id]
	if !ok {
		return nil, notFound("level", id)
	}
	cp := *level
	return &cp, nil
}

// ListLevels returns all levels ordered by ID
func (s *MemoryStore) ListLevels(ctx context.Context) ([]*Level, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Level, 0, len(s.levels))
	for _, level := range s.levels {
		cp := *level
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteLevel removes a level by ID
func (s *MemoryStore) DeleteLevel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.levels[id]; !ok {
		return notFound("level", id)
	}
	delete(s.levels, id)
	return nil
}

// RecordRun stores a run
func (s *MemoryStore) RecordRun(ctx context.Context, run *Run) error {
	prepareRun(run)
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs = append(s.runs, &cp)
	return nil
}

// ListRuns returns the newest runs first
func (s *MemoryStore) ListRuns(ctx context.Context, levelID string, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Run
	for i := len(s.runs) - 1; i >= 0; i-- {
		if levelID != "" && s.runs[i].LevelID != levelID {
			continue
		}
		cp := *s.runs[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }
