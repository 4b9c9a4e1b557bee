// File: conditions.go
// Title: Condition Resolvers
// Description: Implementations of the evaluator's condition hook: an
//              always-true default, a fixed table of named booleans, a
//              registry of named predicates over the cursor state, and a
//              chain combining several resolvers.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-19
// Modified: 2026-09-19
//
// Change History:
// - 2026-09-19 v0.1.0: Initial resolvers

// Package conditions provides resolvers for conditional markers.
package conditions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	mdwlog "github.com/msto63/ct4pwd/foundation/core/log"
	"github.com/msto63/ct4pwd/foundation/vpl/evaluator"
)

// AlwaysTrue resolves every label to true. It stands in when no real
// predicate backend exists.
func AlwaysTrue() evaluator.ConditionResolver {
	return evaluator.ResolverFunc(func(string, evaluator.State) (bool, bool) {
		return true, true
	})
}

// Table resolves labels from a fixed map. Lookups ignore case; labels
// missing from the table are unknown.
type Table map[string]bool

// NewTable copies values into a Table with normalised keys
func NewTable(values map[string]bool) Table {
	t := make(Table, len(values))
	for k, v := range values {
		t[normalize(k)] = v
	}
	return t
}

// Resolve implements evaluator.ConditionResolver
func (t Table) Resolve(label string, _ evaluator.State) (bool, bool) {
	v, ok := t[normalize(label)]
	return v, ok
}

// Predicate decides a condition from the current cursor state
type Predicate func(state evaluator.State) bool

// Registry maps condition names and their aliases to predicates. Names
// are case-insensitive. A Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
	aliases    map[string]string
	logger     *mdwlog.Logger
}

// Options configures a Registry
type Options struct {
	Logger *mdwlog.Logger

	// WithBuiltins registers the cursor predicates at_start and has_moved
	WithBuiltins bool
}

// NewRegistry creates a registry
func NewRegistry(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	r := &Registry{
		predicates: make(map[string]Predicate),
		aliases:    make(map[string]string),
		logger:     opts.Logger.WithField("component", "conditions"),
	}
	if opts.WithBuiltins {
		r.registerBuiltins()
	}
	return r
}

// Register adds a named predicate
func (r *Registry) Register(name string, p Predicate) error {
	key := normalize(name)
	if key == "" {
		return errors.New("condition name cannot be empty")
	}
	if p == nil {
		return fmt.Errorf("condition %s: predicate cannot be nil", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.predicates[key]; exists {
		return fmt.Errorf("condition %s already registered", key)
	}
	if _, exists := r.aliases[key]; exists {
		return fmt.Errorf("condition %s already registered as alias", key)
	}
	r.predicates[key] = p

	r.logger.Debug("condition registered", mdwlog.Fields{"name": key})
	return nil
}

// RegisterAlias makes alias resolve to the registered condition target
func (r *Registry) RegisterAlias(alias, target string) error {
	a, t := normalize(alias), normalize(target)
	if a == "" {
		return errors.New("alias name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.predicates[t]; !ok {
		return fmt.Errorf("alias %s: unknown condition %s", a, t)
	}
	if _, exists := r.predicates[a]; exists {
		return fmt.Errorf("alias %s collides with a condition", a)
	}
	r.aliases[a] = t
	return nil
}

// Has reports whether name or an alias of that name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// Names returns the registered condition names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.predicates))
	for n := range r.predicates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve implements evaluator.ConditionResolver
func (r *Registry) Resolve(label string, state evaluator.State) (bool, bool) {
	p, ok := r.lookup(label)
	if !ok {
		return false, false
	}
	return p(state), true
}

func (r *Registry) lookup(name string) (Predicate, bool) {
	key := normalize(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[key]; ok {
		key = target
	}
	p, ok := r.predicates[key]
	return p, ok
}

func (r *Registry) registerBuiltins() {
	r.predicates["at_start"] = func(s evaluator.State) bool { return s.X == 0 && s.Y == 0 }
	r.predicates["has_moved"] = func(s evaluator.State) bool { return s.Steps > 0 }
	r.aliases["at_origin"] = "at_start"
}

// Chain asks each resolver in turn; the first that knows a label decides
func Chain(resolvers ...evaluator.ConditionResolver) evaluator.ConditionResolver {
	return evaluator.ResolverFunc(func(label string, state evaluator.State) (bool, bool) {
		for _, r := range resolvers {
			if r == nil {
				continue
			}
			if v, ok := r.Resolve(label, state); ok {
				return v, true
			}
		}
		return false, false
	})
}

// normalize folds case and treats spaces and dashes like underscores, so
// "Path Clear" and "path-clear" both name path_clear
func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}
