// ABOUTME: Thread-safe registry mapping tool names to definitions and handlers.
// ABOUTME: Populated once at startup; read-only for the life of the process.

package tools

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrToolCollision indicates a tool name is already registered.
var ErrToolCollision = errors.New("tool name collision")

// ErrNilHandler indicates a registration without a handler.
var ErrNilHandler = errors.New("nil tool handler")

// Entry pairs a tool definition with its handler.
type Entry struct {
	Definition Definition
	Handler    Handler
}

// Registry maintains the static tool catalogue. Registration happens during
// startup wiring; lookups dominate afterwards, hence the RWMutex.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Entry
	logger *slog.Logger
}

// NewRegistry creates a new Registry instance.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]*Entry),
		logger: logger,
	}
}

// Register validates and stores a tool definition with its handler.
// Returns ErrToolCollision if the name is already taken.
func (r *Registry) Register(def Definition, handler Handler) error {
	if def.Name == "" {
		return errors.New("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("%w: tool %q", ErrNilHandler, def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: tool %q already registered", ErrToolCollision, def.Name)
	}

	r.tools[def.Name] = &Entry{Definition: def, Handler: handler}
	r.logger.Debug("registered tool", "tool_name", def.Name, "scope", string(def.Scope))
	return nil
}

// Lookup returns the entry for a tool name, or false if absent.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.tools[name]
	return entry, ok
}

// Definitions returns all tool definitions sorted by name.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, entry := range r.tools {
		defs = append(defs, entry.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Names returns all registered tool names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools (for logging and monitoring).
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
