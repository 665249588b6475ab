package parsers

import (
	"sort"
	"sync"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry implements ParserRegistry over the closed set of supported
// file types. Registering a parser for an already-registered type replaces it.
type Registry struct {
	mu      sync.RWMutex
	parsers map[domain.FileType]driven.Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[domain.FileType]driven.Parser),
	}
}

// DefaultRegistry creates a registry with the built-in parsers registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPDFParser())
	r.Register(NewDocxParser())
	r.Register(NewTextParser())
	return r
}

// Register registers a parser for its file type.
func (r *Registry) Register(p driven.Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.FileType()] = p
}

// Parse extracts text using the parser registered for the file type.
func (r *Registry) Parse(data []byte, fileType domain.FileType) (string, error) {
	r.mu.RLock()
	p, ok := r.parsers[fileType]
	r.mu.RUnlock()

	if !ok {
		return "", domain.ErrUnsupportedFormat
	}
	return p.Parse(data)
}

// List returns all registered file types, sorted for stable output.
func (r *Registry) List() []domain.FileType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.FileType, 0, len(r.parsers))
	for ft := range r.parsers {
		types = append(types, ft)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
