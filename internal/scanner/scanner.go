package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"NewsAggregator/internal/domain"
)

// Item is a raw article as delivered by a source, before normalization.
// Sources reduce markup to plain text; length caps and date parsing happen downstream.
type Item struct {
	URL         string
	Title       string
	Description string
	Content     string
	Author      string
	SourceName  string
	Section     string
	// Published is the source's date string; PublishedAt wins when the source already parsed it.
	Published   string
	PublishedAt *time.Time
}

// Source captures a single upstream provider (NewsAPI, Guardian, RSS, etc.).
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Item, error)
}

// Registry keeps a mapping from source identifiers to their implementations.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(source Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[source.Name()] = source
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if source, ok := r.sources[name]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("source %s is not registered: %w", name, domain.ErrUnknownSource)
}

// Names lists registered identifiers in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
