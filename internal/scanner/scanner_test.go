package scanner

import (
	"context"
	"errors"
	"testing"

	"NewsAggregator/internal/domain"
)

type stubSource struct{ name string }

func (s stubSource) Name() string                           { return s.name }
func (s stubSource) Fetch(context.Context) ([]Item, error) { return nil, nil }

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubSource{name: "rss"})
	reg.Register(stubSource{name: "guardian"})

	src, err := reg.Resolve("rss")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if src.Name() != "rss" {
		t.Fatalf("unexpected source: %s", src.Name())
	}

	_, err = reg.Resolve("teletext")
	if !errors.Is(err, domain.ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "guardian" || names[1] != "rss" {
		t.Fatalf("unexpected names: %v", names)
	}
}
