package domain

import (
	"context"
	"errors"
)

var (
	// ErrArticleNotFound indicates the requested article does not exist.
	ErrArticleNotFound = errors.New("article not found")

	// ErrDuplicateArticle indicates an article with the same URL already exists.
	ErrDuplicateArticle = errors.New("article already exists")

	// ErrMalformedItem marks a raw item missing its URL or title.
	ErrMalformedItem = errors.New("malformed item")

	// ErrSourceUnavailable wraps network and HTTP failures reaching a source.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUnknownSource is returned for identifiers outside the registered set.
	ErrUnknownSource = errors.New("unknown source")

	// ErrDelegateUnavailable means an AI delegate is unconfigured or its breaker is open.
	ErrDelegateUnavailable = errors.New("delegate unavailable")

	// ErrMalformedResponse means a reachable delegate answered with something unusable.
	ErrMalformedResponse = errors.New("malformed delegate response")

	// ErrNothingToAnalyze marks an article with neither content nor description.
	ErrNothingToAnalyze = errors.New("article has no text to analyze")
)

// IsRetryable reports whether an orchestration error is a transient failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrArticleNotFound),
		errors.Is(err, ErrMalformedItem),
		errors.Is(err, ErrNothingToAnalyze),
		errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}
