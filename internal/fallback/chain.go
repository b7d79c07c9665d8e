// Package fallback serves reads from a chain of sources: the live store first, then a frozen snapshot
// embedded in the binary. Every result says where its data came from and why.
package fallback

import (
	"context"
	"errors"

	"github.com/eduverse/site-backend/internal/store"
)

// Reason explains why a result did not come from the first provider.
type Reason string

const (
	ReasonNone               Reason = "none"
	ReasonStoreNotConfigured Reason = "store_not_configured"
	ReasonStoreUnavailable   Reason = "store_unavailable"
	ReasonStoreError         Reason = "store_error"
	ReasonStoreTimeout       Reason = "store_timeout"
	ReasonStoreEmpty         Reason = "store_empty"
)

// Source names.
const (
	SourceStore    = "store"
	SourceSnapshot = "fallback"
)

// Result is data plus its provenance.
type Result[T any] struct {
	Data   []T
	Source string
	Reason Reason
}

// Fallback reports whether the data came from anything but the primary source.
func (r Result[T]) Fallback() bool { return r.Reason != ReasonNone }

// Provider yields data or an error. A provider returning zero items without error is treated as empty.
type Provider[T any] struct {
	Name  string
	Fetch func(ctx context.Context) ([]T, error)
}

// Chain tries providers in order until one yields data. The reason recorded is the first provider's
// failure, since that is the one operators care about.
type Chain[T any] struct {
	providers []Provider[T]
}

// NewChain builds a chain; the last provider is expected to always succeed.
func NewChain[T any](providers ...Provider[T]) *Chain[T] {
	return &Chain[T]{providers: providers}
}

// Run executes the chain. When every provider fails or is empty the last provider's output is returned.
func (c *Chain[T]) Run(ctx context.Context) Result[T] {
	reason := ReasonNone
	var last Result[T]
	for i, p := range c.providers {
		data, err := p.Fetch(ctx)
		r := ReasonNone
		switch {
		case err != nil:
			r = Classify(err)
		case len(data) == 0:
			r = ReasonStoreEmpty
		}
		if reason == ReasonNone {
			reason = r
		}
		last = Result[T]{Data: data, Source: p.Name, Reason: reason}
		if r == ReasonNone {
			return last
		}
		if i == len(c.providers)-1 && err == nil {
			return last
		}
	}
	if last.Data == nil {
		last.Data = []T{}
	}
	return last
}

// Classify maps a store error to a fallback reason.
func Classify(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrNotConfigured):
		return ReasonStoreNotConfigured
	case errors.Is(err, store.ErrUnavailable):
		return ReasonStoreUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonStoreTimeout
	default:
		return ReasonStoreError
	}
}

// ErrNotConfigured lets a store provider report that no store exists at all.
var ErrNotConfigured = errors.New("store not configured")
