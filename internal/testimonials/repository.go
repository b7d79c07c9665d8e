package testimonials

import (
	"context"
	"fmt"

	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/store"
)

// Repository handles testimonial persistence.
type Repository struct {
	adapter *store.Adapter
	coll    store.Collection
}

// NewRepository creates a testimonials repository.
func NewRepository(adapter *store.Adapter) *Repository {
	return &Repository{adapter: adapter, coll: adapter.Collection(store.CollectionTestimonials)}
}

// Configured reports whether a store exists at all.
func (r *Repository) Configured() bool { return r.adapter.Configured() }

// Create inserts a testimonial.
func (r *Repository) Create(ctx context.Context, t *models.Testimonial) error {
	if err := r.coll.Insert(ctx, t); err != nil {
		return fmt.Errorf("insert testimonial: %w", err)
	}
	return nil
}

// List returns testimonials newest first.
func (r *Repository) List(ctx context.Context) ([]models.Testimonial, error) {
	var list []models.Testimonial
	if err := r.coll.Find(ctx, store.Query{}, &list); err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return list, nil
}
