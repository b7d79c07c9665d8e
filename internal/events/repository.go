package events

import (
	"context"
	"fmt"

	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/store"
)

// Repository handles events persistence.
type Repository struct {
	adapter *store.Adapter
	coll    store.Collection
}

// NewRepository creates an events repository.
func NewRepository(adapter *store.Adapter) *Repository {
	return &Repository{adapter: adapter, coll: adapter.Collection(store.CollectionEvents)}
}

// Configured reports whether a store exists at all.
func (r *Repository) Configured() bool { return r.adapter.Configured() }

// Ready reports whether the store is connected.
func (r *Repository) Ready() bool { return r.adapter.Ready() }

// Create inserts an event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	if err := r.coll.Insert(ctx, e); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns an event. store.ErrNotFound when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	if err := r.coll.FindByID(ctx, id, &e); err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return &e, nil
}

// ListVisible returns visible events, newest first, optionally restricted to one type.
func (r *Repository) ListVisible(ctx context.Context, eventType string) ([]models.Event, error) {
	filter := store.Filter{"isVisible": true}
	if eventType != "" {
		filter["type"] = eventType
	}
	var list []models.Event
	if err := r.coll.Find(ctx, store.Query{Filter: filter}, &list); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return list, nil
}
