package recordings

import (
	"context"
	"fmt"

	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/store"
)

// Repository handles recording booking persistence.
type Repository struct {
	adapter *store.Adapter
	coll    store.Collection
}

// NewRepository creates a recording bookings repository.
func NewRepository(adapter *store.Adapter) *Repository {
	return &Repository{adapter: adapter, coll: adapter.Collection(store.CollectionRecordingRequests)}
}

// Ready reports whether the store is connected.
func (r *Repository) Ready() bool { return r.adapter.Ready() }

// Create inserts a booking.
func (r *Repository) Create(ctx context.Context, rec *models.RecordingRequest) error {
	if err := r.coll.Insert(ctx, rec); err != nil {
		return fmt.Errorf("insert recording request: %w", err)
	}
	return nil
}

// List returns bookings newest first.
func (r *Repository) List(ctx context.Context) ([]models.RecordingRequest, error) {
	var list []models.RecordingRequest
	if err := r.coll.Find(ctx, store.Query{}, &list); err != nil {
		return nil, fmt.Errorf("list recording requests: %w", err)
	}
	return list, nil
}
