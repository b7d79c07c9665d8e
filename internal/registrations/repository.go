package registrations

import (
	"context"
	"fmt"
	"time"

	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/store"
)

// Repository handles registration persistence.
type Repository struct {
	adapter *store.Adapter
	coll    store.Collection
}

// NewRepository creates a registrations repository.
func NewRepository(adapter *store.Adapter) *Repository {
	return &Repository{adapter: adapter, coll: adapter.Collection(store.CollectionRegistrations)}
}

// Ready reports whether the store is connected.
func (r *Repository) Ready() bool { return r.adapter.Ready() }

// Create inserts a registration. Duplicates for the same email and event are allowed.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	if err := r.coll.Insert(ctx, reg); err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// GetByID returns a registration. store.ErrNotFound when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	var reg models.Registration
	if err := r.coll.FindByID(ctx, id, &reg); err != nil {
		return nil, fmt.Errorf("get registration %s: %w", id, err)
	}
	return &reg, nil
}

// List returns registrations newest first, optionally for one event.
func (r *Repository) List(ctx context.Context, eventID string) ([]models.Registration, error) {
	var filter store.Filter
	if eventID != "" {
		filter = store.Filter{"eventId": eventID}
	}
	var list []models.Registration
	if err := r.coll.Find(ctx, store.Query{Filter: filter}, &list); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return list, nil
}

// MarkSubmittedToGoogleForm sets the Google Form flag and timestamp.
func (r *Repository) MarkSubmittedToGoogleForm(ctx context.Context, id string, at time.Time) error {
	err := r.coll.Update(ctx, id, store.Filter{
		"submittedToGoogleForm": true,
		"googleFormSubmittedAt": at.UTC(),
	})
	if err != nil {
		return fmt.Errorf("mark registration %s submitted: %w", id, err)
	}
	return nil
}
