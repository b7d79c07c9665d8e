package contacts

import (
	"context"
	"fmt"

	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/store"
)

// Repository handles contact message persistence.
type Repository struct {
	adapter *store.Adapter
	coll    store.Collection
}

// NewRepository creates a contacts repository.
func NewRepository(adapter *store.Adapter) *Repository {
	return &Repository{adapter: adapter, coll: adapter.Collection(store.CollectionContacts)}
}

// Ready reports whether the store is connected.
func (r *Repository) Ready() bool { return r.adapter.Ready() }

// Create inserts a contact message.
func (r *Repository) Create(ctx context.Context, m *models.Contact) error {
	if err := r.coll.Insert(ctx, m); err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// List returns contact messages newest first.
func (r *Repository) List(ctx context.Context) ([]models.Contact, error) {
	var list []models.Contact
	if err := r.coll.Find(ctx, store.Query{}, &list); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return list, nil
}
