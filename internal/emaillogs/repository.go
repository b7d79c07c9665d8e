package emaillogs

import (
	"context"
	"fmt"

	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/store"
)

// DefaultLimit caps a listing.
const DefaultLimit = 200

// Repository handles email_logs persistence.
type Repository struct {
	adapter *store.Adapter
	coll    store.Collection
}

// NewRepository creates an email logs repository.
func NewRepository(adapter *store.Adapter) *Repository {
	return &Repository{adapter: adapter, coll: adapter.Collection(store.CollectionEmailLogs)}
}

// Ready reports whether the store is connected.
func (r *Repository) Ready() bool { return r.adapter.Ready() }

// Insert records one delivery attempt.
func (r *Repository) Insert(ctx context.Context, entry *models.EmailLog) error {
	if entry.ID == "" {
		entry.ID = models.NewID()
	}
	if err := r.coll.Insert(ctx, entry); err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}
	return nil
}

// List returns delivery attempts newest first, optionally for one flow.
func (r *Repository) List(ctx context.Context, flow string, limit int64) ([]models.EmailLog, error) {
	var filter store.Filter
	if flow != "" {
		filter = store.Filter{"flow": flow}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	var list []models.EmailLog
	if err := r.coll.Find(ctx, store.Query{Filter: filter, Limit: limit}, &list); err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	return list, nil
}
