// Package store is the document persistence layer: one shared, lazily ensured connection to a document
// database (MongoDB or Postgres JSONB) and collection-level CRUD on top of it.
package store

import (
	"context"
	"errors"
	"time"
)

// Status is the connection state reported to callers and the health endpoint.
type Status string

const (
	StatusNotConfigured Status = "not_configured"
	StatusConnecting    Status = "connecting"
	StatusConnected     Status = "connected"
	StatusDisconnecting Status = "disconnecting"
	StatusDisconnected  Status = "disconnected"
)

var (
	// ErrUnavailable is returned by collection operations while the store is not connected.
	ErrUnavailable = errors.New("store unavailable")
	// ErrNotFound is returned when a document id does not exist.
	ErrNotFound = errors.New("document not found")
)

// Collection names.
const (
	CollectionEvents            = "events"
	CollectionRegistrations     = "registrations"
	CollectionRecordingRequests = "recordingrequests"
	CollectionContacts          = "contacts"
	CollectionTestimonials      = "testimonials"
	CollectionEmailLogs         = "emaillogs"
)

// Document is anything persisted in a collection.
type Document interface {
	DocumentID() string
	CreatedTime() time.Time
}

// Filter is an equality match on top-level document fields (camelCase names).
type Filter map[string]any

// Query selects documents, always newest first by creation time. Limit 0 means no limit.
type Query struct {
	Filter Filter
	Limit  int64
}

// Collection is CRUD over one kind of document. out arguments are pointers to a struct (FindByID) or a
// slice of structs (Find).
type Collection interface {
	Insert(ctx context.Context, doc Document) error
	FindByID(ctx context.Context, id string, out any) error
	Find(ctx context.Context, q Query, out any) error
	Count(ctx context.Context, filter Filter) (int64, error)
	Update(ctx context.Context, id string, set Filter) error
}

// Engine is a concrete database behind the Adapter.
type Engine interface {
	Driver() string
	// Connect establishes (or re-establishes) the connection and verifies it.
	Connect(ctx context.Context) error
	// Ping checks an established connection.
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Collection(name string) Collection
}
