package fallback

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/eduverse/site-backend/internal/models"
)

//go:embed data/events.json
var eventsJSON []byte

type snapshot struct {
	Version string         `json:"version"`
	Events  []models.Event `json:"events"`
}

var (
	loadOnce sync.Once
	loaded   snapshot
	loadErr  error
)

func load() (snapshot, error) {
	loadOnce.Do(func() {
		if err := json.Unmarshal(eventsJSON, &loaded); err != nil {
			loadErr = fmt.Errorf("decode fallback events: %w", err)
		}
	})
	return loaded, loadErr
}

// Version identifies the embedded snapshot.
func Version() string {
	s, _ := load()
	return s.Version
}

// Events returns a copy of the embedded events, in listing order.
func Events() []models.Event {
	s, err := load()
	if err != nil {
		return []models.Event{}
	}
	out := make([]models.Event, len(s.Events))
	copy(out, s.Events)
	return out
}

// FindEvent looks an event up by id in the snapshot.
func FindEvent(id string) (models.Event, bool) {
	for _, e := range Events() {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

// EventsProvider is the chain's last resort: the snapshot, optionally filtered.
func EventsProvider(keep func(models.Event) bool) Provider[models.Event] {
	return Provider[models.Event]{
		Name: SourceSnapshot,
		Fetch: func(ctx context.Context) ([]models.Event, error) {
			all := Events()
			if keep == nil {
				return all, nil
			}
			out := make([]models.Event, 0, len(all))
			for _, e := range all {
				if keep(e) {
					out = append(out, e)
				}
			}
			return out, nil
		},
	}
}
