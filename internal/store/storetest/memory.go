// Package storetest provides an in-memory store engine for tests.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/eduverse/site-backend/internal/store"
)

// ErrUnreachable is what Connect returns while the engine is marked unreachable.
var ErrUnreachable = errors.New("memory engine unreachable")

type record struct {
	id      string
	created time.Time
	body    []byte
}

// Engine is a store.Engine keeping JSON-encoded documents in memory.
type Engine struct {
	mu          sync.Mutex
	collections map[string][]record
	unreachable bool
	opErr       error
	findDelay   time.Duration
	connects    int
	pings       int
}

// NewEngine returns an empty, reachable engine.
func NewEngine() *Engine {
	return &Engine{collections: make(map[string][]record)}
}

// NewAdapter returns an adapter over e that has already connected.
func NewAdapter(e *Engine) *store.Adapter {
	a := store.NewAdapter(e, time.Second, nil)
	a.EnsureConnected(context.Background())
	return a
}

// SetUnreachable makes subsequent Connect and Ping calls fail.
func (e *Engine) SetUnreachable(v bool) {
	e.mu.Lock()
	e.unreachable = v
	e.mu.Unlock()
}

// FailOperations makes every collection operation return err (nil clears it).
func (e *Engine) FailOperations(err error) {
	e.mu.Lock()
	e.opErr = err
	e.mu.Unlock()
}

// DelayFinds makes Find block for d or until the context is done.
func (e *Engine) DelayFinds(d time.Duration) {
	e.mu.Lock()
	e.findDelay = d
	e.mu.Unlock()
}

// Connects returns how many times Connect was called.
func (e *Engine) Connects() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connects
}

// Pings returns how many times Ping was called.
func (e *Engine) Pings() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pings
}

// Len returns the number of documents in a collection.
func (e *Engine) Len(collection string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.collections[collection])
}

func (e *Engine) Driver() string { return "memory" }

func (e *Engine) Connect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connects++
	if e.unreachable {
		return ErrUnreachable
	}
	return nil
}

func (e *Engine) Ping(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pings++
	if e.unreachable {
		return ErrUnreachable
	}
	return nil
}

func (e *Engine) Disconnect(ctx context.Context) error { return nil }

func (e *Engine) Collection(name string) store.Collection {
	return &collection{engine: e, name: name}
}

type collection struct {
	engine *Engine
	name   string
}

func (c *collection) Insert(ctx context.Context, doc store.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	if c.engine.opErr != nil {
		return c.engine.opErr
	}
	for _, r := range c.engine.collections[c.name] {
		if r.id == doc.DocumentID() {
			return errors.New("duplicate id " + r.id)
		}
	}
	c.engine.collections[c.name] = append(c.engine.collections[c.name], record{id: doc.DocumentID(), created: doc.CreatedTime(), body: body})
	return nil
}

func (c *collection) FindByID(ctx context.Context, id string, out any) error {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	if c.engine.opErr != nil {
		return c.engine.opErr
	}
	for _, r := range c.engine.collections[c.name] {
		if r.id == id {
			return json.Unmarshal(r.body, out)
		}
	}
	return store.ErrNotFound
}

func (c *collection) Find(ctx context.Context, q store.Query, out any) error {
	c.engine.mu.Lock()
	delay := c.engine.findDelay
	c.engine.mu.Unlock()
	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	if c.engine.opErr != nil {
		return c.engine.opErr
	}
	matched, err := c.match(q.Filter)
	if err != nil {
		return err
	}
	if q.Limit > 0 && int64(len(matched)) > q.Limit {
		matched = matched[:q.Limit]
	}
	buf := []byte{'['}
	for i, r := range matched {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, r.body...)
	}
	buf = append(buf, ']')
	return json.Unmarshal(buf, out)
}

func (c *collection) Count(ctx context.Context, filter store.Filter) (int64, error) {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	if c.engine.opErr != nil {
		return 0, c.engine.opErr
	}
	matched, err := c.match(filter)
	return int64(len(matched)), err
}

func (c *collection) Update(ctx context.Context, id string, set store.Filter) error {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	if c.engine.opErr != nil {
		return c.engine.opErr
	}
	recs := c.engine.collections[c.name]
	for i, r := range recs {
		if r.id != id {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(r.body, &doc); err != nil {
			return err
		}
		patch, err := normalize(map[string]any(set))
		if err != nil {
			return err
		}
		for k, v := range patch.(map[string]any) {
			doc[k] = v
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		recs[i].body = body
		return nil
	}
	return store.ErrNotFound
}

// match returns records satisfying filter, newest first; later inserts win ties.
func (c *collection) match(filter store.Filter) ([]record, error) {
	want, err := normalize(map[string]any(filter))
	if err != nil {
		return nil, err
	}
	wantMap, _ := want.(map[string]any)
	recs := c.engine.collections[c.name]
	out := make([]record, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		var doc map[string]any
		if err := json.Unmarshal(recs[i].body, &doc); err != nil {
			return nil, err
		}
		ok := true
		for k, v := range wantMap {
			if !reflect.DeepEqual(doc[k], v) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, recs[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].created.After(out[j].created) })
	return out, nil
}

// normalize round-trips v through JSON so filter values compare equal to decoded documents.
func normalize(v map[string]any) (any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(b, &out)
	return out, err
}
