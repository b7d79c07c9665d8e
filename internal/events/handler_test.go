package events

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduverse/site-backend/internal/fallback"
	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/store"
	"github.com/eduverse/site-backend/internal/store/storetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Fields  []string        `json:"fields"`
	Meta    Meta            `json:"meta"`
}

func newRouter(adapter *store.Adapter, timeout time.Duration) *gin.Engine {
	h := NewHandler(NewRepository(adapter), timeout, nil)
	r := gin.New()
	r.POST("/api/events", h.Create)
	r.GET("/api/events", h.List)
	r.GET("/api/events/:id", h.Get)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func ids(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var list []models.EventView
	require.NoError(t, json.Unmarshal(raw, &list))
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.ID)
	}
	return out
}

func snapshotIDs(keep func(models.Event) bool) []string {
	var out []string
	for _, e := range fallback.Events() {
		if keep == nil || keep(e) {
			out = append(out, e.ID)
		}
	}
	return out
}

func TestListFallsBackWhenNotConfigured(t *testing.T) {
	r := newRouter(store.NewAdapter(nil, 0, nil), 0)
	w, env := do(t, r, http.MethodGet, "/api/events", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, snapshotIDs(nil), ids(t, env.Data))
	assert.Equal(t, fallback.SourceSnapshot, env.Meta.Source)
	assert.Equal(t, fallback.ReasonStoreNotConfigured, env.Meta.Reason)
	assert.Equal(t, fallback.Version(), env.Meta.SnapshotVersion)
}

func TestListFallsBackWhenUnreachable(t *testing.T) {
	engine := storetest.NewEngine()
	engine.SetUnreachable(true)
	adapter := store.NewAdapter(engine, 0, nil)
	adapter.EnsureConnected(context.Background())

	_, env := do(t, newRouter(adapter, 0), http.MethodGet, "/api/events", nil)
	assert.Equal(t, snapshotIDs(nil), ids(t, env.Data))
	assert.Equal(t, fallback.ReasonStoreUnavailable, env.Meta.Reason)
}

func TestListFallsBackWhenEmpty(t *testing.T) {
	_, env := do(t, newRouter(storetest.NewAdapter(storetest.NewEngine()), 0), http.MethodGet, "/api/events", nil)
	assert.Equal(t, snapshotIDs(nil), ids(t, env.Data))
	assert.Equal(t, fallback.ReasonStoreEmpty, env.Meta.Reason)
}

func TestListFallsBackOnTimeout(t *testing.T) {
	engine := storetest.NewEngine()
	adapter := storetest.NewAdapter(engine)
	r := newRouter(adapter, 30*time.Millisecond)

	w, _ := do(t, r, http.MethodPost, "/api/events", map[string]any{
		"title": "Live", "date": "1 May 2025", "type": "Upcoming", "description": "d",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	engine.DelayFinds(time.Second)

	start := time.Now()
	_, env := do(t, r, http.MethodGet, "/api/events", nil)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, fallback.ReasonStoreTimeout, env.Meta.Reason)
	assert.Equal(t, snapshotIDs(nil), ids(t, env.Data))
}

func TestListFallsBackOnError(t *testing.T) {
	engine := storetest.NewEngine()
	r := newRouter(storetest.NewAdapter(engine), 0)
	engine.FailOperations(assert.AnError)

	_, env := do(t, r, http.MethodGet, "/api/events?type=Past", nil)
	assert.Equal(t, fallback.ReasonStoreError, env.Meta.Reason)
	assert.Equal(t, snapshotIDs(func(e models.Event) bool { return e.Type == models.EventTypePast }), ids(t, env.Data))
}

func TestCreateAndListFromStore(t *testing.T) {
	r := newRouter(storetest.NewAdapter(storetest.NewEngine()), 0)

	w, env := do(t, r, http.MethodPost, "/api/events", map[string]any{
		"title": "GenAI Bootcamp", "date": "15th March 2025", "type": "Upcoming", "description": "Hands-on",
		"speakers": []map[string]string{{"name": "Meera"}, {"name": "Arjun"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.EventView
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, models.IsValidID(created.ID))
	assert.True(t, created.IsVisible)
	assert.True(t, created.RecordingAvailable)
	assert.Equal(t, 0, created.Price)
	assert.Equal(t, models.SpeakerMultiple, created.SpeakerInfo().Kind)

	w, _ = do(t, r, http.MethodPost, "/api/events", map[string]any{
		"title": "Hidden", "date": "x", "type": "Past", "description": "d", "isVisible": false,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = do(t, r, http.MethodPost, "/api/events", map[string]any{
		"title": "Later", "date": "y", "type": "Past", "description": "d", "price": 499,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	_, env = do(t, r, http.MethodGet, "/api/events", nil)
	assert.Equal(t, fallback.SourceStore, env.Meta.Source)
	assert.Equal(t, fallback.ReasonNone, env.Meta.Reason)
	var list []models.EventView
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Later", list[0].Title)
	assert.Equal(t, 499, list[0].Price)
	assert.Equal(t, "GenAI Bootcamp", list[1].Title)

	_, env = do(t, r, http.MethodGet, "/api/events?type=Upcoming", nil)
	assert.Equal(t, []string{created.ID}, ids(t, env.Data))
}

func TestCreateValidation(t *testing.T) {
	engine := storetest.NewEngine()
	r := newRouter(storetest.NewAdapter(engine), 0)

	w, env := do(t, r, http.MethodPost, "/api/events", map[string]any{"title": "x", "type": "Upcoming"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, []string{"date", "description"}, env.Fields)

	w, env = do(t, r, http.MethodPost, "/api/events", map[string]any{"title": "x", "date": "d", "type": "Soon", "description": "d"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"type"}, env.Fields)
	assert.Zero(t, engine.Len(store.CollectionEvents))
}

func TestCreateWithoutStore(t *testing.T) {
	r := newRouter(store.NewAdapter(nil, 0, nil), 0)
	w, _ := do(t, r, http.MethodPost, "/api/events", map[string]any{"title": "x", "date": "d", "type": "Past", "description": "d"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGet(t *testing.T) {
	r := newRouter(storetest.NewAdapter(storetest.NewEngine()), 0)
	_, env := do(t, r, http.MethodPost, "/api/events", map[string]any{"title": "Live", "date": "d", "type": "Past", "description": "d"})
	var created models.Event
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, env := do(t, r, http.MethodGet, "/api/events/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fallback.SourceStore, env.Meta.Source)

	w, env = do(t, r, http.MethodGet, "/api/events/mock-genai-bootcamp-2025", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fallback.SourceSnapshot, env.Meta.Source)

	w, env = do(t, r, http.MethodGet, "/api/events/"+models.NewID(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Event not found", env.Error)
}
