package testimonials

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

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
	Meta    *Meta           `json:"meta"`
}

func newRouter(adapter *store.Adapter) *gin.Engine {
	h := NewHandler(NewRepository(adapter), nil)
	r := gin.New()
	r.POST("/api/testimonials", h.Create)
	r.GET("/api/testimonials", h.List)
	return r
}

func do(t *testing.T, r http.Handler, method string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/testimonials", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestCreateAndList(t *testing.T) {
	r := newRouter(storetest.NewAdapter(storetest.NewEngine()))

	w, env := do(t, r, http.MethodPost, map[string]string{"name": "Priya", "role": "Student", "quote": "Loved it"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, env.Meta)
	require.NotNil(t, env.Meta.Persisted)
	assert.True(t, *env.Meta.Persisted)
	do(t, r, http.MethodPost, map[string]string{"name": "Karan", "quote": "Great mentors"})

	w, env = do(t, r, http.MethodGet, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Testimonial
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Karan", list[0].Name)
	assert.Empty(t, list[0].Role)
	assert.Equal(t, "Student", list[1].Role)
}

func TestCreateMissingFields(t *testing.T) {
	engine := storetest.NewEngine()
	w, env := do(t, newRouter(storetest.NewAdapter(engine)), http.MethodPost, map[string]string{"role": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"name", "quote"}, env.Fields)
	assert.Zero(t, engine.Len(store.CollectionTestimonials))
}

func TestCreateDegrades(t *testing.T) {
	w, env := do(t, newRouter(store.NewAdapter(nil, 0, nil)), http.MethodPost, map[string]string{"name": "A", "quote": "q"})
	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, env.Meta.Persisted)
	assert.False(t, *env.Meta.Persisted)
}

func TestListEmptyWhenStoreMissing(t *testing.T) {
	w, env := do(t, newRouter(store.NewAdapter(nil, 0, nil)), http.MethodGet, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
	assert.Equal(t, fallback.ReasonStoreNotConfigured, env.Meta.Reason)

	engine := storetest.NewEngine()
	r := newRouter(storetest.NewAdapter(engine))
	engine.FailOperations(errors.New("boom"))
	w, env = do(t, r, http.MethodGet, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
	assert.Equal(t, fallback.ReasonStoreError, env.Meta.Reason)
}

func TestListEmptyStore(t *testing.T) {
	w, env := do(t, newRouter(storetest.NewAdapter(storetest.NewEngine())), http.MethodGet, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}
