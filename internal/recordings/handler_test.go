package recordings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduverse/site-backend/internal/backup"
	"github.com/eduverse/site-backend/internal/events"
	"github.com/eduverse/site-backend/internal/mailer"
	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/notify"
	"github.com/eduverse/site-backend/internal/store"
	"github.com/eduverse/site-backend/internal/store/storetest"
	"github.com/eduverse/site-backend/internal/tasks"
	"github.com/eduverse/site-backend/internal/uploads"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type slowSender struct {
	delay time.Duration

	mu   sync.Mutex
	sent []mailer.Message
}

func (s *slowSender) Configured() bool { return true }

func (s *slowSender) Send(_ context.Context, msg mailer.Message) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return nil
}

func (s *slowSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type failingBackup struct{}

func (failingBackup) Append(*models.RecordingRequest) error { return errors.New("disk full") }

type harness struct {
	router   *gin.Engine
	engine   *storetest.Engine
	adapter  *store.Adapter
	backup   *backup.Writer
	sender   *slowSender
	runner   *tasks.Runner
	dir      string
}

func setup(t *testing.T, adapter *store.Adapter, engine *storetest.Engine, bk Backup) *harness {
	t.Helper()
	dir := t.TempDir()
	writer := backup.NewWriter(filepath.Join(dir, "backup", "recordings.json"), nil)
	if bk == nil {
		bk = writer
	}
	runner := tasks.NewRunner(0, nil)
	sender := &slowSender{}
	dispatcher := notify.NewDispatcher(sender, notify.NewDeliverer(sender, nil, nil).Outbox(), runner, "ops@eduverse.in", nil)
	h := NewHandler(
		NewRepository(adapter),
		events.NewRepository(adapter),
		uploads.NewStore(filepath.Join(dir, "uploads"), 0, nil, nil),
		bk,
		dispatcher,
		nil,
	)
	r := gin.New()
	r.POST("/api/recordings", h.Create)
	r.GET("/api/recordings", h.List)
	return &harness{router: r, engine: engine, adapter: adapter, backup: writer, sender: sender, runner: runner, dir: dir}
}

func connected(t *testing.T) (*store.Adapter, *storetest.Engine) {
	engine := storetest.NewEngine()
	return storetest.NewAdapter(engine), engine
}

func fields(eventID string) map[string]string {
	return map[string]string{
		"name":        "Ravi Kumar",
		"email":       "ravi@x.com",
		"whatsapp":    "+91 98888 77777",
		"institution": "NIT Trichy",
		"location":    "Chennai",
		"yearOrRole":  "3rd year",
		"heardFrom":   "LinkedIn",
		"eventId":     eventID,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Fields  []string        `json:"fields"`
	Meta    Meta            `json:"meta"`
}

func (h *harness) post(t *testing.T, form map[string]string, file []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range form {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile(FileField, "upi-proof.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/recordings", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestCreateWithStoredEvent(t *testing.T) {
	adapter, engine := connected(t)
	h := setup(t, adapter, engine, nil)
	event := &models.Event{ID: models.NewID(), Title: "Data Science Masterclass", Type: models.EventTypePast, CreatedAt: time.Now()}
	require.NoError(t, events.NewRepository(adapter).Create(context.Background(), event))

	w, env := h.post(t, fields(event.ID), []byte("png"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, SourceStore, env.Meta.Source)

	var got models.RecordingRequest
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Data Science Masterclass", got.EventTitle)
	assert.Contains(t, got.PaymentScreenshot, "upi-proof.png")
	assert.FileExists(t, got.PaymentScreenshotPath)
	assert.Equal(t, 1, engine.Len(store.CollectionRecordingRequests))

	h.runner.Wait()
	assert.Equal(t, 2, h.sender.count())
}

func TestCreateForUnavailableRecordingIsAccepted(t *testing.T) {
	adapter, engine := connected(t)
	h := setup(t, adapter, engine, nil)

	w, env := h.post(t, fields("mock-career-roadmap-2024"), []byte("png"))
	require.Equal(t, http.StatusCreated, w.Code)
	var got models.RecordingRequest
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "mock-career-roadmap-2024", got.EventID)
	assert.NotEqual(t, UnlistedEventTitle, got.EventTitle)
}

func TestCreateForUnknownEventUsesPlaceholder(t *testing.T) {
	adapter, engine := connected(t)
	h := setup(t, adapter, engine, nil)

	w, env := h.post(t, fields("some-old-id"), []byte("png"))
	require.Equal(t, http.StatusCreated, w.Code)
	var got models.RecordingRequest
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "some-old-id", got.EventID)
	assert.Equal(t, UnlistedEventTitle, got.EventTitle)
}

func TestCreateWithoutFileIsValidationError(t *testing.T) {
	adapter, engine := connected(t)
	h := setup(t, adapter, engine, nil)

	w, env := h.post(t, fields("mock-genai-bootcamp-2025"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, []string{"paymentScreenshot"}, env.Fields)

	// same shape as a missing text field
	form := fields("mock-genai-bootcamp-2025")
	delete(form, "whatsapp")
	w2, env2 := h.post(t, form, []byte("png"))
	assert.Equal(t, w.Code, w2.Code)
	assert.Equal(t, []string{"whatsapp"}, env2.Fields)
	assert.Equal(t, "Missing required fields: paymentScreenshot", env.Error)

	assert.Zero(t, engine.Len(store.CollectionRecordingRequests))
	_, err := os.Stat(h.backup.Path())
	assert.True(t, os.IsNotExist(err))
	entries, _ := os.ReadDir(filepath.Join(h.dir, "uploads"))
	assert.Empty(t, entries)
}

func TestCreateFallsBackToBackupWhenStoreDown(t *testing.T) {
	h := setup(t, store.NewAdapter(nil, 0, nil), nil, nil)

	w, env := h.post(t, fields("mock-genai-bootcamp-2025"), []byte("png"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, SourceBackup, env.Meta.Source)

	var got models.RecordingRequest
	require.NoError(t, json.Unmarshal(env.Data, &got))

	saved, err := h.backup.ReadAll()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, got.ID, saved[0].ID)
	assert.Equal(t, "Ravi Kumar", saved[0].Name)
	assert.Equal(t, "ravi@x.com", saved[0].Email)
	assert.Equal(t, "+91 98888 77777", saved[0].Whatsapp)
	assert.Equal(t, "NIT Trichy", saved[0].Institution)
	assert.Equal(t, "mock-genai-bootcamp-2025", saved[0].EventID)
	assert.Equal(t, got.PaymentScreenshot, saved[0].PaymentScreenshot)
	h.runner.Wait()
	assert.Equal(t, 2, h.sender.count())
}

func TestBackupKeepsFieldsAsSubmitted(t *testing.T) {
	h := setup(t, store.NewAdapter(nil, 0, nil), nil, nil)
	form := fields("mock-genai-bootcamp-2025")
	form["name"] = "Ravi Kumar "
	form["email"] = " ravi@x.com"
	form["whatsapp"] = "+91 98888 77777 "

	w, _ := h.post(t, form, []byte("png"))
	require.Equal(t, http.StatusCreated, w.Code)

	saved, err := h.backup.ReadAll()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Ravi Kumar ", saved[0].Name)
	assert.Equal(t, " ravi@x.com", saved[0].Email)
	assert.Equal(t, "+91 98888 77777 ", saved[0].Whatsapp)

	h.runner.Wait()
	require.Equal(t, 2, h.sender.count())
	var to []string
	for _, m := range h.sender.sent {
		to = append(to, m.To)
	}
	assert.Contains(t, to, "ravi@x.com")
}

func TestCreateFallsBackToBackupOnInsertError(t *testing.T) {
	adapter, engine := connected(t)
	h := setup(t, adapter, engine, nil)
	engine.FailOperations(errors.New("not primary"))

	w, env := h.post(t, fields("mock-genai-bootcamp-2025"), []byte("png"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, SourceBackup, env.Meta.Source)
	saved, err := h.backup.ReadAll()
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestCreateFailsWhenBackupFails(t *testing.T) {
	h := setup(t, store.NewAdapter(nil, 0, nil), nil, failingBackup{})
	w, env := h.post(t, fields("mock-genai-bootcamp-2025"), []byte("png"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	h.runner.Wait()
	assert.Zero(t, h.sender.count())
}

func TestCreateDoesNotWaitForNotifier(t *testing.T) {
	adapter, engine := connected(t)
	h := setup(t, adapter, engine, nil)
	h.sender.delay = 300 * time.Millisecond

	start := time.Now()
	w, _ := h.post(t, fields("mock-genai-bootcamp-2025"), []byte("png"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Zero(t, h.sender.count())

	h.runner.Wait()
	assert.Equal(t, 2, h.sender.count())
}

func TestList(t *testing.T) {
	adapter, engine := connected(t)
	h := setup(t, adapter, engine, nil)
	h.post(t, fields("mock-genai-bootcamp-2025"), []byte("a"))
	second := fields("mock-fullstack-workshop-2025")
	second["name"] = "Second"
	h.post(t, second, []byte("b"))

	req := httptest.NewRequest(http.MethodGet, "/api/recordings", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var list []models.RecordingRequest
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].Name)
}

func TestListWithoutStore(t *testing.T) {
	h := setup(t, store.NewAdapter(nil, 0, nil), nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/recordings", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
