package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduverse/site-backend/internal/models"
)

func booking(name string) *models.RecordingRequest {
	now := time.Date(2025, 3, 2, 8, 30, 0, 0, time.UTC)
	return &models.RecordingRequest{
		ID:                    models.NewID(),
		Name:                  name,
		Email:                 name + "@example.com",
		Whatsapp:              "+91 98765 43210",
		Institution:           "IIT Delhi",
		Location:              "Delhi",
		YearOrRole:            "3rd year",
		HeardFrom:             "Instagram",
		EventID:               "mock-datascience-masterclass-2025",
		EventTitle:            "Data Science Masterclass",
		PaymentScreenshot:     "1740900000-proof.png",
		PaymentScreenshotPath: "uploads/payments/1740900000-proof.png",
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func TestAppendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "backup.json")
	w := NewWriter(path, nil)

	first, second := booking("asha"), booking("vikram")
	require.NoError(t, w.Append(first))
	require.NoError(t, w.Append(second))

	got, err := w.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, *first, got[0])
	assert.Equal(t, *second, got[1])

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestReadAllMissingFile(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "none.json"), nil)
	got, err := w.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAppendCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	w := NewWriter(path, nil)
	assert.Error(t, w.Append(booking("x")))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(body))
}
