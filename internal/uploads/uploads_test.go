package uploads

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("paymentScreenshot", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["paymentScreenshot"][0]
}

type fakeMirror struct {
	bucket string
	err    error
	key    string
	body   []byte
}

func (m *fakeMirror) PaymentsBucket() string { return m.bucket }

func (m *fakeMirror) Upload(_ context.Context, bucket, key, _ string, body io.Reader, _ int64) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.key = key
	m.body, _ = io.ReadAll(body)
	return "https://" + bucket + ".s3.ap-south-1.amazonaws.com/" + key, nil
}

func TestSaveToDisk(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, 0, nil, nil)

	saved, err := s.SavePaymentProof(context.Background(), "evt", fileHeader(t, "my proof.png", []byte("png-bytes")))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(saved.Filename, "-my_proof.png"), saved.Filename)
	assert.Equal(t, filepath.Join(dir, saved.Filename), saved.Path)
	assert.Empty(t, saved.Base64)

	got, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), got)
}

func TestDiskFailureFallsBackToBase64(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	s := NewStore(blocker, 0, nil, nil)

	saved, err := s.SavePaymentProof(context.Background(), "evt", fileHeader(t, "proof.jpg", []byte("jpeg")))
	require.NoError(t, err)
	assert.Empty(t, saved.Path)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg")), saved.Base64)
}

func TestTooLarge(t *testing.T) {
	s := NewStore(t.TempDir(), 4, nil, nil)
	_, err := s.SavePaymentProof(context.Background(), "evt", fileHeader(t, "proof.png", []byte("12345")))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestMirrorReplacesPath(t *testing.T) {
	m := &fakeMirror{bucket: "payments"}
	s := NewStore(t.TempDir(), 0, m, nil)

	saved, err := s.SavePaymentProof(context.Background(), "evt1", fileHeader(t, "proof.png", []byte("png")))
	require.NoError(t, err)
	assert.Equal(t, "payments/evt1/"+saved.Filename, m.key)
	assert.Equal(t, []byte("png"), m.body)
	assert.Equal(t, "https://payments.s3.ap-south-1.amazonaws.com/"+m.key, saved.Path)
}

func TestMirrorFailureKeepsLocalPath(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, 0, &fakeMirror{bucket: "payments", err: errors.New("denied")}, nil)

	saved, err := s.SavePaymentProof(context.Background(), "evt1", fileHeader(t, "proof.png", []byte("png")))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, saved.Filename), saved.Path)
}

func TestMirrorWithoutBucketIsSkipped(t *testing.T) {
	m := &fakeMirror{}
	s := NewStore(t.TempDir(), 0, m, nil)
	_, err := s.SavePaymentProof(context.Background(), "evt1", fileHeader(t, "proof.png", []byte("png")))
	require.NoError(t, err)
	assert.Empty(t, m.key)
}
