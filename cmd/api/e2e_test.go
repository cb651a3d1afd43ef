package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live API, e.g. docker compose with MinIO and the Pub/Sub
// emulator: ATOM_E2E_BASE_URL=http://localhost:5000 go test ./cmd/api
func baseURL(t *testing.T) string {
	t.Helper()
	u := os.Getenv("ATOM_E2E_BASE_URL")
	if u == "" {
		t.Skip("ATOM_E2E_BASE_URL not set")
	}
	return u
}

func TestUploadThenDownloadThroughSignedURL(t *testing.T) {
	base := baseURL(t)
	client := &http.Client{Timeout: 30 * time.Second}

	// 1. Health
	resp, err := client.Get(base + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// 2. Upload
	name := "e2e " + uuid.NewString() + ".txt"
	content := []byte("hello from e2e")

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, base+"/upload", buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err = client.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var uploaded struct {
		Bucket    string `json:"bucket"`
		Filename  string `json:"filename"`
		SignedURL string `json:"signed_url"`
	}
	require.NoError(t, json.Unmarshal(body, &uploaded))
	assert.Equal(t, "atom-txt-bucket", uploaded.Bucket)
	assert.NotContains(t, uploaded.Filename, " ")
	require.NotEmpty(t, uploaded.SignedURL)

	// 3. Download
	resp, err = client.Get(uploaded.SignedURL)
	require.NoError(t, err)
	downloaded, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, content, downloaded)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	base := baseURL(t)
	client := &http.Client{Timeout: 10 * time.Second}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	require.NoError(t, w.WriteField("note", "no file here"))
	require.NoError(t, w.Close())

	resp, err := client.Post(base+"/upload", w.FormDataContentType(), buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "No file part", body["error"])
}
