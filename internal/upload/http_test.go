package upload

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abduss/atomupload/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestUploadServiceResponse(t *testing.T) {
	env := newTestEnv(t, ServicePolicy)
	payload, contentType := multipartBody(t, "file", "my photo.png", "image-bytes")
	rr := serve(env, payload, contentType)

	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "File uploaded successfully", body["message"])
	assert.Equal(t, "atom-png-bucket", body["bucket"])
	assert.Equal(t, "my_photo.png", body["filename"])
	assert.Equal(t, "https://signed.example/atom-png-bucket/my_photo.png", body["signed_url"])
	assert.Equal(t, true, body["event_published"])
	assert.NotContains(t, body, "metadata")

	assert.Equal(t, "image-bytes", env.store.body("atom-png-bucket", "my_photo.png"))
}

func TestUploadFunctionResponse(t *testing.T) {
	env := newTestEnv(t, FunctionPolicy)
	payload, contentType := multipartBody(t, "file", "song.mp3", "id3")
	rr := serve(env, payload, contentType)

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Message        string         `json:"message"`
		Bucket         string         `json:"bucket"`
		Filename       string         `json:"filename"`
		EventPublished bool           `json:"event_published"`
		SignedURL      *string        `json:"signed_url"`
		Metadata       map[string]any `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	assert.Equal(t, "atom-mp3-bucket", body.Bucket)
	assert.Equal(t, "20241005_140309_song.mp3", body.Filename)
	assert.True(t, body.EventPublished)
	assert.Nil(t, body.SignedURL)
	assert.Equal(t, map[string]any{
		"filename":          "20241005_140309_song.mp3",
		"original_filename": "song.mp3",
		"bucket":            "atom-mp3-bucket",
		"content_type":      "application/octet-stream",
		"size":              float64(3),
		"upload_time":       "20241005_140309",
	}, body.Metadata)
}

func TestUploadErrors(t *testing.T) {
	cases := []struct {
		name    string
		policy  Policy
		body    func(t *testing.T) (*bytes.Buffer, string)
		prepare func(env *testEnv)
		status  int
		message string
	}{
		{
			name:    "service missing file part",
			policy:  ServicePolicy,
			body:    func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "document", "a.png", "x") },
			status:  http.StatusBadRequest,
			message: "No file part",
		},
		{
			name:    "function missing file part",
			policy:  FunctionPolicy,
			body:    func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "document", "a.png", "x") },
			status:  http.StatusBadRequest,
			message: "No file provided",
		},
		{
			name:   "not multipart",
			policy: ServicePolicy,
			body: func(t *testing.T) (*bytes.Buffer, string) {
				return bytes.NewBufferString(`{"file":"a.png"}`), "application/json"
			},
			status:  http.StatusBadRequest,
			message: "No file part",
		},
		{
			name:    "empty filename",
			policy:  ServicePolicy,
			body:    func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "file", "", "") },
			status:  http.StatusBadRequest,
			message: "No file selected",
		},
		{
			name:    "function disallowed type",
			policy:  FunctionPolicy,
			body:    func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "file", "virus.exe", "MZ") },
			status:  http.StatusBadRequest,
			message: "File type not allowed",
		},
		{
			name:    "function without extension",
			policy:  FunctionPolicy,
			body:    func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "file", "Makefile", "all:") },
			status:  http.StatusBadRequest,
			message: "File type not allowed",
		},
		{
			name:    "storage failure",
			policy:  ServicePolicy,
			body:    func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "file", "a.txt", "x") },
			prepare: func(env *testEnv) { env.store.err = errors.New("connection reset") },
			status:  http.StatusInternalServerError,
			message: "Error uploading to GCS: ",
		},
		{
			name:    "signing failure",
			policy:  ServicePolicy,
			body:    func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "file", "a.txt", "x") },
			prepare: func(env *testEnv) { env.signer.err = errors.New("no private key") },
			status:  http.StatusInternalServerError,
			message: "Error generating signed URL: ",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, tc.policy)
			if tc.prepare != nil {
				tc.prepare(env)
			}

			body, contentType := tc.body(t)
			rr := serve(env, body, contentType)

			assert.Equal(t, tc.status, rr.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.True(t, strings.HasPrefix(resp["error"], tc.message), resp["error"])
			assert.Empty(t, env.publisher.sent)
		})
	}
}

func TestUploadReportsUnpublishedEvent(t *testing.T) {
	env := newTestEnv(t, ServicePolicy)
	env.publisher.err = errors.New("deadline exceeded")

	payload, contentType := multipartBody(t, "file", "clip.mp4", "ftyp")
	rr := serve(env, payload, contentType)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["event_published"])
	assert.Equal(t, "File uploaded successfully", body["message"])
	assert.Equal(t, "atom-mp4-bucket", body["bucket"])
	assert.Equal(t, "clip.mp4", body["filename"])
	assert.Equal(t, "https://signed.example/atom-mp4-bucket/clip.mp4", body["signed_url"])
	assert.NotEmpty(t, body["signed_url"])
	assert.Equal(t, "ftyp", env.store.body("atom-mp4-bucket", "clip.mp4"))
}

func TestUploadLogsCarryCorrelationID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	env := newTestEnv(t, ServicePolicy, func(d *Dependencies) { d.Logger = zap.New(core) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(logger.Middleware(zap.NewNop()))
	RegisterRoutes(r, NewHandler(env.pipeline, 0))

	payload, contentType := multipartBody(t, "file", "notes.txt", "hello")
	req := httptest.NewRequest(http.MethodPost, "/upload", payload)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(logger.CorrelationIDHeader, "req-123")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	uploaded := logs.FilterMessage("file uploaded").All()
	require.Len(t, uploaded, 1)
	fields := uploaded[0].ContextMap()
	assert.Equal(t, "req-123", fields["correlation_id"])
	assert.Equal(t, "service", fields["entry_point"])
	assert.Equal(t, "atom-txt-bucket", fields["bucket"])
}

// --- helpers ---

func serve(env *testEnv, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, NewHandler(env.pipeline, 0))

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}
