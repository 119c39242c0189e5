package api

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
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/gallery/internal/api/handlers"
	"github.com/your-org/gallery/internal/gallery"
	"github.com/your-org/gallery/internal/gallery/mock"
	"github.com/your-org/gallery/internal/models"
	"github.com/your-org/gallery/internal/recognition"
	"github.com/your-org/gallery/pkg/dto"
)

const testAPIKey = "secret"

func ptr[T any](v T) *T { return &v }

type testEnv struct {
	repo       *mock.Repository
	store      *mock.Storage
	recognizer *mock.Recognizer
	router     *gin.Engine
}

func newTestEnv(t *testing.T, mutate func(*RouterConfig)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		repo:       mock.NewRepository(),
		store:      mock.NewStorage(),
		recognizer: mock.NewRecognizer(),
	}
	env.repo.AddEvent(1)

	cfg := RouterConfig{
		APIKey:              testAPIKey,
		MaxUploadBytes:      1 << 20,
		SearchRatePerMinute: 100,
		Service:             gallery.NewService(env.repo, env.store, env.recognizer, nil),
		Checks: []handlers.Check{
			{Name: "postgres", Fn: func(context.Context) error { return nil }},
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	env.router = NewRouter(cfg)
	return env
}

func multipartBody(t *testing.T, fileName string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if data != nil {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func (e *testEnv) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestUploadPhoto(t *testing.T) {
	env := newTestEnv(t, nil)
	env.recognizer.FaceCount = 2

	body, ct := multipartBody(t, "IMG_1.jpg", []byte("\xff\xd8\xff\xe0jpeg"), nil)
	w := env.do(t, http.MethodPost, "/v1/events/1/photos", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[dto.PhotoUploadResponse](t, w)
	assert.NotZero(t, resp.ID)
	assert.Equal(t, "IMG_1.jpg", resp.FileName)
	assert.Regexp(t, `^events/1/[0-9a-f-]{36}\.jpg$`, resp.StoragePath)
	assert.Equal(t, int64(8), resp.FileSize)
	assert.Equal(t, 2, resp.FaceCount)
	assert.True(t, resp.Processed)
	assert.NotEmpty(t, resp.UploadedAt)
}

func TestUploadPhoto_ExtractionDownStillCreated(t *testing.T) {
	env := newTestEnv(t, nil)
	env.recognizer.ExtractError = errors.New("down")

	body, ct := multipartBody(t, "a.jpg", []byte("jpeg"), nil)
	w := env.do(t, http.MethodPost, "/v1/events/1/photos", body, ct)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decode[dto.PhotoUploadResponse](t, w)
	assert.Equal(t, 0, resp.FaceCount)
	assert.False(t, resp.Processed)
}

func TestUploadPhoto_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		fileName string
		data     []byte
		setup    func(*testEnv)
		want     int
	}{
		{name: "bad event id", path: "/v1/events/abc/photos", fileName: "a.jpg", data: []byte("x"), want: http.StatusBadRequest},
		{name: "unknown event", path: "/v1/events/9/photos", fileName: "a.jpg", data: []byte("x"), want: http.StatusNotFound},
		{name: "missing file", path: "/v1/events/1/photos", want: http.StatusBadRequest},
		{name: "empty file", path: "/v1/events/1/photos", fileName: "a.jpg", data: []byte{}, want: http.StatusBadRequest},
		{name: "too large", path: "/v1/events/1/photos", fileName: "a.jpg", data: make([]byte, 2<<20), want: http.StatusRequestEntityTooLarge},
		{
			name: "storage failure", path: "/v1/events/1/photos", fileName: "a.jpg", data: []byte("x"),
			setup: func(e *testEnv) { e.store.StoreError = errors.New("disk full") },
			want:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			if tt.setup != nil {
				tt.setup(env)
			}
			body, ct := multipartBody(t, tt.fileName, tt.data, nil)
			w := env.do(t, http.MethodPost, tt.path, body, ct)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
			assert.Equal(t, 0, env.repo.PhotoCount())
		})
	}
}

func TestListAndGetPhotos(t *testing.T) {
	env := newTestEnv(t, nil)
	thumb := "events/1/thumbs/b.jpg"
	env.repo.AddPhoto(models.Photo{EventID: 1, FileName: "a.jpg", StoragePath: "events/1/a.jpg"})
	p := env.repo.AddPhoto(models.Photo{EventID: 1, FileName: "b.jpg", StoragePath: "events/1/b.jpg", ThumbnailPath: &thumb})

	w := env.do(t, http.MethodGet, "/v1/events/1/photos", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dto.PhotoListResponse](t, w)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Photos, 2)
	assert.Equal(t, "/storage/events/1/a.jpg", list.Photos[0].PhotoURL)
	assert.Empty(t, list.Photos[0].ThumbnailURL)

	var raw struct {
		Photos []map[string]any `json:"photos"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.NotContains(t, raw.Photos[0], "thumbnail_url")

	w = env.do(t, http.MethodGet, "/v1/photos/"+itoa(p.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[dto.GalleryPhotoResponse](t, w)
	assert.Equal(t, "/storage/events/1/thumbs/b.jpg", got.ThumbnailURL)

	w = env.do(t, http.MethodGet, "/v1/photos/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/v1/events/5/photos", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePhoto(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.repo.AddPhoto(models.Photo{EventID: 1, StoragePath: "events/1/a.jpg"})
	env.store.Put("events/1/a.jpg", []byte("x"))

	w := env.do(t, http.MethodDelete, "/v1/photos/"+itoa(p.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, w.Body.String())
	assert.False(t, env.store.Has("events/1/a.jpg"))

	w = env.do(t, http.MethodDelete, "/v1/photos/"+itoa(p.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.repo.AddPhoto(models.Photo{EventID: 1, StoragePath: "events/1/a.jpg"})
	env.recognizer.SearchMatches = []recognition.Match{
		{PhotoID: p.ID, Similarity: 0.91, BBox: []float64{10, 20, 110, 170}},
		{PhotoID: 404, Similarity: 0.88},
		{PhotoID: p.ID, Similarity: 0.70, BBox: []float64{1}},
	}

	body, ct := multipartBody(t, "me.jpg", []byte("face"), map[string]string{"limit": "10", "threshold": "0.7"})
	w := env.do(t, http.MethodPost, "/v1/events/1/search", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var raw struct {
		Matches      []map[string]any `json:"matches"`
		TotalMatches int              `json:"total_matches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, 2, raw.TotalMatches)
	require.Len(t, raw.Matches, 2)

	assert.Equal(t, "/storage/events/1/a.jpg", raw.Matches[0]["photo_url"])
	assert.NotContains(t, raw.Matches[0], "thumbnail_url")
	assert.Equal(t, map[string]any{"x": 10.0, "y": 20.0, "width": 100.0, "height": 150.0}, raw.Matches[0]["face_location"])
	assert.NotContains(t, raw.Matches[1], "face_location")

	require.Len(t, env.recognizer.SearchCalls, 1)
	assert.Equal(t, recognition.SearchOptions{Limit: ptr(10), Threshold: ptr(0.7)}, env.recognizer.SearchCalls[0].Options)
}

func TestSearch_OptionalFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   recognition.SearchOptions
	}{
		{"omitted", nil, recognition.SearchOptions{}},
		{"explicit zero threshold", map[string]string{"threshold": "0"}, recognition.SearchOptions{Threshold: ptr(0.0)}},
		{"limit only", map[string]string{"limit": "5"}, recognition.SearchOptions{Limit: ptr(5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			body, ct := multipartBody(t, "me.jpg", []byte("face"), tt.fields)
			w := env.do(t, http.MethodPost, "/v1/events/1/search", body, ct)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			require.Len(t, env.recognizer.SearchCalls, 1)
			assert.Equal(t, tt.want, env.recognizer.SearchCalls[0].Options)
		})
	}
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		setup  func(*testEnv)
		want   int
	}{
		{name: "malformed limit", fields: map[string]string{"limit": "many"}, want: http.StatusBadRequest},
		{name: "limit out of range", fields: map[string]string{"limit": "501"}, want: http.StatusBadRequest},
		{name: "zero limit", fields: map[string]string{"limit": "0"}, want: http.StatusBadRequest},
		{name: "threshold out of range", fields: map[string]string{"threshold": "2"}, want: http.StatusBadRequest},
		{
			name:  "recognizer failure",
			setup: func(e *testEnv) { e.recognizer.SearchError = errors.New("no face detected") },
			want:  http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			if tt.setup != nil {
				tt.setup(env)
			}
			body, ct := multipartBody(t, "me.jpg", []byte("face"), tt.fields)
			w := env.do(t, http.MethodPost, "/v1/events/1/search", body, ct)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.NotContains(t, w.Body.String(), "matches")
		})
	}
}

func TestSearch_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(cfg *RouterConfig) { cfg.SearchRatePerMinute = 2 })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		body, ct := multipartBody(t, "me.jpg", []byte("face"), nil)
		codes = append(codes, env.do(t, http.MethodPost, "/v1/events/1/search", body, ct).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestDeleteEventEmbeddings(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodDelete, "/v1/events/1/embeddings", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{1}, env.recognizer.DeletedEvents)

	env.recognizer.DeleteError = errors.New("index locked")
	w = env.do(t, http.MethodDelete, "/v1/events/1/embeddings", nil, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAPIKey(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/events/1/photos", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/events/1/photos", nil)
	req.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t, func(cfg *RouterConfig) {
		cfg.Checks = append(cfg.Checks, handlers.Check{
			Name: "recognizer",
			Fn:   func(context.Context) error { return errors.New("connection refused") },
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not ready", resp.Status)
	assert.Equal(t, "ok", resp.Checks["postgres"])
	assert.Equal(t, "connection refused", resp.Checks["recognizer"])
}

func TestStaticStorage(t *testing.T) {
	root := t.TempDir()
	env := newTestEnv(t, func(cfg *RouterConfig) {
		cfg.StaticPrefix = "/storage"
		cfg.StaticRoot = root
	})
	require.NoError(t, writeFile(root, "events/1/a.jpg", []byte("img")))

	req := httptest.NewRequest(http.MethodGet, "/storage/events/1/a.jpg", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "img", w.Body.String())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func writeFile(root, name string, data []byte) error {
	full := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}
