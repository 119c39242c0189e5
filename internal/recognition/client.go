// Package recognition is the HTTP boundary to the external face recognition
// service. Every operation is a single call; there are no retries.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/gallery/internal/config"
	"github.com/your-org/gallery/internal/observability"
)

const (
	DefaultLimit     = 50
	DefaultThreshold = 0.6
)

var (
	ErrExtraction = errors.New("face extraction failed")
	ErrSearch     = errors.New("face search failed")
	ErrDeletion   = errors.New("embedding deletion failed")
)

// Image is an uploaded image as sent to the recognizer.
type Image struct {
	Data        []byte
	FileName    string
	ContentType string
}

type Embedding struct {
	VectorID   string    `json:"vector_id"`
	FaceIndex  int       `json:"face_index"`
	BBox       []float64 `json:"bbox"` // x1, y1, x2, y2
	Confidence float64   `json:"confidence"`
}

type ExtractResult struct {
	FaceCount  int         `json:"face_count"`
	Embeddings []Embedding `json:"embeddings"`
}

// Match is one nearest-neighbour hit. PhotoID is a foreign reference that
// may point at a photo that no longer exists.
type Match struct {
	VectorID   string    `json:"vector_id"`
	Similarity float64   `json:"similarity"`
	PhotoID    int64     `json:"photo_id"`
	EventID    int64     `json:"event_id"`
	FaceIndex  int       `json:"face_index"`
	BBox       []float64 `json:"bbox"` // x1, y1, x2, y2
	Confidence float64   `json:"confidence"`
}

type SearchResult struct {
	Matches      []Match `json:"matches"`
	TotalMatches int     `json:"total_matches"`
}

// SearchOptions fields left nil select DefaultLimit and DefaultThreshold.
// Set values, zero included, are sent as given.
type SearchOptions struct {
	Limit     *int
	Threshold *float64
}

func (o SearchOptions) limit() int {
	if o.Limit == nil {
		return DefaultLimit
	}
	return *o.Limit
}

func (o SearchOptions) threshold() float64 {
	if o.Threshold == nil {
		return DefaultThreshold
	}
	return *o.Threshold
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.RecognitionConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout, // inference on CPU can be slow
		},
	}
}

// Extract detects faces in img and registers their embeddings under photoID/eventID.
func (c *Client) Extract(ctx context.Context, img Image, photoID, eventID int64) (*ExtractResult, error) {
	defer observeDuration("extract", time.Now())

	var result ExtractResult
	err := c.postMultipart(ctx, "/api/face/extract", img, map[string]string{
		"photo_id": strconv.FormatInt(photoID, 10),
		"event_id": strconv.FormatInt(eventID, 10),
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("%w: photo %d: %w", ErrExtraction, photoID, err)
	}
	return &result, nil
}

// Search returns the recognizer's ranked matches for the face in img within eventID.
func (c *Client) Search(ctx context.Context, img Image, eventID int64, opts SearchOptions) (*SearchResult, error) {
	defer observeDuration("search", time.Now())

	var result SearchResult
	err := c.postMultipart(ctx, "/api/face/search", img, map[string]string{
		"event_id":  strconv.FormatInt(eventID, 10),
		"limit":     strconv.Itoa(opts.limit()),
		"threshold": strconv.FormatFloat(opts.threshold(), 'f', -1, 64),
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("%w: event %d: %w", ErrSearch, eventID, err)
	}
	return &result, nil
}

// DeleteEventEmbeddings drops every embedding the recognizer holds for eventID.
func (c *Client) DeleteEventEmbeddings(ctx context.Context, eventID int64) error {
	defer observeDuration("delete_event", time.Now())

	payload, err := json.Marshal(map[string]int64{"event_id": eventID})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %w", ErrDeletion, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/face/delete-event", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: create request: %w", ErrDeletion, err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("%w: event %d: %w", ErrDeletion, eventID, err)
	}
	return nil
}

// Health checks that the recognizer answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) postMultipart(ctx context.Context, path string, img Image, fields map[string]string, out any) error {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	fileName := img.FileName
	if fileName == "" {
		fileName = "upload.jpg"
	}
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return fmt.Errorf("write file part: %w", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call face service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("face service error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("face service error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func observeDuration(op string, start time.Time) {
	observability.RecognitionDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
