package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/gallery/internal/gallery"
	"github.com/your-org/gallery/internal/recognition"
)

var errFileTooLarge = errors.New("file too large")

func statusFor(err error) int {
	switch {
	case errors.Is(err, gallery.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gallery.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, recognition.ErrSearch),
		errors.Is(err, recognition.ErrExtraction),
		errors.Is(err, recognition.ErrDeletion):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// readUpload reads the multipart "file" field into memory.
func readUpload(c *gin.Context, maxBytes int64) (gallery.Upload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return gallery.Upload{}, fmt.Errorf("%w: file is required", gallery.ErrInvalidInput)
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return gallery.Upload{}, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return gallery.Upload{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return gallery.Upload{}, fmt.Errorf("read upload: %w", err)
	}

	return gallery.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
