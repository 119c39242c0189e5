package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/gallery/internal/gallery"
	"github.com/your-org/gallery/pkg/dto"
)

type PhotoHandler struct {
	svc            *gallery.Service
	maxUploadBytes int64
}

func NewPhotoHandler(svc *gallery.Service, maxUploadBytes int64) *PhotoHandler {
	return &PhotoHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// Upload accepts a multipart image for an event.
func (h *PhotoHandler) Upload(c *gin.Context) {
	eventID, ok := parseID(c, "id")
	if !ok {
		return
	}

	up, err := readUpload(c, h.maxUploadBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	photo, err := h.svc.UploadPhoto(c.Request.Context(), eventID, up)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.PhotoUploadResponse{
		ID:          photo.ID,
		FileName:    photo.FileName,
		StoragePath: photo.StoragePath,
		FileSize:    photo.FileSize,
		FaceCount:   photo.FaceCount,
		Processed:   photo.Processed,
		UploadedAt:  formatTime(photo.UploadedAt),
	})
}

func (h *PhotoHandler) List(c *gin.Context) {
	eventID, ok := parseID(c, "id")
	if !ok {
		return
	}

	photos, err := h.svc.ListPhotos(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.GalleryPhotoResponse, 0, len(photos))
	for i := range photos {
		resp = append(resp, toGalleryPhotoResponse(&photos[i]))
	}

	c.JSON(http.StatusOK, dto.PhotoListResponse{Photos: resp, Total: len(resp)})
}

func (h *PhotoHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	photo, err := h.svc.GetPhoto(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGalleryPhotoResponse(photo))
}

func (h *PhotoHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeletePhoto(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func toGalleryPhotoResponse(p *gallery.GalleryPhoto) dto.GalleryPhotoResponse {
	return dto.GalleryPhotoResponse{
		ID:           p.ID,
		EventID:      p.EventID,
		FileName:     p.FileName,
		PhotoURL:     p.PhotoURL,
		ThumbnailURL: p.ThumbnailURL,
		FileSize:     p.FileSize,
		ContentType:  p.ContentType,
		Width:        p.Width,
		Height:       p.Height,
		FaceCount:    p.FaceCount,
		Processed:    p.Processed,
		UploadedAt:   formatTime(p.UploadedAt),
	}
}
