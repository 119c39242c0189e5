package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/gallery/internal/gallery"
	"github.com/your-org/gallery/pkg/dto"
)

type SearchHandler struct {
	svc            *gallery.Service
	maxUploadBytes int64
}

func NewSearchHandler(svc *gallery.Service, maxUploadBytes int64) *SearchHandler {
	return &SearchHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// Search finds photos of the person in the uploaded face image.
func (h *SearchHandler) Search(c *gin.Context) {
	eventID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var q dto.SearchQuery
	if err := c.ShouldBind(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	up, err := readUpload(c, h.maxUploadBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.svc.SearchByFace(c.Request.Context(), eventID, up, gallery.SearchParams{
		Limit:     q.Limit,
		Threshold: q.Threshold,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	matches := make([]dto.FaceMatchResponse, 0, len(res.Matches))
	for _, m := range res.Matches {
		item := dto.FaceMatchResponse{
			PhotoID:      m.PhotoID,
			PhotoURL:     m.PhotoURL,
			ThumbnailURL: m.ThumbnailURL,
			Similarity:   m.Similarity,
		}
		if m.Location != nil {
			item.FaceLocation = &dto.FaceLocation{
				X:      m.Location.X,
				Y:      m.Location.Y,
				Width:  m.Location.Width,
				Height: m.Location.Height,
			}
		}
		matches = append(matches, item)
	}

	c.JSON(http.StatusOK, dto.FaceSearchResponse{Matches: matches, TotalMatches: res.TotalMatches})
}
