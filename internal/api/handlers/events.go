package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/gallery/internal/gallery"
)

type EventHandler struct {
	svc *gallery.Service
}

func NewEventHandler(svc *gallery.Service) *EventHandler {
	return &EventHandler{svc: svc}
}

// DeleteEmbeddings purges every face embedding the recognizer holds for the event.
func (h *EventHandler) DeleteEmbeddings(c *gin.Context) {
	eventID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteEventEmbeddings(c.Request.Context(), eventID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
