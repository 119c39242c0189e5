package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/gallery/internal/models"
	"github.com/your-org/gallery/pkg/dto"
)

func newTestServer(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	go hub.Run()

	r := gin.New()
	r.GET("/ws", hub.HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_FiltersByEvent(t *testing.T) {
	hub, url := newTestServer(t)

	watching := dial(t, url+"?event_id=1")
	other := dial(t, url+"?event_id=2")
	all := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastNotification(models.PhotoNotification{
		Type:       models.PhotoUploaded,
		EventID:    1,
		PhotoID:    10,
		OccurredAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	})

	for _, conn := range []*websocket.Conn{watching, all} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var evt dto.WSEvent
		require.NoError(t, json.Unmarshal(data, &evt))
		assert.Equal(t, "photo.uploaded", evt.Type)
		assert.Equal(t, int64(10), evt.PhotoID)
		assert.Equal(t, "2026-06-01T12:00:00Z", evt.Timestamp)
	}

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "client of another event receives nothing")
}

func TestHub_InvalidEventID(t *testing.T) {
	_, url := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?event_id=abc", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
