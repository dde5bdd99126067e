package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/skillsenselab/speakerline/audio"
	"github.com/skillsenselab/speakerline/logger"
)

const (
	wsReadLimit    = 1 << 20 // 1MiB per message, far above any sane chunk
	wsPongWait     = 30 * time.Second
	wsPingInterval = 20 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 4 * 1024,
	// Browser clients connect from the coaching UI on another origin;
	// CORS policy is enforced by the middleware stack, not here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleAudioSocket upgrades the connection and feeds binary s16le PCM
// messages into the session. Closing the socket stops ingest but leaves the
// session live; DELETE /v1/sessions/:id tears it down.
func (a *API) handleAudioSocket(c *gin.Context) {
	id := c.Param("id")
	s, ok := a.orch.Stream(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.log.Warn("WebSocket upgrade failed", logger.ErrorFields("upgrade", err))
		return
	}
	defer conn.Close()

	log := a.log.WithStream(id)
	log.Info("audio socket connected")

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("audio socket read error", logger.ErrorFields("read", err))
			} else {
				log.Info("audio socket closed")
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if len(data)%audio.BytesPerSample != 0 {
			log.Warn("discarding odd-length audio message", logger.Fields(
				"bytes", len(data),
			))
			continue
		}
		s.PushAudio(data)
	}
}

func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
