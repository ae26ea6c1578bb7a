package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatpro/internal/domain"
	"chatpro/internal/notify"
)

const (
	wsReadLimit     = 1 << 20 // 1 MB
	wsWriteDeadline = 5 * time.Second
	wsSendBuffer    = 16
)

// WSHandler expone el hub por WebSocket: cada conexión es un suscriptor, y
// cualquier frame newMessage recibido del cliente se reenvía al canal (la
// variante eco del cliente original).
type WSHandler struct {
	logger   *zap.Logger
	hub      *notify.Hub
	mirror   notify.Publisher
	upgrader websocket.Upgrader
}

// NewWSHandler crea el handler. mirror es el destino de los frames relé;
// normalmente el propio hub, o hub + bridge cuando hay Redis.
func NewWSHandler(logger *zap.Logger, hub *notify.Hub, mirror notify.Publisher) *WSHandler {
	return &WSHandler{
		logger: logger,
		hub:    hub,
		mirror: mirror,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve maneja GET /ws.
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan domain.Message, wsSendBuffer)
	done := make(chan struct{})

	sub := h.hub.Subscribe(func(msg domain.Message) {
		// Consumidor lento: se descarta el evento, nunca se bloquea el Publish.
		select {
		case send <- msg:
		default:
		}
	})
	defer h.hub.Unsubscribe(sub)

	go func() {
		for {
			select {
			case <-done:
				return
			case msg := <-send:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
				if err := conn.WriteJSON(msg); err != nil {
					h.logger.Warn("websocket write failed", zap.Error(err))
					_ = conn.Close()
					return
				}
			}
		}
	}()
	defer close(done)

	conn.SetReadLimit(wsReadLimit)
	for {
		var msg domain.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		h.mirror.Publish(msg)
	}
}
