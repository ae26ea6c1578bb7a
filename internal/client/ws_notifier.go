package client

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatpro/internal/domain"
	"chatpro/internal/notify"
)

const wsWriteDeadline = 5 * time.Second

// WSNotifier es un Notifier respaldado por la conexión WebSocket al relay.
// Publish manda el frame al servidor; los frames entrantes se reparten en un
// hub local a los suscriptores de esta instancia.
type WSNotifier struct {
	conn   *websocket.Conn
	hub    *notify.Hub
	logger *zap.Logger

	writeMu sync.Mutex
}

// DialNotifier abre la conexión al endpoint /ws del relay y arranca el loop
// de lectura.
func DialNotifier(ctx context.Context, wsURL string, logger *zap.Logger) (*WSNotifier, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	n := &WSNotifier{
		conn:   conn,
		hub:    notify.NewHub(),
		logger: logger,
	}
	go n.readLoop()
	return n, nil
}

// Subscribe registra un handler local.
func (n *WSNotifier) Subscribe(handler notify.Handler) *notify.Subscription {
	return n.hub.Subscribe(handler)
}

// Unsubscribe cancela un handler local.
func (n *WSNotifier) Unsubscribe(sub *notify.Subscription) {
	n.hub.Unsubscribe(sub)
}

// Publish manda el mensaje al servidor. Fire-and-forget: un fallo del canal
// nunca bloquea ni falla el envío del mensaje, solo se loguea.
func (n *WSNotifier) Publish(msg domain.Message) {
	n.writeMu.Lock()
	defer n.writeMu.Unlock()

	_ = n.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	if err := n.conn.WriteJSON(msg); err != nil {
		n.logger.Warn("notifier publish failed", zap.Error(err))
	}
}

// Close cierra la conexión; el loop de lectura termina solo.
func (n *WSNotifier) Close() error {
	return n.conn.Close()
}

func (n *WSNotifier) readLoop() {
	for {
		var msg domain.Message
		if err := n.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				n.logger.Warn("notifier read failed", zap.Error(err))
			}
			return
		}
		n.hub.Publish(msg)
	}
}
