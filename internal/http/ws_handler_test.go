package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatpro/internal/domain"
	"chatpro/internal/notify"
)

func setupWSServer(t *testing.T, hub *notify.Hub, mirror notify.Publisher) (*httptest.Server, *websocket.Conn) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWSHandler(zap.NewNop(), hub, mirror)
	r.GET("/ws", h.Serve)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// La suscripción ocurre en el handler después del upgrade; esperamos a
	// que el hub la registre antes de publicar.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for subscription")
		}
		time.Sleep(5 * time.Millisecond)
	}

	return srv, conn
}

func TestWSDeliversHubPublications(t *testing.T) {
	hub := notify.NewHub()
	_, conn := setupWSServer(t, hub, hub)

	hub.Publish(domain.Message{ID: 1, Text: "hi", Sender: "alice", Recipient: "bob"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got domain.Message
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read message: %v", err)
	}
	if got.ID != 1 || got.Text != "hi" || got.Sender != "alice" {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestWSRelaysClientFrames(t *testing.T) {
	hub := notify.NewHub()
	_, conn := setupWSServer(t, hub, hub)

	received := make(chan domain.Message, 1)
	hub.Subscribe(func(msg domain.Message) {
		select {
		case received <- msg:
		default:
		}
	})

	if err := conn.WriteJSON(domain.Message{ID: 9, Text: "eco", Sender: "alice", Recipient: "bob"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	select {
	case msg := <-received:
		if msg.ID != 9 || msg.Text != "eco" {
			t.Fatalf("unexpected relayed message: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed frame")
	}
}

func TestWSUnsubscribesOnDisconnect(t *testing.T) {
	hub := notify.NewHub()
	_, conn := setupWSServer(t, hub, hub)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 0 subscribers after disconnect, got %d", hub.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
