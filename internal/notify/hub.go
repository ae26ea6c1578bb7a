package notify

import (
	"sync"

	"github.com/google/uuid"

	"chatpro/internal/domain"
)

// Handler recibe un mensaje recién creado. Se invoca de forma síncrona
// durante Publish, así que no debe bloquear.
type Handler func(domain.Message)

// Subscription es el handle devuelto por Subscribe; se usa para cancelar.
type Subscription struct {
	id uuid.UUID
}

// Hub es el canal de notificaciones en proceso: fan-out best-effort de
// mensajes creados hacia los suscriptores actuales. Sin acks, sin reintentos,
// sin replay: quien se suscribe después de un Publish nunca ve ese evento.
type Hub struct {
	mu       sync.RWMutex
	handlers map[uuid.UUID]Handler
}

func NewHub() *Hub {
	return &Hub{handlers: make(map[uuid.UUID]Handler)}
}

// Subscribe registra un handler y devuelve su handle.
func (h *Hub) Subscribe(handler Handler) *Subscription {
	sub := &Subscription{id: uuid.New()}
	h.mu.Lock()
	h.handlers[sub.id] = handler
	h.mu.Unlock()
	return sub
}

// Unsubscribe detiene la entrega hacia ese handle. Es seguro llamarlo aunque
// nunca haya llegado un evento, y es idempotente.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	delete(h.handlers, sub.id)
	h.mu.Unlock()
}

// Publish entrega el mensaje a todos los suscriptores actuales, a lo sumo una
// vez por suscriptor. Fire-and-forget: no espera confirmación de nadie.
func (h *Hub) Publish(msg domain.Message) {
	h.mu.RLock()
	snapshot := make([]Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		snapshot = append(snapshot, handler)
	}
	h.mu.RUnlock()

	for _, handler := range snapshot {
		handler(msg)
	}
}

// Len devuelve la cantidad de suscriptores activos.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers)
}
