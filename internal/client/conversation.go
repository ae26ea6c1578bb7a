package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"chatpro/internal/domain"
	"chatpro/internal/notify"
)

// API es la superficie del Relay API que necesita la vista.
type API interface {
	ListMessages(ctx context.Context) ([]domain.Message, error)
	SendMessage(ctx context.Context, text, sender, recipient string) (domain.Message, error)
}

// Notifier es el canal de notificaciones visto desde la vista. Es un recurso
// construido y pasado explícitamente; la vista se suscribe al entrar en Active
// y se desuscribe al salir.
type Notifier interface {
	Subscribe(handler notify.Handler) *notify.Subscription
	Unsubscribe(sub *notify.Subscription)
	Publish(msg domain.Message)
}

var (
	ErrNamesRequired = errors.New("sender and recipient names are required")
	ErrAlreadyActive = errors.New("conversation already active")
	ErrNotActive     = errors.New("conversation not active")
	ErrEmptyText     = errors.New("message text is empty")
)

// State es el estado de la vista de conversación.
type State int

const (
	StateUnidentified State = iota
	StateActive
)

// ConversationView mantiene la lista visible de mensajes para exactamente un
// par (sender, recipient): historial traído del API más notificaciones en
// vivo, ambos filtrados por igualdad exacta de campos.
type ConversationView struct {
	api      API
	notifier Notifier
	logger   *zap.Logger

	mu        sync.Mutex
	state     State
	sender    string
	recipient string
	messages  []domain.Message
	seen      int64
	hasSeen   bool
	sub       *notify.Subscription
	onMessage func(domain.Message)
}

// NewConversationView crea una vista en estado Unidentified.
func NewConversationView(api API, notifier Notifier, logger *zap.Logger) *ConversationView {
	return &ConversationView{
		api:      api,
		notifier: notifier,
		logger:   logger,
	}
}

// OnMessage registra un callback que se dispara por cada mensaje que entra a
// la vista por notificación. Debe llamarse antes de Start.
func (v *ConversationView) OnMessage(fn func(domain.Message)) {
	v.mu.Lock()
	v.onMessage = fn
	v.mu.Unlock()
}

// Start pasa la vista a Active: exactamente un fetch completo filtrado al par
// y exactamente una suscripción al canal. Ambos nombres deben ser no vacíos.
// Si el fetch falla solo se loguea; la vista queda Active con historial vacío,
// igual que el cliente original.
func (v *ConversationView) Start(ctx context.Context, sender, recipient string) error {
	sender = strings.TrimSpace(sender)
	recipient = strings.TrimSpace(recipient)
	if sender == "" || recipient == "" {
		return ErrNamesRequired
	}

	v.mu.Lock()
	if v.state == StateActive {
		v.mu.Unlock()
		return ErrAlreadyActive
	}
	v.state = StateActive
	v.sender = sender
	v.recipient = recipient
	v.messages = nil
	v.hasSeen = false
	v.sub = v.notifier.Subscribe(v.handleNotification)
	v.mu.Unlock()

	history, err := v.api.ListMessages(ctx)
	if err != nil {
		v.logger.Warn("fetch messages failed", zap.Error(err))
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	// Stop (u otro ciclo de Start) pudo ganar mientras el fetch estaba en
	// vuelo; en ese caso el historial traído se descarta.
	if v.state != StateActive || v.sender != sender || v.recipient != recipient {
		return nil
	}
	// Las notificaciones que llegaron durante el fetch ya están en la lista;
	// va primero el historial y después se reaplican deduplicadas por id.
	notified := v.messages
	v.messages = nil
	for _, msg := range history {
		if msg.IsBetween(sender, recipient) {
			v.appendLocked(msg)
		}
	}
	for _, msg := range notified {
		v.appendLocked(msg)
	}
	return nil
}

// Stop desuscribe del canal y vuelve a Unidentified. El estado derivado vive
// solo mientras la sesión está activa, así que se descarta.
func (v *ConversationView) Stop() {
	v.mu.Lock()
	sub := v.sub
	v.sub = nil
	v.state = StateUnidentified
	v.messages = nil
	v.hasSeen = false
	v.mu.Unlock()

	if sub != nil {
		v.notifier.Unsubscribe(sub)
	}
}

// Send valida que el texto no sea vacío antes de tocar la red, crea el mensaje
// vía el API, lo agrega al estado local y lo publica en el canal. Si el envío
// falla solo se loguea y el estado local queda intacto.
func (v *ConversationView) Send(ctx context.Context, text string) (domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, ErrEmptyText
	}

	v.mu.Lock()
	if v.state != StateActive {
		v.mu.Unlock()
		return domain.Message{}, ErrNotActive
	}
	sender, recipient := v.sender, v.recipient
	v.mu.Unlock()

	msg, err := v.api.SendMessage(ctx, text, sender, recipient)
	if err != nil {
		v.logger.Warn("send message failed", zap.Error(err))
		return domain.Message{}, err
	}

	v.mu.Lock()
	v.appendLocked(msg)
	v.mu.Unlock()

	v.notifier.Publish(msg)
	return msg, nil
}

// MarkSeen registra a lo sumo un id "visto" localmente. Puramente cosmético:
// no se persiste ni se comunica a la otra parte.
func (v *ConversationView) MarkSeen(messageID int64) {
	v.mu.Lock()
	v.seen = messageID
	v.hasSeen = true
	v.mu.Unlock()
}

// Seen devuelve el id marcado como visto, si hay alguno.
func (v *ConversationView) Seen() (int64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seen, v.hasSeen
}

// State devuelve el estado actual de la vista.
func (v *ConversationView) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Messages devuelve una copia de la lista visible, en orden.
func (v *ConversationView) Messages() []domain.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.Message, len(v.messages))
	copy(out, v.messages)
	return out
}

// handleNotification procesa un evento del canal: descarta todo lo que no sea
// del par exacto y los ids ya presentes (el eco de un envío propio vuelve por
// el canal con el mismo id).
func (v *ConversationView) handleNotification(msg domain.Message) {
	v.mu.Lock()
	if v.state != StateActive || !msg.IsBetween(v.sender, v.recipient) {
		v.mu.Unlock()
		return
	}
	if !v.appendLocked(msg) {
		v.mu.Unlock()
		return
	}
	fn := v.onMessage
	v.mu.Unlock()

	if fn != nil {
		fn(msg)
	}
}

// appendLocked agrega el mensaje si su id no está ya en la lista.
func (v *ConversationView) appendLocked(msg domain.Message) bool {
	for _, existing := range v.messages {
		if existing.ID == msg.ID {
			return false
		}
	}
	v.messages = append(v.messages, msg)
	return true
}
