package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chatpro/internal/domain"
)

// Publisher abstrae el destino de una publicación. Lo implementan Hub,
// RedisBridge y Fanout.
type Publisher interface {
	Publish(msg domain.Message)
}

// Fanout publica el mismo mensaje en varios destinos, en orden.
type Fanout []Publisher

func (f Fanout) Publish(msg domain.Message) {
	for _, p := range f {
		p.Publish(msg)
	}
}

// envelope es el frame que viaja por Redis. El origin evita que una instancia
// vuelva a entregar sus propias publicaciones al recibirlas por Pub/Sub.
type envelope struct {
	Origin  string         `json:"origin"`
	Message domain.Message `json:"message"`
}

// RedisBridge replica publicaciones locales por Redis Pub/Sub y entrega en el
// hub local las publicaciones de otras instancias. Best-effort igual que el
// hub: un fallo de Redis nunca bloquea ni falla el envío de un mensaje.
type RedisBridge struct {
	client  *redis.Client
	channel string
	origin  string
	hub     *Hub
	logger  *zap.Logger
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisBridge {
	return &RedisBridge{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		hub:     hub,
		logger:  logger,
	}
}

// Publish envía el mensaje al canal de Redis. Errores se loguean y se tragan.
func (b *RedisBridge) Publish(msg domain.Message) {
	payload, err := json.Marshal(envelope{Origin: b.origin, Message: msg})
	if err != nil {
		b.logger.Warn("bridge encode failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("bridge publish failed", zap.Error(err))
	}
}

// Run consume el canal de Redis hasta que el contexto se cancele, entregando
// en el hub local los mensajes originados en otras instancias.
func (b *RedisBridge) Run(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			env, err := decodeEnvelope([]byte(m.Payload))
			if err != nil {
				b.logger.Warn("bridge decode failed", zap.Error(err))
				continue
			}
			if env.Origin == b.origin {
				continue
			}
			b.hub.Publish(env.Message)
		}
	}
}

func decodeEnvelope(payload []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return envelope{}, err
	}
	return env, nil
}
