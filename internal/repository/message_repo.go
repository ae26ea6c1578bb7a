package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatpro/internal/domain"
)

// MessageRepository define las operaciones del store de mensajes.
// No hay update ni delete: los mensajes son append-only.
type MessageRepository interface {
	Append(ctx context.Context, text, sender, recipient string) (domain.Message, error)
	ListAll(ctx context.Context) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

// Append inserta el mensaje y devuelve el registro con el id asignado por la
// base. El id sale de la secuencia de la tabla, así que es atómico frente a
// escrituras concurrentes.
func (r *PgMessageRepository) Append(ctx context.Context, text, sender, recipient string) (domain.Message, error) {
	const query = `
		INSERT INTO messages (text, sender, recipient)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	msg := domain.Message{
		Text:      text,
		Sender:    sender,
		Recipient: recipient,
	}
	if err := r.pool.QueryRow(ctx, query, text, sender, recipient).Scan(&msg.ID); err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// ListAll devuelve todos los mensajes en orden de inserción (orden de id).
// El filtrado por par (sender, recipient) queda del lado del cliente.
func (r *PgMessageRepository) ListAll(ctx context.Context) ([]domain.Message, error) {
	const query = `
		SELECT id, text, sender, recipient
		FROM messages
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.Text, &msg.Sender, &msg.Recipient); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return messages, nil
}
