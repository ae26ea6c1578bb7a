// Package client implementa el lado cliente del relay: acceso HTTP al API y
// la vista de conversación para un par (sender, recipient).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chatpro/internal/domain"
)

// Client es el cliente HTTP del Relay API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New crea un cliente apuntando a baseURL (ej: http://localhost:3001).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:3001"
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ListMessages trae el historial completo de mensajes del servidor.
func (c *Client) ListMessages(ctx context.Context) ([]domain.Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/messages", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var messages []domain.Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}

// SendMessage crea un mensaje y devuelve el registro persistido con su id.
func (c *Client) SendMessage(ctx context.Context, text, sender, recipient string) (domain.Message, error) {
	payload, err := json.Marshal(map[string]string{
		"text":      text,
		"sender":    sender,
		"recipient": recipient,
	})
	if err != nil {
		return domain.Message{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/messages", bytes.NewReader(payload))
	if err != nil {
		return domain.Message{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return domain.Message{}, fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Message{}, apiError(resp)
	}

	var msg domain.Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return domain.Message{}, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}

// apiError arma un error a partir del payload {"error": ...} del servidor.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("api status %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("api status %d", resp.StatusCode)
}
