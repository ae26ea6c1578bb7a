package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatpro/internal/domain"
	"chatpro/internal/notify"
	"chatpro/internal/repository"
)

// MessageHandler mantiene dependencias para los endpoints de mensajes.
type MessageHandler struct {
	logger    *zap.Logger
	messages  repository.MessageRepository
	publisher notify.Publisher
}

// NewMessageHandler crea una instancia de MessageHandler con sus dependencias.
func NewMessageHandler(logger *zap.Logger, messages repository.MessageRepository, publisher notify.Publisher) *MessageHandler {
	return &MessageHandler{
		logger:    logger,
		messages:  messages,
		publisher: publisher,
	}
}

// ListMessages maneja GET /api/messages. Devuelve todos los mensajes en orden
// de inserción; sin filtrado ni paginación del lado del servidor.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	messages, err := h.messages.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("fetch messages failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching messages"})
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

// CreateMessage maneja POST /api/messages. Los campos no se validan: texto,
// sender o recipient vacíos pasan al store tal cual, igual que en el contrato
// original. El mensaje creado se publica en el canal de notificaciones.
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req struct {
		Text      string `json:"text"`
		Sender    string `json:"sender"`
		Recipient string `json:"recipient"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	msg, err := h.messages.Append(c.Request.Context(), req.Text, req.Sender, req.Recipient)
	if err != nil {
		h.logger.Error("append message failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error sending message"})
		return
	}

	// Best-effort: la publicación nunca bloquea ni falla la respuesta.
	if h.publisher != nil {
		h.publisher.Publish(msg)
	}

	c.JSON(http.StatusOK, msg)
}
