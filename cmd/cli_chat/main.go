package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chatpro/internal/client"
	"chatpro/internal/domain"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	baseURL := os.Getenv("CHAT_SERVER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3001"
	}

	logger := zap.NewExample()
	defer logger.Sync()

	fmt.Println("===== ChatPro =====")
	sender := readName(reader, "Tu nombre: ")
	recipient := readName(reader, "Nombre del destinatario: ")

	notifier, err := client.DialNotifier(ctx, wsURL(baseURL), logger)
	if err != nil {
		log.Fatalf("conectar al canal: %v", err)
	}
	defer notifier.Close()

	api := client.New(baseURL)
	view := client.NewConversationView(api, notifier, logger)
	view.OnMessage(func(msg domain.Message) {
		printMessage(msg, sender)
	})

	if err := view.Start(ctx, sender, recipient); err != nil {
		log.Fatalf("iniciar conversacion: %v", err)
	}
	defer view.Stop()

	history := view.Messages()
	if len(history) == 0 {
		fmt.Println("No hay mensajes todavia.")
	}
	for _, msg := range history {
		printMessage(msg, sender)
	}

	fmt.Println("---- Modo Chat (escribe 'salir' para terminar, '/seen <id>' para marcar visto) ----")
	for {
		fmt.Print("Tu > ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "salir") || strings.EqualFold(line, "exit") {
			fmt.Println("Saliendo del chat...")
			return
		}
		if rest, ok := strings.CutPrefix(line, "/seen "); ok {
			id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
			if err != nil {
				fmt.Println("Id invalido.")
				continue
			}
			view.MarkSeen(id)
			continue
		}

		if _, err := view.Send(ctx, line); err != nil {
			if errors.Is(err, client.ErrEmptyText) {
				continue
			}
			fmt.Printf("error enviando mensaje: %v\n", err)
		}
	}
}

// readName insiste hasta obtener un nombre no vacío, igual que el formulario
// original con campos required.
func readName(reader *bufio.Reader, prompt string) string {
	for {
		fmt.Print(prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			os.Exit(1)
		}
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
}

func printMessage(msg domain.Message, localSender string) {
	who := msg.Sender
	if msg.Sender == localSender {
		who = "Tu"
	}
	fmt.Printf("[%d] %s: %s\n", msg.ID, who, msg.Text)
}

// wsURL deriva la URL del endpoint /ws a partir de la base HTTP.
func wsURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://") + "/ws"
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://") + "/ws"
	default:
		return baseURL + "/ws"
	}
}
