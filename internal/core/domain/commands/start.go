package commands

import (
	"context"
	"imgopt/internal/core/domain"
	"imgopt/internal/core/port"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type StartHandler struct {
	registry   port.CommandRegistry
	textSender port.TextSender
	command    string
}

func NewStartHandler(registry port.CommandRegistry, textSender port.TextSender, command string) *StartHandler {
	return &StartHandler{registry: registry, textSender: textSender, command: command}
}

func (h *StartHandler) GetCommand() string {
	return h.command
}

func (h *StartHandler) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	log.Info().Int64("chatId", message.ChatID).Str("command", h.GetCommand()).Str("user", message.Username).
		Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	go h.textSender.SendChatAction(ctx, message.ChatID, domain.Typing)

	var sb strings.Builder
	sb.WriteString("Send or reply to a photo with one of these commands:\n")
	for _, cmd := range h.registry.ListCommands() {
		if cmd == h.command {
			continue
		}
		sb.WriteString(cmd)
		sb.WriteString("\n")
	}

	return h.textSender.SendMessageReply(ctx, message, strings.TrimSpace(sb.String()))
}
