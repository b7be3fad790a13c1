package handler

import (
	"context"
	"imgopt/internal/core/domain"
	"imgopt/internal/core/port"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// FileResolver turns a Telegram file id into a download link. *bot.Bot implements it.
type FileResolver interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

type Command struct {
	commandRegistry port.CommandRegistry
	timeout         time.Duration
}

func NewCommand(commandRegistry port.CommandRegistry, timeout time.Duration) *Command {
	return &Command{commandRegistry: commandRegistry, timeout: timeout}
}

func (c *Command) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	msg := update.Message
	text := msg.Text
	if len(msg.Photo) > 0 {
		text = msg.Caption
	}

	log.Debug().Str("message", text).Msg("received command")

	cmd := domain.ParseCommand(text)
	commandHandler, err := c.commandRegistry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		return
	}

	var files FileResolver
	if b != nil {
		files = b
	}

	go func() {
		err := commandHandler.Respond(context.WithoutCancel(ctx), c.timeout, &domain.Message{
			ID:       msg.ID,
			ChatID:   msg.Chat.ID,
			Text:     text,
			Username: getUserNameFromMessage(msg.From),
			ImageURL: getOptionalImage(ctx, files, msg),
		})
		if err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

// getOptionalImage returns the download link of the photo attached to the message, or to the message it replies to.
func getOptionalImage(ctx context.Context, files FileResolver, msg *models.Message) string {
	var photos []models.PhotoSize

	if msg.ReplyToMessage != nil && len(msg.ReplyToMessage.Photo) > 0 {
		photos = msg.ReplyToMessage.Photo
	}

	if len(msg.Photo) > 0 {
		photos = msg.Photo
	}

	if len(photos) == 0 || files == nil {
		return ""
	}

	f, err := files.GetFile(ctx, &bot.GetFileParams{FileID: findLargestImage(photos)})
	if err != nil {
		log.Error().Err(err).Msg("error getting file from telegram api")
		return ""
	}

	return files.FileDownloadLink(f)
}

// findLargestImage returns the id of the biggest rendition, falling back to the last one.
func findLargestImage(photos []models.PhotoSize) string {
	largest := photos[len(photos)-1]
	for _, photo := range photos {
		if photo.FileSize > largest.FileSize {
			largest = photo
		}
	}

	return largest.FileID
}

func getUserNameFromMessage(user *models.User) string {
	if user == nil {
		return ""
	}

	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
