package commands

import (
	"context"
	"fmt"
	"imgopt/internal/core/domain"
	"imgopt/internal/core/port"
	"imgopt/internal/core/service"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

type Previews interface {
	port.PreviewStore
	port.PreviewReader
}

type OptimizeHandler struct {
	downloader     port.FileDownloader
	optimizer      port.Optimizer
	previews       Previews
	textSender     port.TextSender
	imageSender    port.ImageSender
	defaultQuality int
	command        string
}

func NewOptimizeHandler(downloader port.FileDownloader, optimizer port.Optimizer, previews Previews,
	textSender port.TextSender, imageSender port.ImageSender, defaultQuality int, command string) *OptimizeHandler {
	return &OptimizeHandler{
		downloader:     downloader,
		optimizer:      optimizer,
		previews:       previews,
		textSender:     textSender,
		imageSender:    imageSender,
		defaultQuality: defaultQuality,
		command:        command,
	}
}

func (h *OptimizeHandler) GetCommand() string {
	return h.command
}

func (h *OptimizeHandler) usage() string {
	return fmt.Sprintf("usage: %s or %s <quality>, %d-%d", h.command, h.command, domain.MinQuality,
		domain.MaxQuality)
}

func (h *OptimizeHandler) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", h.GetCommand()).
		Str("user", message.Username).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if message.ImageURL == "" {
		return h.textSender.SendMessageReply(ctx, message, domain.ErrNoSelection.Error())
	}

	quality := h.defaultQuality
	if args := domain.ParseCommandArgs(message.Text); args != "" {
		q, err := strconv.Atoi(args)
		if err != nil || q < domain.MinQuality || q > domain.MaxQuality {
			return h.textSender.SendMessageReply(ctx, message, h.usage())
		}
		quality = q
	}

	go h.textSender.SendChatAction(ctx, message.ChatID, domain.SendingPhoto)

	data, err := h.downloader.Download(ctx, message.ImageURL)
	if err != nil {
		l.Error().Err(err).Msg("failed to download image")
		return nil
	}

	view := service.NewOptimizerView(h.optimizer, h.previews, quality).WithID(fmt.Sprintf("chat-%d-%d",
		message.ChatID, message.ID))
	defer view.Close()

	err = view.SelectImage(domain.ImageFile{
		Name:        imageName(message.ImageURL),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	})
	if err != nil {
		return fmt.Errorf("failed to select image: %w", err)
	}

	err = view.Submit(ctx)
	if err != nil {
		// already logged by the view
		return nil
	}

	p := view.Presentation()
	if p.Optimized == nil || !p.Optimized.Preview.Valid() {
		l.Debug().Msg("optimized image has nothing to send")
		return nil
	}

	optimized, err := h.previews.Read(p.Optimized.Preview)
	if err != nil {
		l.Debug().Err(err).Msg("optimized preview is gone")
		return nil
	}

	err = h.imageSender.SendImageFileReply(ctx, message, optimized, caption(p))
	if err != nil {
		return fmt.Errorf("failed to send optimized image: %w", err)
	}

	return nil
}

func caption(p domain.Presentation) string {
	lines := []string{
		"Original: " + p.Selected.SizeLabel,
		"Optimized: " + p.Optimized.SizeLabel,
	}
	if p.Reduction != "" {
		lines = append(lines, "Reduction: "+p.Reduction)
	}

	return strings.Join(lines, "\n")
}

func imageName(url string) string {
	name := path.Base(strings.SplitN(url, "?", 2)[0])
	if name == "." || name == "/" {
		return "image"
	}

	return name
}
