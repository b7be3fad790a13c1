package port

import (
	"context"
	"imgopt/internal/core/domain"
)

type TextSender interface {
	// SendMessageReply sends text as a reply to the given message.
	SendMessageReply(ctx context.Context, message *domain.Message, text string) error
	// SendChatAction keeps showing the given action in the chat until ctx is done.
	SendChatAction(ctx context.Context, chatID int64, action domain.Action)
}

type ImageSender interface {
	// SendImageFileReply uploads file as a photo reply to the given message, with an optional caption.
	SendImageFileReply(ctx context.Context, message *domain.Message, file []byte, caption string) error
}
