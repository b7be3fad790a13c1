package domain

import "errors"

var (
	ErrNoSelection        = errors.New("select an image first")
	ErrSubmissionInFlight = errors.New("an optimization is already running")
	ErrViewClosed         = errors.New("view closed")
	ErrUnexpectedStatus   = errors.New("unexpected status from optimization service")
	ErrEmptyPreview       = errors.New("no data to preview")
	ErrPreviewNotFound    = errors.New("preview not found")
	ErrSendingReplyFailed = errors.New("failed to send reply")
)

const (
	MinQuality     = 0
	MaxQuality     = 100
	DefaultQuality = 80
)
