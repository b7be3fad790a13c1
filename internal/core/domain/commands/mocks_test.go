package commands

import (
	"context"
	"imgopt/internal/core/domain"
	"sync"
)

type MockTextSender struct {
	mutex   sync.Mutex
	err     error
	Message string
	calls   int
	actions []domain.Action
}

func (m *MockTextSender) SendMessageReply(_ context.Context, _ *domain.Message, text string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.calls++
	m.Message = text
	return m.err
}

func (m *MockTextSender) SendChatAction(_ context.Context, _ int64, action domain.Action) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.actions = append(m.actions, action)
}

func (m *MockTextSender) Actions() []domain.Action {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return append([]domain.Action(nil), m.actions...)
}

type MockImageSender struct {
	err     error
	File    []byte
	Caption string
	calls   int
}

func (m *MockImageSender) SendImageFileReply(_ context.Context, _ *domain.Message, file []byte,
	caption string) error {
	m.calls++
	m.File = file
	m.Caption = caption
	return m.err
}

type MockDownloader struct {
	err      error
	response []byte
	url      string
}

func (m *MockDownloader) Download(_ context.Context, url string) ([]byte, error) {
	m.url = url
	return m.response, m.err
}

type MockOptimizer struct {
	err      error
	response []byte
	calls    int
	image    domain.ImageFile
	quality  int
}

func (m *MockOptimizer) Optimize(_ context.Context, image domain.ImageFile, quality int) ([]byte, error) {
	m.calls++
	m.image = image
	m.quality = quality
	return m.response, m.err
}
