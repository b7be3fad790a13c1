package service

import (
	"context"
	"errors"
	"fmt"
	"imgopt/internal/core/domain"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOptimizer struct {
	response []byte
	err      error
	calls    int
	quality  int
	image    domain.ImageFile
	started  chan struct{}
	unblock  chan struct{}
}

func (m *mockOptimizer) Optimize(_ context.Context, image domain.ImageFile, quality int) ([]byte, error) {
	m.calls++
	m.image = image
	m.quality = quality
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.unblock != nil {
		<-m.unblock
	}
	return m.response, m.err
}

type mockPreviewStore struct {
	mutex    sync.Mutex
	next     int
	live     map[domain.PreviewRef]int
	released map[domain.PreviewRef]int
	fail     bool
}

func newMockPreviewStore() *mockPreviewStore {
	return &mockPreviewStore{
		live:     make(map[domain.PreviewRef]int),
		released: make(map[domain.PreviewRef]int),
	}
}

func (m *mockPreviewStore) Create(data []byte) (domain.PreviewRef, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.fail || len(data) == 0 {
		return "", domain.ErrEmptyPreview
	}

	m.next++
	ref := domain.PreviewRef(fmt.Sprintf("ref-%d", m.next))
	m.live[ref] = len(data)
	return ref, nil
}

func (m *mockPreviewStore) Release(ref domain.PreviewRef) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.released[ref]++
	if _, ok := m.live[ref]; !ok {
		return false
	}
	delete(m.live, ref)
	return true
}

func image(name string, size int) domain.ImageFile {
	return domain.ImageFile{Name: name, ContentType: "image/png", Data: make([]byte, size)}
}

func TestOptimizerView_SelectImage(t *testing.T) {
	previews := newMockPreviewStore()
	v := NewOptimizerView(&mockOptimizer{}, previews, 80)

	require.NoError(t, v.SelectImage(image("a.png", 1500)))

	p := v.Presentation()
	require.NotNil(t, p.Selected)
	assert.Equal(t, domain.PreviewRef("ref-1"), p.Selected.Preview)
	assert.Equal(t, int64(1500), p.Selected.Size)
	assert.Equal(t, "1.46 KB", p.Selected.SizeLabel)
	assert.Nil(t, p.Optimized)
	assert.Empty(t, p.Reduction)
}

func TestOptimizerView_ReselectReleasesPreviousPreview(t *testing.T) {
	previews := newMockPreviewStore()
	v := NewOptimizerView(&mockOptimizer{}, previews, 80)

	for i := 1; i <= 5; i++ {
		require.NoError(t, v.SelectImage(image(fmt.Sprintf("%d.png", i), 100*i)))
	}

	assert.Len(t, previews.live, 1)
	assert.Contains(t, previews.live, domain.PreviewRef("ref-5"))
	for i := 1; i <= 4; i++ {
		assert.Equal(t, 1, previews.released[domain.PreviewRef(fmt.Sprintf("ref-%d", i))])
	}
	assert.Equal(t, int64(500), v.Presentation().Selected.Size)
}

func TestOptimizerView_SelectWithoutPreview(t *testing.T) {
	previews := newMockPreviewStore()
	previews.fail = true
	v := NewOptimizerView(&mockOptimizer{}, previews, 80)

	require.NoError(t, v.SelectImage(image("broken.png", 10)))

	p := v.Presentation()
	require.NotNil(t, p.Selected)
	assert.False(t, p.Selected.Preview.Valid())
	assert.Equal(t, int64(10), p.Selected.Size)
}

func TestOptimizerView_SetQuality(t *testing.T) {
	tests := []struct {
		name  string
		value int
		want  int
	}{
		{name: "in range", value: 42, want: 42},
		{name: "lower bound", value: 0, want: 0},
		{name: "upper bound", value: 100, want: 100},
		{name: "clamped below", value: -1, want: 0},
		{name: "clamped above", value: 101, want: 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := NewOptimizerView(&mockOptimizer{}, newMockPreviewStore(), 80)
			require.NoError(t, v.SetQuality(tc.value))
			assert.Equal(t, tc.want, v.Presentation().Quality)
		})
	}
}

func TestOptimizerView_SubmitWithoutSelection(t *testing.T) {
	optimizer := &mockOptimizer{response: []byte("x")}
	v := NewOptimizerView(optimizer, newMockPreviewStore(), 80)

	err := v.Submit(testContext(t))

	assert.ErrorIs(t, err, domain.ErrNoSelection)
	assert.Equal(t, "select an image first", err.Error())
	assert.Equal(t, 0, optimizer.calls)
	assert.Nil(t, v.Presentation().Optimized)
}

func TestOptimizerView_SubmitSuccess(t *testing.T) {
	optimizer := &mockOptimizer{response: make([]byte, 400000)}
	previews := newMockPreviewStore()
	v := NewOptimizerView(optimizer, previews, 80)

	selected := image("photo.jpg", 1000000)
	require.NoError(t, v.SelectImage(selected))
	require.NoError(t, v.SetQuality(55))
	before := v.Presentation().Selected

	require.NoError(t, v.Submit(testContext(t)))

	assert.Equal(t, 1, optimizer.calls)
	assert.Equal(t, 55, optimizer.quality)
	assert.Equal(t, selected, optimizer.image)

	p := v.Presentation()
	assert.Equal(t, before, p.Selected)
	require.NotNil(t, p.Optimized)
	assert.Equal(t, int64(400000), p.Optimized.Size)
	assert.Equal(t, domain.FormatSize(400000), p.Optimized.SizeLabel)
	assert.Equal(t, "60.0%", p.Reduction)
}

func TestOptimizerView_ResubmitReplacesOptimized(t *testing.T) {
	optimizer := &mockOptimizer{response: make([]byte, 300)}
	previews := newMockPreviewStore()
	v := NewOptimizerView(optimizer, previews, 80)

	require.NoError(t, v.SelectImage(image("a.png", 1000)))
	require.NoError(t, v.Submit(testContext(t)))
	first := v.Presentation().Optimized.Preview

	optimizer.response = make([]byte, 200)
	require.NoError(t, v.Submit(testContext(t)))

	p := v.Presentation()
	assert.NotEqual(t, first, p.Optimized.Preview)
	assert.Equal(t, 1, previews.released[first])
	assert.Equal(t, "80.0%", p.Reduction)
	assert.Len(t, previews.live, 2)
}

func TestOptimizerView_SubmitFailureKeepsState(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "unexpected status", err: fmt.Errorf("%w: 500", domain.ErrUnexpectedStatus)},
		{name: "transport failure", err: errors.New("connection refused")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			optimizer := &mockOptimizer{response: make([]byte, 10)}
			previews := newMockPreviewStore()
			v := NewOptimizerView(optimizer, previews, 80)

			require.NoError(t, v.SelectImage(image("a.png", 100)))
			require.NoError(t, v.Submit(testContext(t)))
			before := v.Presentation()

			optimizer.err = tc.err
			optimizer.response = nil
			err := v.Submit(testContext(t))

			require.Error(t, err)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, before, v.Presentation())
			assert.Len(t, previews.live, 2)
			assert.Empty(t, previews.released)
		})
	}
}

func TestOptimizerView_ConcurrentSubmitRejected(t *testing.T) {
	optimizer := &mockOptimizer{
		response: make([]byte, 5),
		started:  make(chan struct{}, 1),
		unblock:  make(chan struct{}),
	}
	v := NewOptimizerView(optimizer, newMockPreviewStore(), 80)
	require.NoError(t, v.SelectImage(image("a.png", 10)))

	done := make(chan error, 1)
	go func() {
		done <- v.Submit(context.Background())
	}()
	<-optimizer.started

	err := v.Submit(testContext(t))
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)

	close(optimizer.unblock)
	require.NoError(t, <-done)
	assert.Equal(t, 1, optimizer.calls)

	optimizer.started = nil
	assert.NoError(t, v.Submit(testContext(t)))
}

func TestOptimizerView_Close(t *testing.T) {
	previews := newMockPreviewStore()
	v := NewOptimizerView(&mockOptimizer{response: make([]byte, 3)}, previews, 80)

	require.NoError(t, v.SelectImage(image("a.png", 10)))
	require.NoError(t, v.Submit(testContext(t)))
	require.Len(t, previews.live, 2)

	assert.False(t, v.Closed())
	v.Close()
	v.Close()
	assert.True(t, v.Closed())

	assert.Empty(t, previews.live)
	assert.Equal(t, 1, previews.released["ref-1"])
	assert.Equal(t, 1, previews.released["ref-2"])

	assert.ErrorIs(t, v.SelectImage(image("b.png", 10)), domain.ErrViewClosed)
	assert.ErrorIs(t, v.SetQuality(10), domain.ErrViewClosed)
	assert.ErrorIs(t, v.Submit(testContext(t)), domain.ErrViewClosed)
	assert.Empty(t, previews.live)
}

func TestOptimizerView_CloseDuringSubmission(t *testing.T) {
	optimizer := &mockOptimizer{
		response: make([]byte, 5),
		started:  make(chan struct{}, 1),
		unblock:  make(chan struct{}),
	}
	previews := newMockPreviewStore()
	v := NewOptimizerView(optimizer, previews, 80)
	require.NoError(t, v.SelectImage(image("a.png", 10)))

	done := make(chan error, 1)
	go func() {
		done <- v.Submit(context.Background())
	}()
	<-optimizer.started

	v.Close()
	close(optimizer.unblock)

	assert.ErrorIs(t, <-done, domain.ErrViewClosed)
	assert.Empty(t, previews.live)
}
