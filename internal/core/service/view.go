package service

import (
	"context"
	"fmt"
	"imgopt/internal/core/domain"
	"imgopt/internal/core/port"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// OptimizerView holds the interaction state of a single visitor: at most one selected and one optimized image, each
// with its own preview reference.
type OptimizerView struct {
	optimizer port.Optimizer
	previews  port.PreviewStore
	log       zerolog.Logger

	mutex     sync.Mutex
	selected  *domain.SelectedImage
	optimized *domain.OptimizedImage
	quality   int
	inFlight  bool
	closed    bool
}

func NewOptimizerView(optimizer port.Optimizer, previews port.PreviewStore, quality int) *OptimizerView {
	return &OptimizerView{
		optimizer: optimizer,
		previews:  previews,
		quality:   domain.ClampQuality(quality),
		log:       log.With().Str("component", "view").Logger(),
	}
}

// WithID tags the view's diagnostics with an identifier, usually the session it belongs to.
func (v *OptimizerView) WithID(id string) *OptimizerView {
	v.log = v.log.With().Str("viewId", id).Logger()
	return v
}

// SelectImage replaces the current selection. A preview that cannot be created is not an error: the selection is
// kept and simply has nothing to render.
func (v *OptimizerView) SelectImage(file domain.ImageFile) error {
	ref, err := v.previews.Create(file.Data)
	if err != nil {
		v.log.Debug().Err(err).Str("name", file.Name).Msg("no preview for selected image")
		ref = ""
	}

	v.mutex.Lock()
	if v.closed {
		v.mutex.Unlock()
		v.release(ref)
		return domain.ErrViewClosed
	}

	previous := v.selected
	v.selected = &domain.SelectedImage{
		File:    file,
		Size:    file.Size(),
		Preview: ref,
	}
	v.mutex.Unlock()

	if previous != nil {
		v.release(previous.Preview)
	}

	v.log.Debug().Str("name", file.Name).Int64("bytes", file.Size()).Msg("image selected")

	return nil
}

func (v *OptimizerView) SetQuality(quality int) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if v.closed {
		return domain.ErrViewClosed
	}

	v.quality = domain.ClampQuality(quality)
	return nil
}

// Submit sends the selected image to the optimization service and stores its answer as the optimized image. Failures
// leave both images untouched.
func (v *OptimizerView) Submit(ctx context.Context) error {
	v.mutex.Lock()
	if v.closed {
		v.mutex.Unlock()
		return domain.ErrViewClosed
	}
	if v.selected == nil {
		v.mutex.Unlock()
		return domain.ErrNoSelection
	}
	if v.inFlight {
		v.mutex.Unlock()
		v.log.Warn().Msg("submission ignored, another one is in flight")
		return domain.ErrSubmissionInFlight
	}

	file := v.selected.File
	quality := v.quality
	v.inFlight = true
	v.mutex.Unlock()

	l := v.log.With().
		Str("name", file.Name).
		Int64("bytes", file.Size()).
		Int("quality", quality).
		Logger()

	l.Info().Msg("submitting image")

	data, err := v.optimizer.Optimize(ctx, file, quality)
	if err != nil {
		v.finishSubmission()
		l.Error().Err(err).Msg("optimization failed")
		return fmt.Errorf("optimization failed: %w", err)
	}

	ref, err := v.previews.Create(data)
	if err != nil {
		l.Debug().Err(err).Msg("no preview for optimized image")
		ref = ""
	}

	v.mutex.Lock()
	v.inFlight = false
	if v.closed {
		v.mutex.Unlock()
		v.release(ref)
		l.Debug().Msg("view closed during submission, discarding result")
		return domain.ErrViewClosed
	}

	previous := v.optimized
	v.optimized = &domain.OptimizedImage{
		Size:    int64(len(data)),
		Preview: ref,
	}
	v.mutex.Unlock()

	if previous != nil {
		v.release(previous.Preview)
	}

	l.Info().Int("optimizedBytes", len(data)).Msg("image optimized")

	return nil
}

func (v *OptimizerView) finishSubmission() {
	v.mutex.Lock()
	v.inFlight = false
	v.mutex.Unlock()
}

// Presentation returns what the display layer needs to render the view right now.
func (v *OptimizerView) Presentation() domain.Presentation {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	p := domain.Presentation{Quality: v.quality}

	if v.selected != nil {
		p.Selected = &domain.Panel{
			Preview:   v.selected.Preview,
			Size:      v.selected.Size,
			SizeLabel: domain.FormatSize(v.selected.Size),
		}
	}

	if v.optimized != nil {
		p.Optimized = &domain.Panel{
			Preview:   v.optimized.Preview,
			Size:      v.optimized.Size,
			SizeLabel: domain.FormatSize(v.optimized.Size),
		}
	}

	if v.selected != nil && v.optimized != nil {
		p.Reduction = domain.FormatReduction(v.selected.Size, v.optimized.Size)
	}

	return p
}

// Close tears the view down and releases every preview it still holds. Calling it again does nothing.
func (v *OptimizerView) Close() {
	v.mutex.Lock()
	if v.closed {
		v.mutex.Unlock()
		return
	}

	v.closed = true
	selected, optimized := v.selected, v.optimized
	v.selected, v.optimized = nil, nil
	v.mutex.Unlock()

	if selected != nil {
		v.release(selected.Preview)
	}
	if optimized != nil {
		v.release(optimized.Preview)
	}

	v.log.Debug().Msg("view closed")
}

// Closed reports whether the view has been torn down.
func (v *OptimizerView) Closed() bool {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	return v.closed
}

func (v *OptimizerView) release(ref domain.PreviewRef) {
	if !ref.Valid() {
		return
	}

	if !v.previews.Release(ref) {
		v.log.Warn().Str("ref", string(ref)).Msg("preview was already released")
	}
}
