package port

import "imgopt/internal/core/domain"

type PreviewStore interface {
	// Create keeps data in memory and returns a reference the display layer can render.
	Create(data []byte) (domain.PreviewRef, error)
	// Release drops the data behind ref. It reports whether ref was still live.
	Release(ref domain.PreviewRef) bool
}

type PreviewReader interface {
	// Read returns the data behind a live ref.
	Read(ref domain.PreviewRef) ([]byte, error)
}
