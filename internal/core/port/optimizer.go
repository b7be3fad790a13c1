package port

import (
	"context"
	"imgopt/internal/core/domain"
)

type Optimizer interface {
	// Optimize sends the image and the requested quality to the optimization service and returns the optimized
	// image bytes exactly as the service answered them.
	Optimize(ctx context.Context, image domain.ImageFile, quality int) ([]byte, error)
}
