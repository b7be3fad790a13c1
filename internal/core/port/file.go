package port

import "context"

type FileDownloader interface {
	// Download returns the content found at url.
	Download(ctx context.Context, url string) ([]byte, error)
}
