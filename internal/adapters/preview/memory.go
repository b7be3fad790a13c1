package preview

import (
	"imgopt/internal/core/domain"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// Blob is a preview as served to the display layer.
type Blob struct {
	Data        []byte
	ContentType string
}

// MemoryStore keeps previews in memory until they are released.
type MemoryStore struct {
	mutex sync.RWMutex
	blobs map[domain.PreviewRef]Blob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[domain.PreviewRef]Blob)}
}

// Create stores data under a fresh reference. The content type is sniffed from the data itself, since whatever the
// optimization service declares is not trusted.
func (s *MemoryStore) Create(data []byte) (domain.PreviewRef, error) {
	if len(data) == 0 {
		return "", domain.ErrEmptyPreview
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}

	ref := domain.PreviewRef(id.String())
	blob := Blob{Data: data, ContentType: mimetype.Detect(data).String()}

	s.mutex.Lock()
	s.blobs[ref] = blob
	s.mutex.Unlock()

	log.Debug().Str("ref", string(ref)).Int("bytes", len(data)).Str("contentType", blob.ContentType).
		Msg("created preview")

	return ref, nil
}

func (s *MemoryStore) Open(ref domain.PreviewRef) (Blob, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	blob, ok := s.blobs[ref]
	if !ok {
		return Blob{}, domain.ErrPreviewNotFound
	}

	return blob, nil
}

func (s *MemoryStore) Release(ref domain.PreviewRef) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.blobs[ref]; !ok {
		return false
	}

	delete(s.blobs, ref)
	log.Debug().Str("ref", string(ref)).Msg("released preview")

	return true
}

// Len returns the number of live previews. Used by tests.
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.blobs)
}

func (s *MemoryStore) Read(ref domain.PreviewRef) ([]byte, error) {
	blob, err := s.Open(ref)
	if err != nil {
		return nil, err
	}

	return blob.Data, nil
}
