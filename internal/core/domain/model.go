package domain

// ImageFile is a user-chosen file as it arrived, before any optimization.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f ImageFile) Size() int64 {
	return int64(len(f.Data))
}

// PreviewRef identifies an in-memory blob the display layer can render. The zero value means no preview exists.
type PreviewRef string

func (r PreviewRef) Valid() bool {
	return r != ""
}

type SelectedImage struct {
	File    ImageFile
	Size    int64
	Preview PreviewRef
}

type OptimizedImage struct {
	Size    int64
	Preview PreviewRef
}

type Panel struct {
	Preview   PreviewRef
	Size      int64
	SizeLabel string
}

// Presentation is a read-only snapshot of a view, ready for rendering.
type Presentation struct {
	Quality   int
	Selected  *Panel
	Optimized *Panel
	Reduction string
}

type Message struct {
	ID       int
	ChatID   int64
	Username string
	ImageURL string
	Text     string
}

// ClampQuality forces q into the accepted quality range.
func ClampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

type Action string

const (
	Typing       Action = "typing"
	SendingPhoto Action = "sending_photo"
)
