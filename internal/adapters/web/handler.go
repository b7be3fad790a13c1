package web

import (
	"errors"
	"imgopt/internal/adapters/preview"
	"imgopt/internal/core/domain"
	"imgopt/internal/core/service"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	cookieName  = "imgopt_view"
	previewPath = "/previews/"
)

type Views interface {
	Acquire(id string) (string, *service.OptimizerView, error)
	Remove(id string)
}

type Previews interface {
	Open(ref domain.PreviewRef) (preview.Blob, error)
}

type Handler struct {
	views          Views
	previews       Previews
	sessionTTL     time.Duration
	maxUploadBytes int64
}

func NewHandler(views Views, previews Previews, sessionTTL time.Duration, maxUploadBytes int64) *Handler {
	return &Handler{
		views:          views,
		previews:       previews,
		sessionTTL:     sessionTTL,
		maxUploadBytes: maxUploadBytes,
	}
}

type panel struct {
	URL       string
	SizeLabel string
}

type page struct {
	Quality   int
	Selected  *panel
	Optimized *panel
	Reduction string
	Notice    string
}

func (h *Handler) Index(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}

	h.render(c, http.StatusOK, view, "")
}

func (h *Handler) Select(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	header, err := c.FormFile("image")
	if err != nil {
		log.Debug().Err(err).Msg("no image in selection")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	f, err := header.Open()
	if err != nil {
		log.Debug().Err(err).Str("name", header.Filename).Msg("could not open selected image")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		log.Debug().Err(err).Str("name", header.Filename).Msg("could not read selected image")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	err = view.SelectImage(domain.ImageFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		log.Debug().Err(err).Msg("selection dropped")
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) Optimize(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}

	if raw, ok := c.GetPostForm("quality"); ok {
		quality, err := strconv.Atoi(raw)
		if err != nil {
			log.Debug().Str("quality", raw).Msg("ignoring unparsable quality")
		} else if err := view.SetQuality(quality); err != nil {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
	}

	err := view.Submit(c.Request.Context())
	if errors.Is(err, domain.ErrNoSelection) {
		h.render(c, http.StatusBadRequest, view, err.Error())
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// Reset tears the current view down; the next page load starts from scratch.
func (h *Handler) Reset(c *gin.Context) {
	if id, err := c.Cookie(cookieName); err == nil {
		h.views.Remove(id)
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) Preview(c *gin.Context) {
	blob, err := h.previews.Open(domain.PreviewRef(c.Param("ref")))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}

func (h *Handler) view(c *gin.Context) (*service.OptimizerView, bool) {
	id, _ := c.Cookie(cookieName)

	id, view, err := h.views.Acquire(id)
	if err != nil {
		log.Error().Err(err).Msg("could not acquire view")
		c.Status(http.StatusInternalServerError)
		return nil, false
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, id, int(h.sessionTTL.Seconds()), "/", "", false, true)

	return view, true
}

func (h *Handler) render(c *gin.Context, status int, view *service.OptimizerView, notice string) {
	p := view.Presentation()

	c.HTML(status, "index.html", page{
		Quality:   p.Quality,
		Selected:  toPanel(p.Selected),
		Optimized: toPanel(p.Optimized),
		Reduction: p.Reduction,
		Notice:    notice,
	})
}

func toPanel(p *domain.Panel) *panel {
	if p == nil {
		return nil
	}

	out := &panel{SizeLabel: p.SizeLabel}
	if p.Preview.Valid() {
		out.URL = previewPath + string(p.Preview)
	}

	return out
}
