package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

//go:embed templates/index.html
var templates embed.FS

type Server struct {
	httpServer *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 3 * time.Second,
			IdleTimeout:       time.Minute,
		},
	}
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("web server listening")

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewRouter wires the optimizer page, preview serving and health routes.
func NewRouter(h *Handler, mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/index.html")))
	router.MaxMultipartMemory = h.maxUploadBytes

	router.GET("/", h.Index)
	router.POST("/select", h.Select)
	router.POST("/optimize", h.Optimize)
	router.POST("/reset", h.Reset)
	router.GET("/previews/:ref", h.Preview)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "imgopt",
		})
	})

	return router
}
