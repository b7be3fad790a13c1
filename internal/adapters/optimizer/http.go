package optimizer

import (
	"bytes"
	"context"
	"fmt"
	"imgopt/internal/core/domain"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	imageField   = "image"
	qualityField = "quality"
)

// HTTPOptimizer forwards images to an external optimization service.
type HTTPOptimizer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPOptimizer returns an optimizer posting to endpoint. A zero timeout keeps the transport default.
func NewHTTPOptimizer(endpoint string, timeout time.Duration) *HTTPOptimizer {
	return &HTTPOptimizer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (o *HTTPOptimizer) Optimize(ctx context.Context, image domain.ImageFile, quality int) ([]byte, error) {
	l := log.With().
		Str("endpoint", o.endpoint).
		Str("name", image.Name).
		Int("quality", quality).
		Logger()

	body, contentType, err := encodeForm(image, quality)
	if err != nil {
		return nil, fmt.Errorf("error encoding optimization request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("error creating optimization request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	res, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing optimization request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnexpectedStatus, res.StatusCode)
	}

	buf, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading optimization response: %w", err)
	}

	l.Debug().Int("bytes", len(buf)).Str("contentType", res.Header.Get("Content-Type")).
		Msg("optimization service responded")

	return buf, nil
}

func encodeForm(image domain.ImageFile, quality int) (*bytes.Buffer, string, error) {
	payloadBuf := new(bytes.Buffer)
	w := multipart.NewWriter(payloadBuf)

	name := image.Name
	if name == "" {
		name = "image"
	}

	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, imageField, escapeQuotes(name)))
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, "", err
	}

	if err := w.WriteField(qualityField, strconv.Itoa(quality)); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return payloadBuf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
