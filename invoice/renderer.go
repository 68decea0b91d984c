package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrEngineUnavailable the rendering engine is unconfigured or cannot
// be reached; callers signal the client to fall back to client-side
// generation.
var ErrEngineUnavailable = errors.New("invoice: rendering engine unavailable")

// Renderer converts invoice HTML to PDF bytes through a
// Gotenberg-compatible HTTP rendering engine.
type Renderer struct {
	engineURL string
	http      *http.Client
}

func NewRenderer(engineURL string) *Renderer {
	return &Renderer{
		engineURL: strings.TrimRight(engineURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *Renderer) Render(ctx context.Context, html string) ([]byte, error) {
	if r.engineURL == "" {
		return nil, ErrEngineUnavailable
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.engineURL+"/forms/chromium/convert/html", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := r.http.Do(req)
	if err != nil {
		return nil, ErrEngineUnavailable
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invoice: rendering engine returned status %d", res.StatusCode)
	}
	return io.ReadAll(res.Body)
}
