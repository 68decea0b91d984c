package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// hop-by-hop headers never forwarded upstream
var skipHeaders = map[string]bool{
	"host":       true,
	"connection": true,
}

// ProxyHandler forwards /api/backend/* to the upstream backend. For a
// configured allow-list of paths, an upstream 401/404 is rewritten to
// 200 with the true status injected as _statusCode, so the storefront
// can treat "not logged in" as a normal payload instead of a logged
// network error.
type ProxyHandler struct {
	backendURL     string
	normalizePaths map[string]bool
	http           *http.Client
}

func NewProxyHandler(backendURL string, normalizePaths []string, timeout time.Duration) *ProxyHandler {
	normalize := make(map[string]bool, len(normalizePaths))
	for _, p := range normalizePaths {
		normalize[p] = true
	}
	return &ProxyHandler{
		backendURL:     strings.TrimRight(backendURL, "/"),
		normalizePaths: normalize,
		http:           &http.Client{Timeout: timeout},
	}
}

func (h *ProxyHandler) Forward(c echo.Context) error {
	req := c.Request()
	path := "/" + c.Param("*")

	upstreamURL := h.backendURL + path
	if req.URL.RawQuery != "" {
		upstreamURL += "?" + req.URL.RawQuery
	}

	// 非 GET/HEAD 请求尽力转发请求体，读取失败当作空
	var body io.Reader
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		if data, err := io.ReadAll(req.Body); err == nil && len(data) > 0 {
			body = strings.NewReader(string(data))
		}
	}

	upstream, err := http.NewRequestWithContext(req.Context(), req.Method, upstreamURL, body)
	if err != nil {
		return h.backendUnavailable(c, err)
	}
	for name, values := range req.Header {
		if skipHeaders[strings.ToLower(name)] {
			continue
		}
		for _, v := range values {
			upstream.Header.Add(name, v)
		}
	}

	res, err := h.http.Do(upstream)
	if err != nil {
		return h.backendUnavailable(c, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return h.backendUnavailable(c, err)
	}

	contentType := res.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		if contentType == "" {
			contentType = "text/plain"
		}
		return c.Blob(res.StatusCode, contentType, data)
	}

	// JSON: 解析失败降级为空对象
	payload := map[string]interface{}{}
	if err := json.Unmarshal(data, &payload); err != nil {
		payload = map[string]interface{}{}
	}

	if h.normalizePaths[path] && (res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusNotFound) {
		payload["_statusCode"] = res.StatusCode
		return c.JSON(http.StatusOK, payload)
	}
	return c.JSON(res.StatusCode, payload)
}

func (h *ProxyHandler) backendUnavailable(c echo.Context, err error) error {
	log.Warnf("proxy: backend unreachable: %v", err)
	return c.JSON(http.StatusBadGateway, map[string]interface{}{
		"success": false,
		"message": "Backend unavailable",
		"errors":  []string{"Proxy error"},
	})
}
