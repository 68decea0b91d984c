package handlers

import (
	"errors"
	"net/http"

	"FreshCart/invoice"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// PDFHandler GET /api/generate-pdf 生成订单发票
type PDFHandler struct {
	renderer *invoice.Renderer
}

func NewPDFHandler(renderer *invoice.Renderer) *PDFHandler {
	return &PDFHandler{renderer: renderer}
}

func (h *PDFHandler) Generate(c echo.Context) error {
	inv := invoice.FromQuery(
		c.QueryParam("order"),
		c.QueryParam("name"),
		c.QueryParam("address"),
		c.QueryParam("phone"),
		c.QueryParam("date"),
		c.QueryParam("discount"),
		c.QueryParam("credits"),
	)
	if inv.Order == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "order is required",
		})
	}

	html, err := inv.HTML()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to render invoice",
		})
	}

	pdf, err := h.renderer.Render(c.Request().Context(), html)
	if err != nil {
		if errors.Is(err, invoice.ErrEngineUnavailable) {
			// 客户端收到该标记后改用浏览器本地生成
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"fallbackRequired": true,
				"message":          "PDF rendering engine unavailable",
			})
		}
		log.Errorf("invoice render failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to generate PDF",
		})
	}

	c.Response().Header().Set("Content-Disposition", `attachment; filename="invoice-`+inv.Order+`.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
