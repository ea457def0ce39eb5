package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/searchproxy/internal/document"
	"github.com/nao1215/searchproxy/internal/search"
)

// Fixed response bodies.
const (
	SearchErrorMessage = "Error fetching search results."
	NotFoundMessage    = "Page not found."
)

// Searcher fetches the upstream results page for a request.
type Searcher interface {
	Fetch(ctx context.Context, req search.Request) (*document.Document, error)
	Endpoint() *search.Endpoint
}

// SearchHandler serves /search: it fetches the upstream page, points its
// root-relative links at the upstream origin, and returns the HTML.
type SearchHandler struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewSearchHandler returns a SearchHandler backed by searcher.
func NewSearchHandler(searcher Searcher, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{searcher: searcher, logger: logger}
}

// Handle is the gin handler for GET and HEAD /search.
func (h *SearchHandler) Handle(c *gin.Context) {
	raw := c.Request.URL.RawQuery
	req := search.NewRequest(search.QueryValue(raw, "q"), search.QueryValue(raw, "safe"))

	page, err := h.render(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("failed to fetch search results",
			slog.String("url", h.searcher.Endpoint().URL(req)),
			slog.Any("error", err),
		)
		c.String(http.StatusInternalServerError, SearchErrorMessage)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (h *SearchHandler) render(ctx context.Context, req search.Request) (string, error) {
	doc, err := h.searcher.Fetch(ctx, req)
	if err != nil {
		return "", err
	}

	n := document.RewriteRootRelativeLinks(doc, h.searcher.Endpoint().Origin())
	h.logger.Debug("rewrote links", slog.Int("count", n))

	return doc.String()
}
