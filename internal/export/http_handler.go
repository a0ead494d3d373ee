package export

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/rpattn/propertyapi/internal/logger"
	"github.com/rpattn/propertyapi/internal/property"
	"github.com/rpattn/propertyapi/internal/respond"
)

// Handler serves GET /api/properties/export. It accepts the same filter and
// sort parameters as the listing endpoint plus format=csv|xlsx.
type Handler struct {
	service *Service
	errors  *respond.ErrorMapper
}

// NewHTTPHandler wraps the export service.
func NewHTTPHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		errors: respond.NewErrorMapper(property.NotFoundMessage).With(
			respond.SentinelHandler(ErrUnsupportedFormat, http.StatusBadRequest, "Unsupported export format, expected csv or xlsx"),
		),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respond.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	values := r.URL.Query()
	format, err := ParseFormat(values.Get("format"))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	filter, err := property.ParseFilter(values)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	page, err := property.ParsePage(values, property.PageDefaults{})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	out := &lazyHeaderWriter{w: w, format: format}
	result, err := h.service.Export(r.Context(), out, Request{Format: format, Filter: filter, Sort: page.Sort})
	if err != nil {
		if !out.started {
			h.errors.Write(w, r, err)
			return
		}
		// Headers are already sent; the client sees a truncated file.
		logger.FromContext(r.Context()).Error("export aborted",
			zap.Error(err),
			zap.Int("rows", result.Rows),
		)
		return
	}
}

// lazyHeaderWriter sends the download headers with the first byte so a
// failure before any output can still become a JSON error.
type lazyHeaderWriter struct {
	w       http.ResponseWriter
	format  Format
	started bool
}

func (l *lazyHeaderWriter) Write(p []byte) (int, error) {
	if !l.started {
		l.started = true
		header := l.w.Header()
		header.Set("Content-Type", l.format.ContentType())
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "properties."+string(l.format)))
		l.w.WriteHeader(http.StatusOK)
	}
	return l.w.Write(p)
}
