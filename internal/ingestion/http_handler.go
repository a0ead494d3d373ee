package ingestion

import (
	"net/http"

	"github.com/rpattn/propertyapi/internal/respond"
)

const maxMultipartMemory = 32 << 20

// Handler exposes ingestion as an HTTP endpoint.
type Handler struct {
	service  *Service
	maxBytes int64
	errors   *respond.ErrorMapper
}

// NewHTTPHandler wraps the service with a POST endpoint accepting a
// multipart "file" field. maxBytes caps the request body.
func NewHTTPHandler(service *Service, maxBytes int64) *Handler {
	return &Handler{
		service:  service,
		maxBytes: maxBytes,
		errors: respond.NewErrorMapper("Property not found").With(
			respond.SentinelHandler(ErrUnsupportedFormat, http.StatusBadRequest, "Unsupported file format, expected .csv or .xlsx"),
			respond.SentinelHandler(ErrMissingColumn, http.StatusBadRequest, "File must have address, price and size columns"),
			respond.SentinelHandler(ErrEmptyFile, http.StatusBadRequest, "File is empty"),
		),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	summary, err := h.service.Import(r.Context(), Request{
		FileName: header.Filename,
		Data:     file,
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, summary)
}
