package property

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/rpattn/propertyapi/internal/respond"
	"github.com/rpattn/propertyapi/internal/schema/validator"
)

const maxBodyBytes = 1 << 20

// NotFoundMessage is the body message for unknown property ids.
const NotFoundMessage = "Property not found"

// Handler exposes the property service over HTTP.
type Handler struct {
	service    *Service
	validator  *validator.PayloadValidator
	pagination PageDefaults
	errors     *respond.ErrorMapper
}

// NewHandler creates the HTTP handler for /api/properties.
func NewHandler(service *Service, v *validator.PayloadValidator, pagination PageDefaults) *Handler {
	return &Handler{
		service:    service,
		validator:  v,
		pagination: pagination,
		errors:     respond.NewErrorMapper(NotFoundMessage),
	}
}

// Routes returns a router to be mounted at /api/properties.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

type propertyResponse struct {
	ID          uuid.UUID   `json:"id"`
	Address     string      `json:"address"`
	Price       json.Number `json:"price"`
	Size        float64     `json:"size"`
	Description *string     `json:"description"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type pageResponse struct {
	Items      []propertyResponse `json:"items"`
	TotalCount int64              `json:"totalCount"`
	PageNumber int                `json:"pageNumber"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

func toResponse(p domain.Property) propertyResponse {
	return propertyResponse{
		ID:          p.ID,
		Address:     p.Address,
		Price:       json.Number(p.Price.StringFixed(domain.PriceScale)),
		Size:        p.Size,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toPageResponse(page domain.Page[domain.Property]) pageResponse {
	items := make([]propertyResponse, len(page.Items))
	for i, p := range page.Items {
		items[i] = toResponse(p)
	}
	return pageResponse{
		Items:      items,
		TotalCount: page.TotalCount,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	filter, err := ParseFilter(values)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	page, err := ParsePage(values, h.pagination)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	result, err := h.service.Search(r.Context(), filter, page)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, toPageResponse(result))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, err := h.validator.DecodeProperty(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	p, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	input, err := h.validator.DecodeProperty(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	p, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses {id}. A value that is not a UUID cannot name a stored
// property, so it is reported as not found.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.errors.Write(w, r, domain.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}
