package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/catalog"
)

type EquipmentHandler struct {
	repo   catalog.Repository
	logger *zap.Logger
}

func NewEquipmentHandler(repo catalog.Repository, logger *zap.Logger) *EquipmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EquipmentHandler{repo: repo, logger: logger}
}

func (h *EquipmentHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/categories", h.Categories)
	r.Get("/{id}", h.Get)
}

func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := catalog.ParsePage(q.Get("page"), q.Get("limit"))

	res, err := h.repo.List(r.Context(), catalog.Filter{
		Category:     q.Get("category"),
		Search:       q.Get("search"),
		Availability: q.Get("availability"),
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		h.logger.Error("list equipment", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch equipment")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *EquipmentHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.repo.Categories(r.Context())
	if err != nil {
		h.logger.Error("list categories", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: cats})
}

func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	eq, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Equipment not found")
			return
		}
		h.logger.Error("get equipment", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch equipment")
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: eq})
}
