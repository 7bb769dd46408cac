package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/quote"
)

type QuoteService interface {
	Create(ctx context.Context, in quote.Input) (quote.Created, error)
	List(ctx context.Context, f quote.ListFilter) (quote.Page, error)
	Get(ctx context.Context, id string) (quote.Quote, error)
}

type QuoteHandler struct {
	svc    QuoteService
	logger *zap.Logger
}

func NewQuoteHandler(svc QuoteService, logger *zap.Logger) *QuoteHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteHandler{svc: svc, logger: logger}
}

func (h *QuoteHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in quote.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	out, err := h.svc.Create(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, quote.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, quote.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("create quote", zap.String("clientEmail", in.ClientEmail), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to create quote")
		}
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := catalog.ParsePage(q.Get("page"), q.Get("limit"))

	res, err := h.svc.List(r.Context(), quote.ListFilter{Status: q.Get("status"), Page: page, Limit: limit})
	if err != nil {
		h.logger.Error("list quotes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch quotes")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, quote.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Quote not found")
			return
		}
		h.logger.Error("get quote", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch quote")
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: q})
}
