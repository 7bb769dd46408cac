package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/quickbooks"
)

const connectedPage = `<html><body><h1>QuickBooks Connected!</h1><p>You can close this window.</p><script>window.close()</script></body></html>`

type QuickBooks interface {
	ConnectURL() (string, error)
	Callback(ctx context.Context, code, realmID, state string) error
	Status(ctx context.Context) (quickbooks.Status, error)
	Disconnect(ctx context.Context) error
}

type QuickBooksHandler struct {
	qb     QuickBooks
	logger *zap.Logger
}

func NewQuickBooksHandler(qb QuickBooks, logger *zap.Logger) *QuickBooksHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuickBooksHandler{qb: qb, logger: logger}
}

func (h *QuickBooksHandler) Routes(r chi.Router) {
	r.Get("/connect", h.Connect)
	r.Get("/callback", h.Callback)
	r.Get("/status", h.Status)
	r.Post("/disconnect", h.Disconnect)
}

func (h *QuickBooksHandler) Connect(w http.ResponseWriter, r *http.Request) {
	url, err := h.qb.ConnectURL()
	if err != nil {
		if errors.Is(err, quickbooks.ErrNotConfigured) {
			writeError(w, http.StatusInternalServerError, "QuickBooks not configured")
			return
		}
		h.logger.Error("quickbooks connect url", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to start QuickBooks connection")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *QuickBooksHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	err := h.qb.Callback(r.Context(), q.Get("code"), q.Get("realmId"), q.Get("state"))
	if err != nil {
		switch {
		case errors.Is(err, quickbooks.ErrMissingParams):
			writeError(w, http.StatusBadRequest, "Missing code or realmId")
			return
		case errors.Is(err, quickbooks.ErrInvalidState):
			writeError(w, http.StatusBadRequest, "Invalid or expired state")
			return
		}
		h.logger.Error("quickbooks oauth callback", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to connect QuickBooks")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(connectedPage))
}

func (h *QuickBooksHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.qb.Status(r.Context())
	if err != nil {
		h.logger.Error("quickbooks status", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch QuickBooks status")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *QuickBooksHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.qb.Disconnect(r.Context()); err != nil {
		h.logger.Error("quickbooks disconnect", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to disconnect QuickBooks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
