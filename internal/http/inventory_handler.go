package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/fulfillment"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/inventory"
)

type Planner interface {
	Plan(ctx context.Context, lines []fulfillment.RequestedLine) (fulfillment.AllocationResult, error)
}

type PullCommitter interface {
	CommitPull(ctx context.Context, reference string, lines []inventory.Line) (inventory.PullResult, error)
}

type InventoryHandler struct {
	repo    inventory.Repository
	planner Planner
	pulls   PullCommitter
	logger  *zap.Logger
}

func NewInventoryHandler(repo inventory.Repository, planner Planner, pulls PullCommitter, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{repo: repo, planner: planner, pulls: pulls, logger: logger}
}

func (h *InventoryHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Upsert)
	r.Put("/{id}", h.Update)
	r.Post("/fulfillment-lists", h.FulfillmentLists)
	r.Post("/pull", h.Pull)
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("list inventory", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch inventory")
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: items})
}

func (h *InventoryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var in inventory.UpsertInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, created, err := h.repo.Upsert(r.Context(), in)
	if err != nil {
		if errors.Is(err, inventory.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("upsert inventory", zap.String("catalogId", in.CatalogID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to add inventory")
		return
	}

	if created {
		writeJSON(w, http.StatusCreated, dataBody{Data: item, Message: "Inventory added"})
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: item, Message: "Inventory updated"})
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in inventory.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.repo.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrNotFound):
			writeError(w, http.StatusNotFound, "Inventory not found")
		case errors.Is(err, inventory.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("update inventory", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to update inventory")
		}
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: item})
}

type fulfillmentRequest struct {
	Items []fulfillment.RequestedLine `json:"items"`
}

// FulfillmentLists splits a quote's lines into a base pull list and a partner
// order list. Nothing is reserved.
func (h *InventoryHandler) FulfillmentLists(w http.ResponseWriter, r *http.Request) {
	var req fulfillmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.planner.Plan(r.Context(), req.Items)
	if err != nil {
		if errors.Is(err, fulfillment.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("generate fulfillment lists", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate fulfillment lists")
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: res})
}

type pullRequest struct {
	Reference string           `json:"reference"`
	Items     []inventory.Line `json:"items"`
}

type pullConflict struct {
	Error string               `json:"error"`
	Data  inventory.PullResult `json:"data"`
}

// Pull decrements in-house availability for a base pull list. Either every
// line is pulled or nothing is and the short lines are reported with 409.
func (h *InventoryHandler) Pull(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.pulls.CommitPull(r.Context(), req.Reference, req.Items)
	if err != nil {
		if errors.Is(err, inventory.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("commit pull", zap.String("reference", req.Reference), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to pull inventory")
		return
	}
	if len(res.Short) > 0 {
		writeJSON(w, http.StatusConflict, pullConflict{Error: "Insufficient in-house stock", Data: res})
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: res})
}
