package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Metrics is the subset of the metrics package the router wires in.
type Metrics interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

type Deps struct {
	Logger           *zap.Logger
	Metrics          Metrics
	CORSAllowOrigins []string

	Equipment  *EquipmentHandler
	Inventory  *InventoryHandler
	Quotes     *QuoteHandler
	QuickBooks *QuickBooksHandler
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CorrelationID)
	r.Use(RequestLogger(logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.Recoverer)
	r.Use(CORS(d.CORSAllowOrigins))

	r.Get("/health", Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if d.Equipment != nil {
			r.Route("/equipment", d.Equipment.Routes)
		}
		if d.Inventory != nil {
			r.Route("/inventory", d.Inventory.Routes)
		}
		if d.Quotes != nil {
			r.Route("/quotes", d.Quotes.Routes)
		}
		if d.QuickBooks != nil {
			r.Route("/quickbooks", d.QuickBooks.Routes)
		}
	})

	return r
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
