package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/fulfillment"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/inventory"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/quickbooks"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/quote"
)

type fakeCatalog struct {
	page    catalog.Page
	filter  catalog.Filter
	items   map[string]catalog.Equipment
	listErr error
}

func (f *fakeCatalog) List(ctx context.Context, flt catalog.Filter) (catalog.Page, error) {
	f.filter = flt
	return f.page, f.listErr
}

func (f *fakeCatalog) Categories(ctx context.Context) ([]catalog.Category, error) {
	return []catalog.Category{{ID: "1", Name: "Lighting", Slug: "lighting", DisplayOrder: 1}}, nil
}

func (f *fakeCatalog) Get(ctx context.Context, id string) (catalog.Equipment, error) {
	eq, ok := f.items[id]
	if !ok {
		return catalog.Equipment{}, catalog.ErrNotFound
	}
	return eq, nil
}

type fakeInventory struct {
	items   []inventory.Item
	exists  map[string]bool
	updated map[string]inventory.UpdateInput
}

func (f *fakeInventory) List(ctx context.Context) ([]inventory.Item, error) { return f.items, nil }

func (f *fakeInventory) Upsert(ctx context.Context, in inventory.UpsertInput) (inventory.Item, bool, error) {
	if in.CatalogID == "" {
		return inventory.Item{}, false, inventory.ErrInvalidInput
	}
	created := !f.exists[in.CatalogID]
	return inventory.Item{CatalogID: in.CatalogID, QuantityOwned: in.QuantityOwned, QuantityAvailable: in.QuantityOwned}, created, nil
}

func (f *fakeInventory) Update(ctx context.Context, id string, in inventory.UpdateInput) (inventory.Item, error) {
	if id != "inv-1" {
		return inventory.Item{}, inventory.ErrNotFound
	}
	return inventory.Item{ID: id}, nil
}

func (f *fakeInventory) ActiveByCatalogIDs(ctx context.Context, ids []string) ([]inventory.Item, error) {
	out := make([]inventory.Item, 0)
	for _, it := range f.items {
		for _, id := range ids {
			if it.CatalogID == id && it.IsActive {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func (f *fakeInventory) CommitPull(ctx context.Context, lines []inventory.Line) (inventory.PullResult, error) {
	res := inventory.PullResult{Pulled: []inventory.Line{}, Short: []inventory.ShortLine{}}
	for _, l := range lines {
		if l.Quantity > 2 {
			res.Short = append(res.Short, inventory.ShortLine{CatalogID: l.CatalogID, Requested: l.Quantity, Available: 2})
		}
	}
	if len(res.Short) == 0 {
		res.Pulled = lines
	}
	return res, nil
}

type fakeQuotes struct {
	err error
}

func (f *fakeQuotes) Create(ctx context.Context, in quote.Input) (quote.Created, error) {
	if f.err != nil {
		return quote.Created{}, f.err
	}
	return quote.Created{Success: true, Quote: quote.Summary{ID: "q1", QuoteNumber: "Q-20250401-ABCD", Total: in.Pricing.Total}}, nil
}

func (f *fakeQuotes) List(ctx context.Context, lf quote.ListFilter) (quote.Page, error) {
	return quote.Page{Data: []quote.Quote{}, Pagination: catalog.NewPagination(lf.Page, lf.Limit, 0)}, nil
}

func (f *fakeQuotes) Get(ctx context.Context, id string) (quote.Quote, error) {
	if id != "q1" {
		return quote.Quote{}, quote.ErrNotFound
	}
	return quote.Quote{ID: "q1"}, nil
}

type fakeQuickBooks struct {
	configured   bool
	connected    bool
	callbackErr  error
	disconnected bool
}

func (f *fakeQuickBooks) ConnectURL() (string, error) {
	if !f.configured {
		return "", quickbooks.ErrNotConfigured
	}
	return "https://appcenter.intuit.com/connect/oauth2?client_id=abc", nil
}

func (f *fakeQuickBooks) Callback(ctx context.Context, code, realmID, state string) error {
	if code == "" || realmID == "" {
		return quickbooks.ErrMissingParams
	}
	if state != "st-1" {
		return quickbooks.ErrInvalidState
	}
	return f.callbackErr
}

func (f *fakeQuickBooks) Status(ctx context.Context) (quickbooks.Status, error) {
	return quickbooks.Status{Connected: f.connected, Environment: "sandbox"}, nil
}

func (f *fakeQuickBooks) Disconnect(ctx context.Context) error {
	f.disconnected = true
	return nil
}

type testEnv struct {
	router  http.Handler
	catalog *fakeCatalog
	inv     *fakeInventory
	qb      *fakeQuickBooks
	quotes  *fakeQuotes
}

func newTestEnv() *testEnv {
	env := &testEnv{
		catalog: &fakeCatalog{items: map[string]catalog.Equipment{
			"e1": {ID: "e1", Name: "LED Panel", Availability: catalog.AvailabilityInHouse},
		}},
		inv: &fakeInventory{
			items: []inventory.Item{
				{ID: "inv-1", CatalogID: "A", QuantityOwned: 2, QuantityAvailable: 2, StorageLocation: "Shelf A", SerialNumbers: []string{"A1", "A2"}, IsActive: true},
			},
			exists: map[string]bool{"A": true},
		},
		qb:     &fakeQuickBooks{},
		quotes: &fakeQuotes{},
	}
	planner := fulfillment.NewService(env.inv, nil)
	env.router = NewRouter(Deps{
		Metrics:    metrics.New(),
		Equipment:  NewEquipmentHandler(env.catalog, nil),
		Inventory:  NewInventoryHandler(env.inv, planner, inventory.NewService(env.inv), nil),
		Quotes:     NewQuoteHandler(env.quotes, nil),
		QuickBooks: NewQuickBooksHandler(env.qb, nil),
	})
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestHealth(t *testing.T) {
	rec := newTestEnv().do(http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "ok" {
		t.Fatalf("expected body \"ok\", got %q", body)
	}
	if rec.Header().Get(HeaderCorrelationID) == "" {
		t.Fatalf("expected a correlation id header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv()
	env.do(http.MethodGet, "/health", "")
	rec := env.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "rental_http_request_duration_seconds") {
		t.Fatalf("unexpected metrics response %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodOptions, "/api/quotes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestEquipmentList(t *testing.T) {
	env := newTestEnv()
	env.catalog.page = catalog.Page{Data: []catalog.Equipment{}, Pagination: catalog.NewPagination(2, 10, 0)}

	rec := env.do(http.MethodGet, "/api/equipment?category=lighting&search=led&availability=partner&page=2&limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := catalog.Filter{Category: "lighting", Search: "led", Availability: "partner", Page: 2, Limit: 10}
	if env.catalog.filter != want {
		t.Fatalf("filter = %+v, want %+v", env.catalog.filter, want)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["pagination"]; !ok {
		t.Fatalf("missing pagination block: %s", rec.Body.String())
	}
}

func TestEquipmentListFailure(t *testing.T) {
	env := newTestEnv()
	env.catalog.listErr = errors.New("db down")

	rec := env.do(http.MethodGet, "/api/equipment", "")
	if rec.Code != http.StatusInternalServerError || decodeError(t, rec) != "Failed to fetch equipment" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestEquipmentGet(t *testing.T) {
	env := newTestEnv()
	if rec := env.do(http.MethodGet, "/api/equipment/e1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec := env.do(http.MethodGet, "/api/equipment/nope", "")
	if rec.Code != http.StatusNotFound || decodeError(t, rec) != "Equipment not found" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(http.MethodGet, "/api/equipment/categories", ""); rec.Code != http.StatusOK {
		t.Fatalf("categories: expected 200, got %d", rec.Code)
	}
}

func TestInventoryUpsert(t *testing.T) {
	tests := map[string]struct {
		body        string
		wantStatus  int
		wantMessage string
	}{
		"new row":      {`{"catalogId":"B","quantityOwned":3}`, http.StatusCreated, "Inventory added"},
		"existing row": {`{"catalogId":"A","quantityOwned":5}`, http.StatusOK, "Inventory updated"},
		"missing id":   {`{"quantityOwned":5}`, http.StatusBadRequest, ""},
		"bad json":     {`{`, http.StatusBadRequest, ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := newTestEnv().do(http.MethodPost, "/api/inventory", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantMessage == "" {
				return
			}
			var body struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body.Message != tt.wantMessage {
				t.Fatalf("message = %q, want %q", body.Message, tt.wantMessage)
			}
		})
	}
}

func TestInventoryUpdateNotFound(t *testing.T) {
	rec := newTestEnv().do(http.MethodPut, "/api/inventory/missing", `{"quantityOwned":1}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestFulfillmentLists(t *testing.T) {
	rec := newTestEnv().do(http.MethodPost, "/api/inventory/fulfillment-lists",
		`{"items":[{"equipmentId":"A","quantity":3,"name":"Panel","sku":"SKU-A"},{"equipmentId":"Z","quantity":1,"name":"Jib","sku":"SKU-Z"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Data struct {
			BasePullList []struct {
				EquipmentID     string   `json:"equipmentId"`
				Quantity        int      `json:"quantity"`
				StorageLocation string   `json:"storageLocation"`
				SerialNumbers   []string `json:"serialNumbers"`
			} `json:"basePullList"`
			PartnerOrderList []map[string]any    `json:"partnerOrderList"`
			Summary          fulfillment.Summary `json:"summary"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.BasePullList) != 1 || body.Data.BasePullList[0].Quantity != 2 || body.Data.BasePullList[0].StorageLocation != "Shelf A" {
		t.Fatalf("unexpected base pull list: %+v", body.Data.BasePullList)
	}
	if len(body.Data.BasePullList[0].SerialNumbers) != 2 {
		t.Fatalf("expected 2 serials, got %v", body.Data.BasePullList[0].SerialNumbers)
	}
	if len(body.Data.PartnerOrderList) != 2 {
		t.Fatalf("expected 2 partner lines, got %d", len(body.Data.PartnerOrderList))
	}
	if _, ok := body.Data.PartnerOrderList[0]["storageLocation"]; ok {
		t.Fatalf("partner lines must not carry storage details")
	}
	if body.Data.Summary != (fulfillment.Summary{BaseItems: 2, PartnerItems: 2, TotalItems: 4}) {
		t.Fatalf("unexpected summary %+v", body.Data.Summary)
	}
}

func TestFulfillmentListsInvalid(t *testing.T) {
	tests := map[string]string{
		"empty items":   `{"items":[]}`,
		"zero quantity": `{"items":[{"equipmentId":"A","quantity":0}]}`,
		"bad json":      `not json`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := newTestEnv().do(http.MethodPost, "/api/inventory/fulfillment-lists", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestPull(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/inventory/pull", `{"reference":"q1","items":[{"equipmentId":"A","quantity":2}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodPost, "/api/inventory/pull", `{"reference":"q2","items":[{"equipmentId":"A","quantity":5}]}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/inventory/pull", `{"items":[{"equipmentId":"A","quantity":1}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing reference: expected 400, got %d", rec.Code)
	}
}

func TestQuotes(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/quotes", `{"clientName":"Ada","pricing":{"total":100}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	env.quotes.err = quote.ErrMissingFields
	rec = env.do(http.MethodPost, "/api/quotes", `{}`)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec) != "Missing required fields" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	env.quotes.err = errors.New("db down")
	rec = env.do(http.MethodPost, "/api/quotes", `{}`)
	if rec.Code != http.StatusInternalServerError || decodeError(t, rec) != "Failed to create quote" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	if rec := env.do(http.MethodGet, "/api/quotes?status=pending", ""); rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/api/quotes/q1", ""); rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	rec = env.do(http.MethodGet, "/api/quotes/nope", "")
	if rec.Code != http.StatusNotFound || decodeError(t, rec) != "Quote not found" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestQuickBooksRoutes(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/api/quickbooks/connect", "")
	if rec.Code != http.StatusInternalServerError || decodeError(t, rec) != "QuickBooks not configured" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	env.qb.configured = true
	rec = env.do(http.MethodGet, "/api/quickbooks/connect", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"url"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/api/quickbooks/callback?code=abc", "")
	if rec.Code != http.StatusBadRequest || decodeError(t, rec) != "Missing code or realmId" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/api/quickbooks/callback?code=abc&realmId=123&state=forged", "")
	if rec.Code != http.StatusBadRequest || decodeError(t, rec) != "Invalid or expired state" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/api/quickbooks/callback?code=abc&realmId=123&state=st-1", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "QuickBooks Connected!") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	env.qb.callbackErr = errors.New("exchange failed")
	rec = env.do(http.MethodGet, "/api/quickbooks/callback?code=abc&realmId=123&state=st-1", "")
	if rec.Code != http.StatusInternalServerError || decodeError(t, rec) != "Failed to connect QuickBooks" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/api/quickbooks/status", "")
	if strings.TrimSpace(rec.Body.String()) != `{"connected":false,"environment":"sandbox"}` {
		t.Fatalf("unexpected status body %s", rec.Body.String())
	}

	rec = env.do(http.MethodPost, "/api/quickbooks/disconnect", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"success":true}` || !env.qb.disconnected {
		t.Fatalf("unexpected disconnect response %d %s", rec.Code, rec.Body.String())
	}
}
