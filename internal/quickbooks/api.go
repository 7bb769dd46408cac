package quickbooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/quote"
)

// APIError carries a non-2xx response from the company API.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quickbooks %s: status %d: %s", e.Op, e.Status, e.Body)
}

type queryResponse struct {
	QueryResponse struct {
		Customer []Customer `json:"Customer"`
		Item     []Item     `json:"Item"`
	} `json:"QueryResponse"`
}

// CreateEstimate mirrors a quote request as an estimate in the connected
// company, creating the customer and the rental service item on first use.
func (c *Client) CreateEstimate(ctx context.Context, in quote.Input) (quote.EstimateRef, error) {
	tok, err := c.ValidAccessToken(ctx)
	if err != nil {
		return quote.EstimateRef{}, err
	}
	if tok.RealmID == "" {
		return quote.EstimateRef{}, fmt.Errorf("%w: no realm id stored", ErrNotConnected)
	}
	api := c.api(ctx, tok)

	customer, err := api.findOrCreateCustomer(ctx, newCustomer(in))
	if err != nil {
		return quote.EstimateRef{}, err
	}
	item, err := api.findOrCreateRentalItem(ctx)
	if err != nil {
		return quote.EstimateRef{}, err
	}

	var created struct {
		Estimate Estimate `json:"Estimate"`
	}
	if err := api.do(ctx, "create estimate", http.MethodPost, "/estimate", buildEstimate(in, customer.ID, item.ID), &created); err != nil {
		return quote.EstimateRef{}, err
	}

	c.logger.Info("quickbooks estimate created",
		zap.String("estimateId", created.Estimate.ID),
		zap.String("docNumber", created.Estimate.DocNumber),
		zap.String("customerId", customer.ID),
	)
	return quote.EstimateRef{ID: created.Estimate.ID, DocNumber: created.Estimate.DocNumber}, nil
}

type companyAPI struct {
	http     *http.Client
	realmURL string
}

func (c *Client) api(ctx context.Context, tok Token) *companyAPI {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok.AccessToken, TokenType: "Bearer"})
	return &companyAPI{
		http:     oauth2.NewClient(c.oauthContext(ctx), src),
		realmURL: strings.TrimRight(c.baseURL, "/") + "/" + url.PathEscape(tok.RealmID),
	}
}

func (a *companyAPI) findOrCreateCustomer(ctx context.Context, want Customer) (Customer, error) {
	email := want.PrimaryEmailAddr.Address
	var found queryResponse
	q := fmt.Sprintf("SELECT * FROM Customer WHERE PrimaryEmailAddr.Address = '%s'", escapeQuery(email))
	if err := a.query(ctx, "search customers", q, &found); err != nil {
		return Customer{}, err
	}
	if len(found.QueryResponse.Customer) > 0 {
		return found.QueryResponse.Customer[0], nil
	}

	var created struct {
		Customer Customer `json:"Customer"`
	}
	if err := a.do(ctx, "create customer", http.MethodPost, "/customer", want, &created); err != nil {
		return Customer{}, err
	}
	return created.Customer, nil
}

func (a *companyAPI) findOrCreateRentalItem(ctx context.Context) (Item, error) {
	var found queryResponse
	q := fmt.Sprintf("SELECT * FROM Item WHERE Name = '%s'", rentalItemName)
	if err := a.query(ctx, "search items", q, &found); err != nil {
		return Item{}, err
	}
	if len(found.QueryResponse.Item) > 0 {
		return found.QueryResponse.Item[0], nil
	}

	var created struct {
		Item Item `json:"Item"`
	}
	if err := a.do(ctx, "create item", http.MethodPost, "/item", newRentalItem(), &created); err != nil {
		return Item{}, err
	}
	return created.Item, nil
}

func (a *companyAPI) query(ctx context.Context, op, q string, out any) error {
	return a.do(ctx, op, http.MethodGet, "/query?query="+url.QueryEscape(q), nil, out)
}

func (a *companyAPI) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.realmURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("quickbooks %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", op, err)
	}
	return nil
}

// escapeQuery escapes single quotes for the QuickBooks query language.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
