package quickbooks

import (
	"strings"
	"testing"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/quote"
)

func TestBuildEstimate(t *testing.T) {
	in := quote.Input{
		StartDate: "2025-04-01",
		EndDate:   "2025-04-03",
		Duration:  3,
		Items: []quote.Item{
			{Name: "LED Panel", Quantity: 2, Duration: 3},
			{Name: "C-Stand", Quantity: 4, Duration: 3},
		},
		Pricing: quote.Pricing{Subtotal: 300, Tax: 25.5, Insurance: 15, Delivery: 7.5, Total: 325.5},
		Notes:   "Load-in at dock B",
	}

	est := buildEstimate(in, "cust-1", "item-9")

	if len(est.Line) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(est.Line))
	}
	sales := est.Line[0]
	if sales.DetailType != lineSalesItem || sales.Amount != 300 || sales.SalesItemLineDetail.UnitPrice != 300 {
		t.Fatalf("unexpected sales line: %+v", sales)
	}
	if sales.SalesItemLineDetail.Qty != 1 || sales.SalesItemLineDetail.TaxCodeRef.Value != "TAX" {
		t.Fatalf("unexpected sales detail: %+v", sales.SalesItemLineDetail)
	}
	wantDesc := "Equipment Rental: LED Panel (2 × 3 days), C-Stand (4 × 3 days)\n\n" +
		"Rental Period: 2025-04-01 to 2025-04-03 (3 days)\n" +
		"\nNotes: Load-in at dock B"
	if sales.Description != wantDesc {
		t.Fatalf("description:\n%q\nwant\n%q", sales.Description, wantDesc)
	}

	tax := est.Line[1]
	if tax.DetailType != lineSubTotal || tax.Amount != 25.5 || tax.SalesItemLineDetail != nil {
		t.Fatalf("unexpected tax line: %+v", tax)
	}
	if est.TotalAmt != 325.5 || est.TxnTaxDetail.TotalTax != 25.5 {
		t.Fatalf("unexpected totals: %+v", est)
	}
	if est.PrivateNote != "Insurance: $15.00, Delivery: $7.50" {
		t.Fatalf("private note = %q", est.PrivateNote)
	}
}

func TestBuildEstimateTruncatesDescription(t *testing.T) {
	in := quote.Input{Notes: strings.Repeat("é", 5000)}
	est := buildEstimate(in, "c", "i")
	if n := len([]rune(est.Line[0].Description)); n != maxDescriptionLen {
		t.Fatalf("description length = %d runes", n)
	}
}

func TestNewCustomer(t *testing.T) {
	tests := map[string]struct {
		in        quote.Input
		wantName  string
		wantPhone bool
	}{
		"person only":  {quote.Input{ClientName: "Ada", ClientEmail: "a@x.io"}, "Ada", false},
		"with company": {quote.Input{ClientName: "Ada", ClientCompany: "Engines", ClientPhone: "555"}, "Engines - Ada", true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := newCustomer(tt.in)
			if c.DisplayName != tt.wantName {
				t.Fatalf("DisplayName = %q, want %q", c.DisplayName, tt.wantName)
			}
			if (c.PrimaryPhone != nil) != tt.wantPhone {
				t.Fatalf("PrimaryPhone = %+v", c.PrimaryPhone)
			}
		})
	}
}
