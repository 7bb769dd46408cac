package quickbooks

import (
	"fmt"
	"strings"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/quote"
)

const (
	rentalItemName    = "OS RENTAL"
	maxDescriptionLen = 4000
	defaultIncomeAcct = "1"
	taxableTaxCode    = "TAX"
	lineSalesItem     = "SalesItemLineDetail"
	lineSubTotal      = "SubTotalLineDetail"
)

type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

type EmailAddress struct {
	Address string `json:"Address"`
}

type PhoneNumber struct {
	FreeFormNumber string `json:"FreeFormNumber"`
}

type Customer struct {
	ID               string        `json:"Id,omitempty"`
	DisplayName      string        `json:"DisplayName"`
	PrimaryEmailAddr *EmailAddress `json:"PrimaryEmailAddr,omitempty"`
	PrimaryPhone     *PhoneNumber  `json:"PrimaryPhone,omitempty"`
	CompanyName      string        `json:"CompanyName,omitempty"`
}

type Item struct {
	ID               string `json:"Id,omitempty"`
	Name             string `json:"Name"`
	Type             string `json:"Type,omitempty"`
	IncomeAccountRef *Ref   `json:"IncomeAccountRef,omitempty"`
	Taxable          bool   `json:"Taxable"`
}

type SalesItemLineDetail struct {
	ItemRef    Ref     `json:"ItemRef"`
	Qty        float64 `json:"Qty"`
	UnitPrice  float64 `json:"UnitPrice"`
	TaxCodeRef Ref     `json:"TaxCodeRef"`
}

type Line struct {
	DetailType          string               `json:"DetailType"`
	SalesItemLineDetail *SalesItemLineDetail `json:"SalesItemLineDetail,omitempty"`
	Amount              float64              `json:"Amount"`
	Description         string               `json:"Description,omitempty"`
}

type TxnTaxDetail struct {
	TotalTax float64 `json:"TotalTax"`
}

type Estimate struct {
	ID           string        `json:"Id,omitempty"`
	DocNumber    string        `json:"DocNumber,omitempty"`
	CustomerRef  Ref           `json:"CustomerRef"`
	Line         []Line        `json:"Line"`
	TotalAmt     float64       `json:"TotalAmt"`
	TxnTaxDetail *TxnTaxDetail `json:"TxnTaxDetail,omitempty"`
	PrivateNote  string        `json:"PrivateNote,omitempty"`
}

func newCustomer(in quote.Input) Customer {
	c := Customer{
		DisplayName:      in.ClientName,
		PrimaryEmailAddr: &EmailAddress{Address: in.ClientEmail},
		CompanyName:      in.ClientCompany,
	}
	if in.ClientCompany != "" {
		c.DisplayName = in.ClientCompany + " - " + in.ClientName
	}
	if in.ClientPhone != "" {
		c.PrimaryPhone = &PhoneNumber{FreeFormNumber: in.ClientPhone}
	}
	return c
}

func newRentalItem() Item {
	return Item{
		Name:             rentalItemName,
		Type:             "Service",
		IncomeAccountRef: &Ref{Value: defaultIncomeAcct, Name: "Sales of Product Income"},
		Taxable:          true,
	}
}

// buildEstimate books the whole rental as one taxable line for the subtotal
// plus a tax line. Insurance and delivery only appear in the private note.
func buildEstimate(in quote.Input, customerID, itemID string) Estimate {
	return Estimate{
		CustomerRef: Ref{Value: customerID},
		Line: []Line{
			{
				DetailType: lineSalesItem,
				SalesItemLineDetail: &SalesItemLineDetail{
					ItemRef:    Ref{Value: itemID, Name: rentalItemName},
					Qty:        1,
					UnitPrice:  in.Pricing.Subtotal,
					TaxCodeRef: Ref{Value: taxableTaxCode},
				},
				Amount:      in.Pricing.Subtotal,
				Description: truncate(describe(in), maxDescriptionLen),
			},
			{
				DetailType: lineSubTotal,
				Amount:     in.Pricing.Tax,
			},
		},
		TotalAmt:     in.Pricing.Total,
		TxnTaxDetail: &TxnTaxDetail{TotalTax: in.Pricing.Tax},
		PrivateNote:  fmt.Sprintf("Insurance: $%.2f, Delivery: $%.2f", in.Pricing.Insurance, in.Pricing.Delivery),
	}
}

func describe(in quote.Input) string {
	parts := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		parts = append(parts, fmt.Sprintf("%s (%d × %d days)", it.Name, it.Quantity, it.Duration))
	}

	var b strings.Builder
	b.WriteString("Equipment Rental: ")
	b.WriteString(strings.Join(parts, ", "))
	fmt.Fprintf(&b, "\n\nRental Period: %s to %s (%d days)\n", in.StartDate, in.EndDate, in.Duration)
	if in.Notes != "" {
		b.WriteString("\nNotes: ")
		b.WriteString(in.Notes)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
