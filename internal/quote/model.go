package quote

import "time"

const (
	StatusPending = "pending"

	leadStatusQuoteRequested = "quote_requested"
	leadSourceWebsite        = "website"
)

// Item is one requested line on an incoming quote.
type Item struct {
	EquipmentID string  `json:"equipmentId"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	DailyRate   float64 `json:"dailyRate"`
	Duration    int     `json:"duration"`
	Total       float64 `json:"total"`
}

type Pricing struct {
	LineItemsTotal float64 `json:"lineItemsTotal"`
	Insurance      float64 `json:"insurance"`
	Delivery       float64 `json:"delivery"`
	Subtotal       float64 `json:"subtotal"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`
}

// Input is the body of a quote request.
type Input struct {
	ClientName    string  `json:"clientName"`
	ClientEmail   string  `json:"clientEmail"`
	ClientPhone   string  `json:"clientPhone"`
	ClientCompany string  `json:"clientCompany"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate"`
	Duration      int     `json:"duration"`
	Items         []Item  `json:"items"`
	Pricing       Pricing `json:"pricing"`
	Notes         string  `json:"notes"`
}

type Quote struct {
	ID              string       `json:"id"`
	QuoteNumber     string       `json:"quoteNumber"`
	ClientName      string       `json:"clientName"`
	ClientEmail     string       `json:"clientEmail"`
	ClientPhone     string       `json:"clientPhone"`
	ClientCompany   string       `json:"clientCompany"`
	StartDate       string       `json:"startDate"`
	EndDate         string       `json:"endDate"`
	DurationDays    int          `json:"durationDays"`
	Status          string       `json:"status"`
	Pricing         Pricing      `json:"pricing"`
	Notes           string       `json:"notes"`
	DepositRequired float64      `json:"depositRequired"`
	CreatedAt       time.Time    `json:"createdAt"`
	Items           []StoredItem `json:"items,omitempty"`
}

type StoredItem struct {
	ID          string  `json:"id"`
	QuoteID     string  `json:"quoteId"`
	EquipmentID string  `json:"equipmentId"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	DailyRate   float64 `json:"dailyRate"`
	TotalPrice  float64 `json:"totalPrice"`
}

type Lead struct {
	Name    string
	Email   string
	Phone   string
	Company string
}

// EstimateRef identifies an estimate created in the accounting system.
type EstimateRef struct {
	ID        string `json:"id"`
	DocNumber string `json:"docNumber"`
}

type Summary struct {
	ID          string  `json:"id"`
	QuoteNumber string  `json:"quoteNumber"`
	Total       float64 `json:"total"`
}

// Created is returned from Service.Create. QBEstimate is nil when no
// estimate could be created.
type Created struct {
	Success    bool         `json:"success"`
	Quote      Summary      `json:"quote"`
	QBEstimate *EstimateRef `json:"qbEstimate"`
}

type ListFilter struct {
	Status string
	Page   int
	Limit  int
}
