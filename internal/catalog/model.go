package catalog

import "time"

const (
	AvailabilityInHouse = "in-house"
	AvailabilityPartner = "partner"
)

type Equipment struct {
	ID           string        `json:"id"`
	SKU          string        `json:"sku"`
	Name         string        `json:"name"`
	Category     string        `json:"category"`
	Description  string        `json:"description"`
	DailyRate    float64       `json:"dailyRate"`
	WeeklyRate   *float64      `json:"weeklyRate,omitempty"`
	IsActive     bool          `json:"isActive"`
	CreatedAt    time.Time     `json:"createdAt"`
	InHouse      *InHouseStock `json:"inHouse"`
	Partner      *Partner      `json:"partner,omitempty"`
	Availability string        `json:"availability"`
}

// InHouseStock is the in-house inventory row attached to a catalog item.
type InHouseStock struct {
	ID                string   `json:"id"`
	QuantityOwned     int      `json:"quantityOwned"`
	QuantityAvailable int      `json:"quantityAvailable"`
	StorageLocation   string   `json:"storageLocation"`
	SerialNumbers     []string `json:"serialNumbers"`
	Condition         string   `json:"condition"`
}

type Partner struct {
	Name         string  `json:"name"`
	DiscountRate float64 `json:"discountRate"`
}

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	DisplayOrder int    `json:"displayOrder"`
}

type Filter struct {
	Category     string
	Search       string
	Availability string
	Page         int
	Limit        int
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalCount int  `json:"totalCount"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

type Page struct {
	Data       []Equipment `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// availabilityOf reports in-house only when a stock row exists with units free.
func availabilityOf(stock *InHouseStock) string {
	if stock != nil && stock.QuantityAvailable > 0 {
		return AvailabilityInHouse
	}
	return AvailabilityPartner
}
