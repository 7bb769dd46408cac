package inventory

import "time"

// Item is one in-house inventory row.
type Item struct {
	ID                string     `json:"id"`
	CatalogID         string     `json:"catalogId"`
	QuantityOwned     int        `json:"quantityOwned"`
	QuantityAvailable int        `json:"quantityAvailable"`
	StorageLocation   string     `json:"storageLocation"`
	SerialNumbers     []string   `json:"serialNumbers"`
	PurchasePrice     *float64   `json:"purchasePrice,omitempty"`
	Condition         string     `json:"condition"`
	IsActive          bool       `json:"isActive"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	Equipment         *Equipment `json:"equipment,omitempty"`
}

// Equipment is the catalog side of an inventory listing.
type Equipment struct {
	ID        string  `json:"id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	DailyRate float64 `json:"dailyRate"`
}

type UpsertInput struct {
	CatalogID       string   `json:"catalogId"`
	QuantityOwned   int      `json:"quantityOwned"`
	StorageLocation string   `json:"storageLocation"`
	SerialNumbers   []string `json:"serialNumbers"`
	PurchasePrice   *float64 `json:"purchasePrice"`
}

type UpdateInput struct {
	QuantityOwned     *int    `json:"quantityOwned"`
	QuantityAvailable *int    `json:"quantityAvailable"`
	StorageLocation   *string `json:"storageLocation"`
	Condition         *string `json:"condition"`
}

// Line is a quantity of one catalog item to pull from the shelf.
type Line struct {
	CatalogID string `json:"equipmentId"`
	Quantity  int    `json:"quantity"`
}

type ShortLine struct {
	CatalogID string `json:"equipmentId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type PullResult struct {
	Pulled []Line      `json:"pulled"`
	Short  []ShortLine `json:"short"`
}
