package models

import "time"

const (
	FieldLocationID = "location_id"
	FieldVendorIDs  = "vendor_ids"
)

// Address agrupa os campos de endereço de um local.
type Address struct {
	Country      string `json:"country"`
	City         string `json:"city"`
	Street       string `json:"street"`
	StreetNumber string `json:"street_number"`
	PostalCode   string `json:"postal_code"`
}

// Location é um endereço físico onde um ou mais vendedores operam.
type Location struct {
	LocationID string   `json:"location_id"`
	VendorIDs  []string `json:"vendor_ids"`
	Address
	CreatedAt time.Time `json:"created_at"`
}
