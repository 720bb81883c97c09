package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FieldAssetListingID       = "asset_listing_id"
	FieldTokenListingID       = "token_listing_id"
	FieldRelatedTokenListings = "related_token_listings"
	FieldAssetPrice           = "asset_price"
	FieldInfo                 = "info"
	FieldNumberOfTokensSold   = "number_of_tokens_sold"
)

// AssetInfo é a descrição em texto livre de um ativo.
type AssetInfo struct {
	AssetName   string `json:"asset_name"`
	Description string `json:"description"`
}

// AssetListing representa o item à venda. Agrega os TokenListings que vendem frações dele.
type AssetListing struct {
	AssetListingID       string          `json:"asset_listing_id"`
	TokenID              string          `json:"token_id"`
	VendorID             string          `json:"vendor_id"`
	Info                 AssetInfo       `json:"info"`
	NumberOfTokensListed int64           `json:"number_of_tokens_listed"`
	NumberOfTokensSold   int64           `json:"number_of_tokens_sold"`
	AssetPrice           decimal.Decimal `json:"asset_price"`
	RelatedTokenListings []string        `json:"related_token_listings"`
	CreatedAt            time.Time       `json:"created_at"`
}

// TokenListing é uma parcela de um AssetListing oferecida por um vendedor específico.
type TokenListing struct {
	TokenListingID       string    `json:"token_listing_id"`
	TokenID              string    `json:"token_id"`
	SourceAssetListingID string    `json:"source_asset_listing_id"`
	ListeeID             string    `json:"listee_id"`
	NumberOfTokensListed int64     `json:"number_of_tokens_listed"`
	NumberOfTokensSold   int64     `json:"number_of_tokens_sold"`
	CreatedAt            time.Time `json:"created_at"`
}
