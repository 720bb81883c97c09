package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const FieldTransactionID = "transaction_id"

// Transaction é o registro imutável de uma compra. Criado uma única vez.
type Transaction struct {
	TransactionID     string          `json:"transaction_id"`
	BuyerID           string          `json:"buyer_id"`
	VendorID          string          `json:"vendor_id"`
	TokenID           string          `json:"token_id"`
	TokensPurchased   int64           `json:"tokens_purchased"`
	TransactionValue  decimal.Decimal `json:"transaction_value"`   // valor em USD
	CurrencyPayedWith string          `json:"currency_payed_with"` // tokenID ou moeda externa
	AmountPayed       decimal.Decimal `json:"amount_payed"`
	CreatedAt         time.Time       `json:"created_at"`
}
