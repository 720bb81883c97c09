package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FieldTokenID            = "token_id"
	FieldPricePerTokenInUSD = "price_per_token_in_usd"
)

// Token representa um token emitido por contrato. O contrato e a ABI são opacos
// para o backend; apenas o preço muda depois da criação.
type Token struct {
	TokenID            string          `json:"token_id"`
	ContractAddress    string          `json:"contract_address"`
	TokenName          string          `json:"token_name"`
	TokenSupply        int64           `json:"token_supply"`
	PricePerTokenInUSD decimal.Decimal `json:"price_per_token_in_usd"`
	ABI                string          `json:"abi"`
	CreatedAt          time.Time       `json:"created_at"`
}
