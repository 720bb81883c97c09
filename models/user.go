package models

import (
	"fmt"
	"strings"
	"time"
)

// Nomes dos campos persistidos, usados nos filtros e atualizações do store.
const (
	FieldUserID             = "user_id"
	FieldVendorID           = "vendor_id"
	FieldUsername           = "username"
	FieldWalletAddress      = "wallet_address"
	FieldTransactionHistory = "transaction_history"
	FieldHoldings           = "holdings"
	FieldHoldingsVersion    = "holdings_version"
	FieldLocations          = "locations"
	FieldListings           = "listings"
)

// ActorKind distingue as duas variantes de ator capazes de manter tokens.
type ActorKind int

const (
	UserActor ActorKind = iota + 1
	VendorActor
)

func (k ActorKind) String() string {
	switch k {
	case UserActor:
		return "user"
	case VendorActor:
		return "vendor"
	default:
		return fmt.Sprintf("ActorKind(%d)", int(k))
	}
}

// ActorRef identifica um ator de forma explícita: a variante viaja junto com o ID,
// em vez de ser deduzida do primeiro caractere.
type ActorRef struct {
	Kind ActorKind
	ID   string
}

// UserRef e VendorRef montam a referência de cada variante.
func UserRef(id string) ActorRef   { return ActorRef{Kind: UserActor, ID: id} }
func VendorRef(id string) ActorRef { return ActorRef{Kind: VendorActor, ID: id} }

func (r ActorRef) String() string { return r.Kind.String() + ":" + r.ID }

// ParseActorRef converte um ID público ("U-..." ou "V-...") em ActorRef.
// Deve ser usado apenas na borda (HTTP); o núcleo recebe ActorRef pronto.
func ParseActorRef(id string) (ActorRef, error) {
	switch {
	case strings.HasPrefix(id, UserPrefix+"-") && len(id) > len(UserPrefix)+1:
		return UserRef(id), nil
	case strings.HasPrefix(id, VendorPrefix+"-") && len(id) > len(VendorPrefix)+1:
		return VendorRef(id), nil
	default:
		return ActorRef{}, fmt.Errorf("id de ator inválido: %q", id)
	}
}

// Prefixos dos IDs públicos, um por tipo de entidade.
const (
	UserPrefix         = "U"
	VendorPrefix       = "V"
	TokenPrefix        = "TK"
	LocationPrefix     = "L"
	AssetListingPrefix = "AL"
	TokenListingPrefix = "TKL"
	TransactionPrefix  = "TR"
)

// User representa um comprador da plataforma.
type User struct {
	UserID             string    `json:"user_id"`
	WalletAddress      string    `json:"wallet_address"`
	Username           string    `json:"username"`
	Hash               string    `json:"hash"`
	TransactionHistory []string  `json:"transaction_history"` // IDs de transação, mais recente por último
	Holdings           Holdings  `json:"holdings"`
	HoldingsVersion    int64     `json:"holdings_version"` // incrementado a cada alteração de holdings
	CreatedAt          time.Time `json:"created_at"`
}

// Vendor representa um vendedor. Além do que um User possui, mantém referências
// para seus locais e anúncios.
type Vendor struct {
	VendorID           string    `json:"vendor_id"`
	WalletAddress      string    `json:"wallet_address"`
	Username           string    `json:"username"`
	Hash               string    `json:"hash"`
	Locations          []string  `json:"locations"`
	TransactionHistory []string  `json:"transaction_history"`
	Listings           []string  `json:"listings"`
	Holdings           Holdings  `json:"holdings"`
	HoldingsVersion    int64     `json:"holdings_version"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewUser monta um usuário ainda sem ID público, com histórico e holdings vazios.
func NewUser(walletAddress, username, hash string, now time.Time) User {
	return User{
		WalletAddress:      walletAddress,
		Username:           username,
		Hash:               hash,
		TransactionHistory: []string{},
		Holdings:           Holdings{},
		CreatedAt:          now,
	}
}

// NewVendor monta um vendedor ainda sem ID público.
func NewVendor(walletAddress, username, hash string, now time.Time) Vendor {
	return Vendor{
		WalletAddress:      walletAddress,
		Username:           username,
		Hash:               hash,
		Locations:          []string{},
		TransactionHistory: []string{},
		Listings:           []string{},
		Holdings:           Holdings{},
		CreatedAt:          now,
	}
}
