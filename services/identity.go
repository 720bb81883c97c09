package services

import (
	"context"
	"errors"

	"github.com/ferreirogomes/eden/models"
	"github.com/ferreirogomes/eden/storage"

	"go.uber.org/zap"
)

// Kind descreve onde e com que prefixo o ID público de uma entidade é gravado.
type Kind struct {
	Prefix     string
	Collection storage.Collection
	Field      string
}

var (
	UserKind         = Kind{Prefix: models.UserPrefix, Collection: storage.Users, Field: models.FieldUserID}
	VendorKind       = Kind{Prefix: models.VendorPrefix, Collection: storage.Vendors, Field: models.FieldVendorID}
	TokenKind        = Kind{Prefix: models.TokenPrefix, Collection: storage.Tokens, Field: models.FieldTokenID}
	LocationKind     = Kind{Prefix: models.LocationPrefix, Collection: storage.Locations, Field: models.FieldLocationID}
	AssetListingKind = Kind{Prefix: models.AssetListingPrefix, Collection: storage.AssetListings, Field: models.FieldAssetListingID}
	TokenListingKind = Kind{Prefix: models.TokenListingPrefix, Collection: storage.TokenListings, Field: models.FieldTokenListingID}
	TransactionKind  = Kind{Prefix: models.TransactionPrefix, Collection: storage.Transactions, Field: models.FieldTransactionID}
)

// PublicID monta "<prefixo>-<id interno>".
func (k Kind) PublicID(internalID string) string {
	return k.Prefix + "-" + internalID
}

// IdentityAssigner grava o ID público de documentos recém-inseridos.
type IdentityAssigner struct {
	store  storage.Store
	logger *zap.Logger
}

// NewIdentityAssigner cria o atribuidor de IDs públicos sobre o store informado.
func NewIdentityAssigner(store storage.Store, logger *zap.Logger) *IdentityAssigner {
	return &IdentityAssigner{store: store, logger: logger}
}

// Assign grava kind.PublicID(internalID) no documento com esse ID interno e decodifica
// o documento atualizado em out. Chamar de novo com o mesmo ID produz o mesmo resultado.
func (a *IdentityAssigner) Assign(ctx context.Context, kind Kind, internalID string, out any) (string, error) {
	publicID := kind.PublicID(internalID)
	err := a.store.UpdateOne(ctx, kind.Collection,
		storage.Filter{storage.InternalIDKey: internalID},
		storage.Update{Set: map[string]any{kind.Field: publicID}},
		out,
	)
	if errors.Is(err, storage.ErrNotFound) {
		a.logger.Error("documento recém-inserido não encontrado",
			zap.String("collection", string(kind.Collection)),
			zap.String("internal_id", internalID),
		)
		return "", &IdentityError{Collection: kind.Collection, InternalID: internalID, Err: err}
	}
	if err != nil {
		a.logger.Error("falha ao atribuir ID público",
			zap.String("collection", string(kind.Collection)),
			zap.String("internal_id", internalID),
			zap.Error(err),
		)
		return "", storeErr("atribuir ID público", err)
	}
	return publicID, nil
}
