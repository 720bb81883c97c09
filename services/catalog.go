package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ferreirogomes/eden/models"
	"github.com/ferreirogomes/eden/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog gerencia os anúncios de ativos e de tokens.
type Catalog struct {
	store  storage.Store
	ids    *IdentityAssigner
	tokens *TokenizationService
	logger *zap.Logger
	now    func() time.Time
}

// NewCatalog cria o catálogo; tokens é usado para validar o token de cada anúncio.
func NewCatalog(store storage.Store, ids *IdentityAssigner, tokens *TokenizationService, logger *zap.Logger) *Catalog {
	return &Catalog{store: store, ids: ids, tokens: tokens, logger: logger, now: time.Now}
}

type AssetListingRequest struct {
	TokenID              string
	VendorID             string
	AssetName            string
	Description          string
	NumberOfTokensListed int64
	AssetPrice           decimal.Decimal
}

type TokenListingRequest struct {
	SourceAssetListingID string
	TokenID              string
	ListeeID             string
	NumberOfTokensListed int64
}

// CreateAssetListing cria o anúncio de um ativo. O token precisa existir; se o
// vendedor existir, o anúncio entra na sua lista listings.
func (c *Catalog) CreateAssetListing(ctx context.Context, req AssetListingRequest) (models.AssetListing, error) {
	if req.NumberOfTokensListed < 0 {
		return models.AssetListing{}, &InvalidArgumentError{Msg: "numberOfTokensListed não pode ser negativo"}
	}
	_, found, err := c.tokens.GetToken(ctx, req.TokenID)
	if err != nil {
		return models.AssetListing{}, err
	}
	if !found {
		return models.AssetListing{}, &NotFoundError{Msg: fmt.Sprintf("token %s não encontrado", req.TokenID)}
	}

	listing := models.AssetListing{
		TokenID:              req.TokenID,
		VendorID:             req.VendorID,
		Info:                 models.AssetInfo{AssetName: req.AssetName, Description: req.Description},
		NumberOfTokensListed: req.NumberOfTokensListed,
		AssetPrice:           req.AssetPrice,
		RelatedTokenListings: []string{},
		CreatedAt:            c.now().UTC(),
	}
	internalID, err := c.store.InsertOne(ctx, storage.AssetListings, listing)
	if err != nil {
		c.logger.Error("falha ao inserir anúncio de ativo", zap.String("token_id", req.TokenID), zap.Error(err))
		return models.AssetListing{}, storeErr("inserir anúncio de ativo", err)
	}
	var created models.AssetListing
	listingID, err := c.ids.Assign(ctx, AssetListingKind, internalID, &created)
	if err != nil {
		return models.AssetListing{}, err
	}

	if req.VendorID != "" {
		err := c.store.UpdateOne(ctx, storage.Vendors,
			storage.Filter{models.FieldVendorID: req.VendorID},
			storage.Update{AddToSet: map[string]any{models.FieldListings: listingID}},
			nil,
		)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			c.logger.Warn("anúncio criado para vendedor inexistente",
				zap.String("asset_listing_id", listingID), zap.String("vendor_id", req.VendorID))
		case err != nil:
			c.logger.Error("falha ao registrar anúncio no vendedor, removendo anúncio",
				zap.String("asset_listing_id", listingID), zap.Error(err))
			c.discard(ctx, storage.AssetListings, internalID)
			return models.AssetListing{}, storeErr("registrar anúncio no vendedor", err)
		}
	}
	return created, nil
}

// CreateTokenListing cria uma parcela à venda de um anúncio de ativo existente e a
// acrescenta em related_token_listings do anúncio pai.
func (c *Catalog) CreateTokenListing(ctx context.Context, req TokenListingRequest) (models.TokenListing, error) {
	if req.NumberOfTokensListed < 0 {
		return models.TokenListing{}, &InvalidArgumentError{Msg: "numberOfTokensListed não pode ser negativo"}
	}
	_, found, err := c.GetAssetListing(ctx, req.SourceAssetListingID)
	if err != nil {
		return models.TokenListing{}, err
	}
	if !found {
		return models.TokenListing{}, &NotFoundError{Msg: fmt.Sprintf("anúncio de ativo %s não encontrado", req.SourceAssetListingID)}
	}

	listing := models.TokenListing{
		TokenID:              req.TokenID,
		SourceAssetListingID: req.SourceAssetListingID,
		ListeeID:             req.ListeeID,
		NumberOfTokensListed: req.NumberOfTokensListed,
		CreatedAt:            c.now().UTC(),
	}
	internalID, err := c.store.InsertOne(ctx, storage.TokenListings, listing)
	if err != nil {
		c.logger.Error("falha ao inserir anúncio de token", zap.String("source", req.SourceAssetListingID), zap.Error(err))
		return models.TokenListing{}, storeErr("inserir anúncio de token", err)
	}
	var created models.TokenListing
	listingID, err := c.ids.Assign(ctx, TokenListingKind, internalID, &created)
	if err != nil {
		return models.TokenListing{}, err
	}

	err = c.store.UpdateOne(ctx, storage.AssetListings,
		storage.Filter{models.FieldAssetListingID: req.SourceAssetListingID},
		storage.Update{AddToSet: map[string]any{models.FieldRelatedTokenListings: listingID}},
		nil,
	)
	if err != nil {
		c.logger.Error("falha ao vincular anúncio de token ao pai, removendo anúncio",
			zap.String("token_listing_id", listingID), zap.Error(err))
		c.discard(ctx, storage.TokenListings, internalID)
		if errors.Is(err, storage.ErrNotFound) {
			return models.TokenListing{}, &NotFoundError{Msg: fmt.Sprintf("anúncio de ativo %s não encontrado", req.SourceAssetListingID)}
		}
		return models.TokenListing{}, storeErr("vincular anúncio de token", err)
	}
	return created, nil
}

// GetAssetListing busca um anúncio de ativo pelo ID público.
func (c *Catalog) GetAssetListing(ctx context.Context, assetListingID string) (models.AssetListing, bool, error) {
	var l models.AssetListing
	found, err := findOne(ctx, c.store, c.logger, storage.AssetListings,
		storage.Filter{models.FieldAssetListingID: assetListingID}, &l)
	return l, found, err
}

// GetTokenListing busca um anúncio de token pelo ID público.
func (c *Catalog) GetTokenListing(ctx context.Context, tokenListingID string) (models.TokenListing, bool, error) {
	var l models.TokenListing
	found, err := findOne(ctx, c.store, c.logger, storage.TokenListings,
		storage.Filter{models.FieldTokenListingID: tokenListingID}, &l)
	return l, found, err
}

// UpdateAssetPrice altera o preço do anúncio de ativo e devolve o documento atualizado.
func (c *Catalog) UpdateAssetPrice(ctx context.Context, assetListingID string, newPrice decimal.Decimal) (models.AssetListing, error) {
	if newPrice.IsNegative() {
		return models.AssetListing{}, &InvalidArgumentError{Msg: "preço não pode ser negativo"}
	}
	return c.patchAssetListing(ctx, assetListingID, storage.Update{Set: map[string]any{models.FieldAssetPrice: newPrice}})
}

// UpdateAssetDescription troca nome e descrição do ativo. Strings vazias mantêm o valor atual.
func (c *Catalog) UpdateAssetDescription(ctx context.Context, assetListingID, newName, newDescription string) (models.AssetListing, error) {
	current, found, err := c.GetAssetListing(ctx, assetListingID)
	if err != nil {
		return models.AssetListing{}, err
	}
	if !found {
		return models.AssetListing{}, &NotFoundError{Msg: fmt.Sprintf("anúncio de ativo %s não encontrado", assetListingID)}
	}

	info := current.Info
	if newName != "" {
		info.AssetName = newName
	}
	if newDescription != "" {
		info.Description = newDescription
	}
	if info == current.Info {
		return current, nil
	}
	return c.patchAssetListing(ctx, assetListingID, storage.Update{Set: map[string]any{models.FieldInfo: info}})
}

// RecordSale soma quantity às unidades vendidas do anúncio de ativo.
func (c *Catalog) RecordSale(ctx context.Context, assetListingID string, quantity int64) (models.AssetListing, error) {
	if quantity <= 0 {
		return models.AssetListing{}, &InvalidArgumentError{Msg: "quantity deve ser positivo"}
	}
	return c.patchAssetListing(ctx, assetListingID, storage.Update{Inc: map[string]int64{models.FieldNumberOfTokensSold: quantity}})
}

func (c *Catalog) patchAssetListing(ctx context.Context, assetListingID string, update storage.Update) (models.AssetListing, error) {
	var updated models.AssetListing
	err := c.store.UpdateOne(ctx, storage.AssetListings,
		storage.Filter{models.FieldAssetListingID: assetListingID}, update, &updated)
	if errors.Is(err, storage.ErrNotFound) {
		return models.AssetListing{}, &NotFoundError{Msg: fmt.Sprintf("anúncio de ativo %s não encontrado", assetListingID)}
	}
	if err != nil {
		c.logger.Error("falha ao atualizar anúncio de ativo", zap.String("asset_listing_id", assetListingID), zap.Error(err))
		return models.AssetListing{}, storeErr("atualizar anúncio de ativo", err)
	}
	return updated, nil
}

// DeleteAssetListing remove o anúncio e o retira da lista listings do vendedor.
func (c *Catalog) DeleteAssetListing(ctx context.Context, assetListingID string) (bool, error) {
	listing, found, err := c.GetAssetListing(ctx, assetListingID)
	if err != nil || !found {
		return false, err
	}
	n, err := c.store.DeleteOne(ctx, storage.AssetListings, storage.Filter{models.FieldAssetListingID: assetListingID})
	if err != nil {
		c.logger.Error("falha ao remover anúncio de ativo", zap.String("asset_listing_id", assetListingID), zap.Error(err))
		return false, storeErr("remover anúncio de ativo", err)
	}
	if n != 1 {
		return false, nil
	}
	if listing.VendorID != "" {
		c.unlink(ctx, storage.Vendors, models.FieldVendorID, listing.VendorID, models.FieldListings, assetListingID)
	}
	return true, nil
}

// DeleteTokenListing remove o anúncio e o retira de related_token_listings do pai.
func (c *Catalog) DeleteTokenListing(ctx context.Context, tokenListingID string) (bool, error) {
	listing, found, err := c.GetTokenListing(ctx, tokenListingID)
	if err != nil || !found {
		return false, err
	}
	n, err := c.store.DeleteOne(ctx, storage.TokenListings, storage.Filter{models.FieldTokenListingID: tokenListingID})
	if err != nil {
		c.logger.Error("falha ao remover anúncio de token", zap.String("token_listing_id", tokenListingID), zap.Error(err))
		return false, storeErr("remover anúncio de token", err)
	}
	if n != 1 {
		return false, nil
	}
	c.unlink(ctx, storage.AssetListings, models.FieldAssetListingID, listing.SourceAssetListingID,
		models.FieldRelatedTokenListings, tokenListingID)
	return true, nil
}

// unlink tira value da lista field do documento dono. A remoção principal já
// aconteceu, então uma falha aqui só é registrada.
func (c *Catalog) unlink(ctx context.Context, coll storage.Collection, idField, id, field, value string) {
	err := c.store.UpdateOne(ctx, coll,
		storage.Filter{idField: id},
		storage.Update{Pull: map[string]any{field: value}},
		nil,
	)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		c.logger.Error("referência pendente após remoção",
			zap.String("collection", string(coll)), zap.String("id", id),
			zap.String("field", field), zap.String("value", value), zap.Error(err))
	}
}

func (c *Catalog) discard(ctx context.Context, coll storage.Collection, internalID string) {
	if _, err := c.store.DeleteOne(context.WithoutCancel(ctx), coll, storage.Filter{storage.InternalIDKey: internalID}); err != nil {
		c.logger.Error("falha ao descartar documento", zap.String("collection", string(coll)),
			zap.String("internal_id", internalID), zap.Error(err))
	}
}
