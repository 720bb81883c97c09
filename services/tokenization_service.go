package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ferreirogomes/eden/models"
	"github.com/ferreirogomes/eden/storage"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TokenizationService gerencia os tokens. Como tokens quase nunca mudam, as leituras
// passam por um cache em memória que é invalidado nas escritas.
type TokenizationService struct {
	store  storage.Store
	ids    *IdentityAssigner
	logger *zap.Logger
	cache  *cache.Cache
	now    func() time.Time
}

// NewTokenizationService cria o serviço. ttl <= 0 desliga o cache.
func NewTokenizationService(store storage.Store, ids *IdentityAssigner, logger *zap.Logger, ttl time.Duration) *TokenizationService {
	s := &TokenizationService{store: store, ids: ids, logger: logger, now: time.Now}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

// CreateToken registra um token. Endereço do contrato e ABI são guardados como recebidos.
func (s *TokenizationService) CreateToken(ctx context.Context, contractAddress, tokenName string, tokenSupply int64, pricePerTokenInUSD decimal.Decimal, abi string) (models.Token, error) {
	if tokenSupply < 0 {
		return models.Token{}, &InvalidArgumentError{Msg: "tokenSupply não pode ser negativo"}
	}
	if pricePerTokenInUSD.IsNegative() {
		return models.Token{}, &InvalidArgumentError{Msg: "pricePerTokenInUSD não pode ser negativo"}
	}

	token := models.Token{
		ContractAddress:    contractAddress,
		TokenName:          tokenName,
		TokenSupply:        tokenSupply,
		PricePerTokenInUSD: pricePerTokenInUSD,
		ABI:                abi,
		CreatedAt:          s.now().UTC(),
	}
	internalID, err := s.store.InsertOne(ctx, storage.Tokens, token)
	if err != nil {
		s.logger.Error("falha ao inserir token", zap.String("token_name", tokenName), zap.Error(err))
		return models.Token{}, storeErr("inserir token", err)
	}

	var created models.Token
	tokenID, err := s.ids.Assign(ctx, TokenKind, internalID, &created)
	if err != nil {
		return models.Token{}, err
	}
	s.remember(created)
	s.logger.Info("token criado", zap.String("token_id", tokenID), zap.String("token_name", tokenName))
	return created, nil
}

// GetToken busca um token pelo ID público, consultando o cache primeiro.
func (s *TokenizationService) GetToken(ctx context.Context, tokenID string) (models.Token, bool, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(tokenID); ok {
			tokenCacheLookups.WithLabelValues("hit").Inc()
			return v.(models.Token), true, nil
		}
		tokenCacheLookups.WithLabelValues("miss").Inc()
	}

	var token models.Token
	found, err := findOne(ctx, s.store, s.logger, storage.Tokens, storage.Filter{models.FieldTokenID: tokenID}, &token)
	if err != nil || !found {
		return models.Token{}, found, err
	}
	s.remember(token)
	return token, true, nil
}

// UpdatePricePerToken altera o preço, única mudança permitida num token.
func (s *TokenizationService) UpdatePricePerToken(ctx context.Context, tokenID string, newPrice decimal.Decimal) (models.Token, error) {
	if newPrice.IsNegative() {
		return models.Token{}, &InvalidArgumentError{Msg: "preço não pode ser negativo"}
	}
	s.forget(tokenID)

	var updated models.Token
	err := s.store.UpdateOne(ctx, storage.Tokens,
		storage.Filter{models.FieldTokenID: tokenID},
		storage.Update{Set: map[string]any{models.FieldPricePerTokenInUSD: newPrice}},
		&updated,
	)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Token{}, &NotFoundError{Msg: fmt.Sprintf("token %s não encontrado", tokenID)}
	}
	if err != nil {
		s.logger.Error("falha ao atualizar preço do token", zap.String("token_id", tokenID), zap.Error(err))
		return models.Token{}, storeErr("atualizar preço do token", err)
	}
	s.remember(updated)
	return updated, nil
}

// DeleteToken remove o token. Devolve false se nada foi removido.
func (s *TokenizationService) DeleteToken(ctx context.Context, tokenID string) (bool, error) {
	s.forget(tokenID)
	n, err := s.store.DeleteOne(ctx, storage.Tokens, storage.Filter{models.FieldTokenID: tokenID})
	if err != nil {
		s.logger.Error("falha ao remover token", zap.String("token_id", tokenID), zap.Error(err))
		return false, storeErr("remover token", err)
	}
	return n == 1, nil
}

func (s *TokenizationService) remember(token models.Token) {
	if s.cache != nil && token.TokenID != "" {
		s.cache.SetDefault(token.TokenID, token)
	}
}

func (s *TokenizationService) forget(tokenID string) {
	if s.cache != nil {
		s.cache.Delete(tokenID)
	}
}
