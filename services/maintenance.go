package services

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/ferreirogomes/eden/storage"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// flushedCollections são as coleções apagadas por FlushDatabase. Tokens e anúncios ficam.
var flushedCollections = []storage.Collection{storage.Users, storage.Vendors, storage.Locations, storage.Transactions}

// Maintenance reúne operações administrativas sobre o banco.
type Maintenance struct {
	store     storage.Store
	flushPass string
	logger    *zap.Logger
}

// NewMaintenance cria o serviço. flushPass vazio desliga FlushDatabase.
func NewMaintenance(store storage.Store, flushPass string, logger *zap.Logger) *Maintenance {
	return &Maintenance{store: store, flushPass: flushPass, logger: logger}
}

// FlushDatabase apaga usuários, vendedores, locais e transações quando pass confere
// com a senha configurada. Devolve quantos documentos saíram de cada coleção.
func (m *Maintenance) FlushDatabase(ctx context.Context, pass string) (map[storage.Collection]int64, error) {
	if m.flushPass == "" {
		return nil, &InvalidArgumentError{Msg: "flush desabilitado: flush_pass não configurado"}
	}
	if subtle.ConstantTimeCompare([]byte(pass), []byte(m.flushPass)) != 1 {
		m.logger.Warn("tentativa de flush com senha incorreta")
		return nil, &InvalidArgumentError{Msg: "senha de flush incorreta"}
	}

	removed := make(map[storage.Collection]int64, len(flushedCollections))
	var result *multierror.Error
	for _, coll := range flushedCollections {
		n, err := m.store.DeleteMany(ctx, coll, storage.Filter{})
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", coll, err))
			continue
		}
		removed[coll] = n
	}
	if err := result.ErrorOrNil(); err != nil {
		m.logger.Error("flush incompleto", zap.Error(err))
		return removed, storeErr("apagar coleções", err)
	}
	m.logger.Info("banco de dados limpo", zap.Any("removed", removed))
	return removed, nil
}
