package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection identifica uma coleção de documentos (uma por tipo de entidade).
type Collection string

const (
	Users         Collection = "users"
	Vendors       Collection = "vendors"
	Tokens        Collection = "tokens"
	Locations     Collection = "locations"
	AssetListings Collection = "asset_listings"
	TokenListings Collection = "token_listings"
	Transactions  Collection = "transactions"
)

// AllCollections lista as coleções conhecidas, na ordem de criação das tabelas.
var AllCollections = []Collection{Users, Vendors, Tokens, Locations, AssetListings, TokenListings, Transactions}

func (c Collection) valid() bool {
	for _, known := range AllCollections {
		if c == known {
			return true
		}
	}
	return false
}

// InternalIDKey é a chave reservada de Filter que casa com o identificador interno do store.
const InternalIDKey = "_id"

var (
	ErrNotFound  = errors.New("documento não encontrado")
	ErrDuplicate = errors.New("violação de unicidade")
)

// Filter é uma conjunção de igualdades sobre campos de primeiro nível.
type Filter map[string]any

// Update descreve uma alteração com a semântica dos operadores do MongoDB.
// AddToSet só acrescenta se não houver elemento igual; Pull remove todos os iguais.
type Update struct {
	Set      map[string]any
	Inc      map[string]int64
	AddToSet map[string]any
	Pull     map[string]any
}

func (u Update) empty() bool {
	return len(u.Set) == 0 && len(u.Inc) == 0 && len(u.AddToSet) == 0 && len(u.Pull) == 0
}

// Store é o contrato do armazenamento de documentos usado por todos os serviços.
// Os documentos são persistidos na sua codificação JSON.
type Store interface {
	// InsertOne grava doc e devolve o identificador interno atribuído pelo store.
	InsertOne(ctx context.Context, coll Collection, doc any) (string, error)
	// FindOne decodifica em out o primeiro documento que casa com filter, ou devolve ErrNotFound.
	FindOne(ctx context.Context, coll Collection, filter Filter, out any) error
	// FindMany decodifica em out (*[]T) todos os documentos que casam, em ordem de inserção.
	FindMany(ctx context.Context, coll Collection, filter Filter, out any) error
	// UpdateOne aplica update ao primeiro documento que casa. Se out não for nil,
	// recebe o documento já atualizado. Devolve ErrNotFound se nada casar.
	UpdateOne(ctx context.Context, coll Collection, filter Filter, update Update, out any) error
	DeleteOne(ctx context.Context, coll Collection, filter Filter) (int64, error)
	DeleteMany(ctx context.Context, coll Collection, filter Filter) (int64, error)
	Close(ctx context.Context) error
}

// uniqueFields são os campos com índice único em cada coleção.
var uniqueFields = map[Collection][]string{
	Users:   {"username"},
	Vendors: {"username"},
}

// decodeInto converte a representação JSON de um documento no valor apontado por out.
func decodeInto(raw []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("falha ao decodificar documento: %w", err)
	}
	return nil
}

// decodeList monta um array JSON a partir dos documentos e o decodifica em out (*[]T).
func decodeList(raws [][]byte, out any) error {
	buf := make([]byte, 0, 64*len(raws)+2)
	buf = append(buf, '[')
	for i, raw := range raws {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, raw...)
	}
	buf = append(buf, ']')
	return decodeInto(buf, out)
}
