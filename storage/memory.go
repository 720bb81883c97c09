package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type memDoc struct {
	id   string
	body document
}

// MemoryStore é um Store em memória, usado nos testes e no backend "memory".
// Todas as operações são serializadas por um único mutex.
type MemoryStore struct {
	mu    sync.Mutex
	colls map[Collection][]*memDoc
	newID func() string
}

// NewMemoryStore cria um store vazio. Os IDs internos são UUIDs.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		colls: make(map[Collection][]*memDoc),
		newID: func() string { return uuid.New().String() },
	}
}

// InsertOne grava uma cópia de doc com um UUID como ID interno.
func (m *MemoryStore) InsertOne(ctx context.Context, coll Collection, doc any) (string, error) {
	if !coll.valid() {
		return "", fmt.Errorf("coleção desconhecida: %q", coll)
	}
	body, err := toDocument(doc)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if violatesUnique(coll, body, m.bodies(coll, "")) {
		return "", fmt.Errorf("inserir em %s: %w", coll, ErrDuplicate)
	}
	id := m.newID()
	m.colls[coll] = append(m.colls[coll], &memDoc{id: id, body: body})
	return id, nil
}

// FindOne decodifica em out o primeiro documento que casa com filter.
func (m *MemoryStore) FindOne(ctx context.Context, coll Collection, filter Filter, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.first(coll, filter)
	if err != nil {
		return err
	}
	return encodeThenDecode(d.body, out)
}

// FindMany decodifica em out todos os documentos que casam, em ordem de inserção.
func (m *MemoryStore) FindMany(ctx context.Context, coll Collection, filter Filter, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found, err := m.all(coll, filter)
	if err != nil {
		return err
	}
	raws := make([][]byte, 0, len(found))
	for _, d := range found {
		raw, err := json.Marshal(d.body)
		if err != nil {
			return fmt.Errorf("falha ao codificar documento: %w", err)
		}
		raws = append(raws, raw)
	}
	return decodeList(raws, out)
}

// UpdateOne aplica update ao primeiro documento que casa, sob o lock de escrita.
func (m *MemoryStore) UpdateOne(ctx context.Context, coll Collection, filter Filter, update Update, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.first(coll, filter)
	if err != nil {
		return err
	}

	// Trabalha numa cópia para não deixar o documento pela metade em caso de erro.
	next, err := cloneDocument(d.body)
	if err != nil {
		return err
	}
	if err := apply(next, update); err != nil {
		return err
	}
	if violatesUnique(coll, next, m.bodies(coll, d.id)) {
		return fmt.Errorf("atualizar %s: %w", coll, ErrDuplicate)
	}
	d.body = next
	return encodeThenDecode(d.body, out)
}

// DeleteOne remove o primeiro documento que casa.
func (m *MemoryStore) DeleteOne(ctx context.Context, coll Collection, filter Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.first(coll, filter)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	m.remove(coll, map[*memDoc]bool{d: true})
	return 1, nil
}

// DeleteMany remove todos os documentos que casam.
func (m *MemoryStore) DeleteMany(ctx context.Context, coll Collection, filter Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found, err := m.all(coll, filter)
	if err != nil {
		return 0, err
	}
	drop := make(map[*memDoc]bool, len(found))
	for _, d := range found {
		drop[d] = true
	}
	m.remove(coll, drop)
	return int64(len(found)), nil
}

// Close não faz nada; o store em memória não tem conexão.
func (m *MemoryStore) Close(ctx context.Context) error { return nil }

func (m *MemoryStore) first(coll Collection, filter Filter) (*memDoc, error) {
	found, err := m.all(coll, filter)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

func (m *MemoryStore) all(coll Collection, filter Filter) ([]*memDoc, error) {
	if !coll.valid() {
		return nil, fmt.Errorf("coleção desconhecida: %q", coll)
	}
	rawID, byID := filter[InternalIDKey]
	wantID, _ := rawID.(string)
	var found []*memDoc
	for _, d := range m.colls[coll] {
		if byID && d.id != wantID {
			continue
		}
		ok, err := matches(d.body, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, d)
		}
	}
	return found, nil
}

func (m *MemoryStore) bodies(coll Collection, exceptID string) []document {
	out := make([]document, 0, len(m.colls[coll]))
	for _, d := range m.colls[coll] {
		if d.id != exceptID {
			out = append(out, d.body)
		}
	}
	return out
}

func (m *MemoryStore) remove(coll Collection, drop map[*memDoc]bool) {
	kept := m.colls[coll][:0]
	for _, d := range m.colls[coll] {
		if !drop[d] {
			kept = append(kept, d)
		}
	}
	m.colls[coll] = kept
}

func cloneDocument(doc document) (document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("falha ao copiar documento: %w", err)
	}
	return parseDocument(raw)
}

func encodeThenDecode(doc document, out any) error {
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("falha ao codificar documento: %w", err)
	}
	return decodeInto(raw, out)
}
