package models

import (
	"errors"
	"math"
)

// ErrHoldingOverflow indica que o delta levaria o saldo para fora do intervalo de int64.
var ErrHoldingOverflow = errors.New("saldo fora do intervalo de int64")

// Holding é o saldo de um ator para um token. O valor pode ficar negativo.
type Holding struct {
	TokenID string `json:"token_id"`
	Amount  int64  `json:"amount"`
}

// Holdings mantém no máximo uma entrada por tokenID.
type Holdings []Holding

// HoldingsView é a resposta de getHoldings para qualquer variante de ator.
type HoldingsView struct {
	ID       string   `json:"id"`
	Holdings Holdings `json:"holdings"`
}

// Find devolve a posição da entrada de tokenID.
func (h Holdings) Find(tokenID string) (int, bool) {
	for i := range h {
		if h[i].TokenID == tokenID {
			return i, true
		}
	}
	return -1, false
}

// AmountOf devolve o saldo de tokenID e se a entrada existe.
func (h Holdings) AmountOf(tokenID string) (int64, bool) {
	i, ok := h.Find(tokenID)
	if !ok {
		return 0, false
	}
	return h[i].Amount, true
}

// HasAtLeast indica se existe entrada para tokenID com saldo >= amount.
func (h Holdings) HasAtLeast(tokenID string, amount int64) bool {
	have, ok := h.AmountOf(tokenID)
	return ok && have >= amount
}

// Clone copia os holdings para que a alteração não afete o original.
func (h Holdings) Clone() Holdings {
	out := make(Holdings, len(h))
	copy(out, h)
	return out
}

// CheckAndUpdateHolding aplica um delta ao saldo de tokenID, criando a entrada
// com amount = delta quando o token ainda não existe. Não altera h. Devolve
// ErrHoldingOverflow se a soma não couber em int64.
func CheckAndUpdateHolding(h Holdings, tokenID string, delta int64) (Holdings, error) {
	out := h.Clone()
	if i, ok := out.Find(tokenID); ok {
		sum, ok := addAmount(out[i].Amount, delta)
		if !ok {
			return nil, ErrHoldingOverflow
		}
		out[i].Amount = sum
		return out, nil
	}
	return append(out, Holding{TokenID: tokenID, Amount: delta}), nil
}

func addAmount(a, delta int64) (int64, bool) {
	if delta > 0 && a > math.MaxInt64-delta {
		return 0, false
	}
	if delta < 0 && a < math.MinInt64-delta {
		return 0, false
	}
	return a + delta, true
}

// WithAmount define o saldo absoluto de um token existente. Se o token não
// estiver presente, devolve h sem mudanças e false.
func (h Holdings) WithAmount(tokenID string, amount int64) (Holdings, bool) {
	i, ok := h.Find(tokenID)
	if !ok {
		return h, false
	}
	out := h.Clone()
	out[i].Amount = amount
	return out, true
}
