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

// DefaultHoldingsMaxRetries limita as tentativas de compare-and-swap sobre holdings.
const DefaultHoldingsMaxRetries = 5

// Ledger mantém os saldos de tokens dos atores e registra as transações entre eles.
//
// Toda escrita em holdings é condicionada ao holdings_version lido (compare-and-swap).
// Se outro escritor alterou o documento no meio tempo, a operação relê e tenta de novo.
type Ledger struct {
	store      storage.Store
	ids        *IdentityAssigner
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewLedger cria o ledger; maxRetries limita as tentativas de compare-and-swap.
func NewLedger(store storage.Store, ids *IdentityAssigner, logger *zap.Logger, maxRetries int) *Ledger {
	if maxRetries <= 0 {
		maxRetries = DefaultHoldingsMaxRetries
	}
	return &Ledger{store: store, ids: ids, logger: logger, maxRetries: maxRetries, now: time.Now}
}

// actorState é a parte de um documento de ator que o ledger lê e escreve.
type actorState struct {
	Holdings           models.Holdings `json:"holdings"`
	HoldingsVersion    int64           `json:"holdings_version"`
	TransactionHistory []string        `json:"transaction_history"`
}

func (l *Ledger) loadActor(ctx context.Context, ref models.ActorRef) (actorState, bool, error) {
	kind, err := actorTarget(ref)
	if err != nil {
		return actorState{}, false, err
	}
	var st actorState
	found, err := findOne(ctx, l.store, l.logger, kind.Collection, storage.Filter{kind.Field: ref.ID}, &st)
	return st, found, err
}

// holdingsChange recebe o saldo atual e devolve o novo, ou changed == false para não gravar nada.
type holdingsChange func(current models.Holdings) (next models.Holdings, changed bool, err error)

// mutateHoldings aplica change com compare-and-swap sobre holdings_version.
func (l *Ledger) mutateHoldings(ctx context.Context, ref models.ActorRef, change holdingsChange) (models.Holdings, bool, error) {
	kind, err := actorTarget(ref)
	if err != nil {
		return nil, false, err
	}

	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		st, found, err := l.loadActor(ctx, ref)
		if err != nil {
			return nil, false, err
		}
		if !found {
			return nil, false, &NotFoundError{Msg: fmt.Sprintf("%s não encontrado", ref)}
		}

		next, changed, err := change(st.Holdings)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return st.Holdings, false, nil
		}

		err = l.store.UpdateOne(ctx, kind.Collection,
			storage.Filter{kind.Field: ref.ID, models.FieldHoldingsVersion: st.HoldingsVersion},
			storage.Update{
				Set: map[string]any{models.FieldHoldings: next},
				Inc: map[string]int64{models.FieldHoldingsVersion: 1},
			},
			nil,
		)
		if errors.Is(err, storage.ErrNotFound) {
			holdingsConflictsTotal.Inc()
			l.logger.Debug("holdings alterados por outro escritor, relendo",
				zap.Stringer("actor", ref), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			l.logger.Error("falha ao gravar holdings", zap.Stringer("actor", ref), zap.Error(err))
			return nil, false, storeErr("gravar holdings", err)
		}
		return next, true, nil
	}

	l.logger.Warn("desistindo após conflitos sucessivos de holdings",
		zap.Stringer("actor", ref), zap.Int("attempts", l.maxRetries))
	return nil, false, &ConflictError{Msg: fmt.Sprintf("holdings de %s alterados concorrentemente", ref)}
}

// AddHolding acrescenta o par (tokenID, amount). Um par idêntico já presente não muda
// nada; um valor diferente para um token já presente é recusado, pois cada token tem
// uma única entrada. Para alterar o saldo use UpdateHolding ou ApplyHoldingDelta.
func (l *Ledger) AddHolding(ctx context.Context, ref models.ActorRef, tokenID string, amount int64) (bool, error) {
	if tokenID == "" {
		return false, &InvalidArgumentError{Msg: "tokenID não pode ser vazio"}
	}
	_, added, err := l.mutateHoldings(ctx, ref, func(cur models.Holdings) (models.Holdings, bool, error) {
		have, ok := cur.AmountOf(tokenID)
		switch {
		case ok && have == amount:
			return cur, false, nil
		case ok:
			return nil, false, &ConflictError{Msg: fmt.Sprintf("%s já possui saldo de %s", ref, tokenID)}
		}
		next := cur.Clone()
		return append(next, models.Holding{TokenID: tokenID, Amount: amount}), true, nil
	})
	return added, err
}

// UpdateHolding define o saldo absoluto de um token que o ator já possui. Se o token
// não estiver nos holdings nada muda e updated é false.
func (l *Ledger) UpdateHolding(ctx context.Context, ref models.ActorRef, tokenID string, newAmount int64) (bool, error) {
	_, updated, err := l.mutateHoldings(ctx, ref, func(cur models.Holdings) (models.Holdings, bool, error) {
		next, ok := cur.WithAmount(tokenID, newAmount)
		return next, ok, nil
	})
	if err == nil && !updated {
		l.logger.Debug("updateHolding sem efeito", zap.Stringer("actor", ref), zap.String("token_id", tokenID))
	}
	return updated, err
}

// ApplyHoldingDelta soma delta ao saldo de tokenID, criando a entrada se preciso.
func (l *Ledger) ApplyHoldingDelta(ctx context.Context, ref models.ActorRef, tokenID string, delta int64) (models.Holdings, error) {
	next, _, err := l.mutateHoldings(ctx, ref, func(cur models.Holdings) (models.Holdings, bool, error) {
		return applyDelta(ref, cur, tokenID, delta)
	})
	return next, err
}

// applyDelta recusa deltas que estourariam o saldo, sem gravar nada.
func applyDelta(ref models.ActorRef, cur models.Holdings, tokenID string, delta int64) (models.Holdings, bool, error) {
	next, err := models.CheckAndUpdateHolding(cur, tokenID, delta)
	if err != nil {
		return nil, false, &InvalidArgumentError{Msg: fmt.Sprintf("delta %d em %s de %s: %v", delta, tokenID, ref, err)}
	}
	return next, true, nil
}

// EnsureFunds indica se o ator tem pelo menos amount de tokenID. Ator inexistente não tem fundos.
func (l *Ledger) EnsureFunds(ctx context.Context, ref models.ActorRef, tokenID string, amount int64) (bool, error) {
	st, found, err := l.loadActor(ctx, ref)
	if err != nil || !found {
		return false, err
	}
	return st.Holdings.HasAtLeast(tokenID, amount), nil
}

// GetHoldings devolve {id, holdings} de qualquer variante.
func (l *Ledger) GetHoldings(ctx context.Context, ref models.ActorRef) (models.HoldingsView, bool, error) {
	st, found, err := l.loadActor(ctx, ref)
	if err != nil || !found {
		return models.HoldingsView{}, found, err
	}
	h := st.Holdings
	if h == nil {
		h = models.Holdings{}
	}
	return models.HoldingsView{ID: ref.ID, Holdings: h}, true, nil
}

// GetTransaction busca uma transação pelo ID público.
func (l *Ledger) GetTransaction(ctx context.Context, transactionID string) (models.Transaction, bool, error) {
	var tx models.Transaction
	found, err := findOne(ctx, l.store, l.logger, storage.Transactions,
		storage.Filter{models.FieldTransactionID: transactionID}, &tx)
	return tx, found, err
}

// TransactionRequest descreve uma compra de TokensPurchased unidades de TokenID,
// vendidas por VendorID a Buyer.
type TransactionRequest struct {
	Buyer             models.ActorRef
	VendorID          string
	TokenID           string
	TokensPurchased   int64
	TransactionValue  decimal.Decimal
	CurrencyPayedWith string
	AmountPayed       decimal.Decimal
}

// CreateTransaction transfere TokensPurchased do vendedor para o comprador e registra
// a transação no histórico dos dois. Sem saldo suficiente no vendedor devolve
// InsufficientFundsError sem alterar nada. Se uma etapa posterior falhar, as etapas
// já concluídas são desfeitas em ordem inversa.
func (l *Ledger) CreateTransaction(ctx context.Context, req TransactionRequest) (models.Transaction, error) {
	tx, err := l.createTransaction(ctx, req)
	switch {
	case err == nil:
		transactionsTotal.WithLabelValues(outcomeCreated).Inc()
	case errors.Is(err, &InsufficientFundsError{}):
		transactionsTotal.WithLabelValues(outcomeInsufficientFunds).Inc()
	case errors.Is(err, &InvalidArgumentError{}), errors.Is(err, &NotFoundError{}):
		transactionsTotal.WithLabelValues(outcomeRejected).Inc()
	default:
		transactionsTotal.WithLabelValues(outcomeRolledBack).Inc()
	}
	return tx, err
}

func (l *Ledger) createTransaction(ctx context.Context, req TransactionRequest) (models.Transaction, error) {
	vendor := models.VendorRef(req.VendorID)
	buyerKind, err := actorTarget(req.Buyer)
	if err != nil {
		return models.Transaction{}, err
	}
	if req.TokensPurchased <= 0 {
		return models.Transaction{}, &InvalidArgumentError{Msg: "tokensPurchased deve ser positivo"}
	}
	if req.TokenID == "" {
		return models.Transaction{}, &InvalidArgumentError{Msg: "tokenID não pode ser vazio"}
	}
	if req.Buyer == vendor {
		return models.Transaction{}, &InvalidArgumentError{Msg: "comprador e vendedor não podem ser o mesmo ator"}
	}

	if _, found, err := l.loadActor(ctx, req.Buyer); err != nil {
		return models.Transaction{}, err
	} else if !found {
		return models.Transaction{}, &NotFoundError{Msg: fmt.Sprintf("comprador %s não encontrado", req.Buyer)}
	}
	if _, found, err := l.loadActor(ctx, vendor); err != nil {
		return models.Transaction{}, err
	} else if !found {
		return models.Transaction{}, &NotFoundError{Msg: fmt.Sprintf("vendedor %s não encontrado", req.VendorID)}
	}

	ok, err := l.EnsureFunds(ctx, vendor, req.TokenID, req.TokensPurchased)
	if err != nil {
		return models.Transaction{}, err
	}
	if !ok {
		return models.Transaction{}, insufficientFunds(req)
	}

	s := newSaga("createTransaction", l.logger)

	// Débito do vendedor: a verificação de saldo é refeita dentro do compare-and-swap.
	_, _, err = l.mutateHoldings(ctx, vendor, func(cur models.Holdings) (models.Holdings, bool, error) {
		if !cur.HasAtLeast(req.TokenID, req.TokensPurchased) {
			return nil, false, insufficientFunds(req)
		}
		return applyDelta(vendor, cur, req.TokenID, -req.TokensPurchased)
	})
	if err != nil {
		return models.Transaction{}, s.fail(ctx, "debitar vendedor", err)
	}
	s.done("debitar vendedor", func(ctx context.Context) error {
		_, err := l.ApplyHoldingDelta(ctx, vendor, req.TokenID, req.TokensPurchased)
		return err
	})

	doc := models.Transaction{
		BuyerID:           req.Buyer.ID,
		VendorID:          req.VendorID,
		TokenID:           req.TokenID,
		TokensPurchased:   req.TokensPurchased,
		TransactionValue:  req.TransactionValue,
		CurrencyPayedWith: req.CurrencyPayedWith,
		AmountPayed:       req.AmountPayed,
		CreatedAt:         l.now().UTC(),
	}
	internalID, err := l.store.InsertOne(ctx, storage.Transactions, doc)
	if err != nil {
		return models.Transaction{}, s.fail(ctx, "inserir transação", storeErr("inserir transação", err))
	}
	s.done("inserir transação", func(ctx context.Context) error {
		_, err := l.store.DeleteOne(ctx, storage.Transactions, storage.Filter{storage.InternalIDKey: internalID})
		return err
	})

	var created models.Transaction
	txID, err := l.ids.Assign(ctx, TransactionKind, internalID, &created)
	if err != nil {
		return models.Transaction{}, s.fail(ctx, "atribuir ID da transação", err)
	}

	for _, party := range []struct {
		step string
		kind Kind
		id   string
	}{
		{"histórico do comprador", buyerKind, req.Buyer.ID},
		{"histórico do vendedor", VendorKind, req.VendorID},
	} {
		party := party
		err := l.store.UpdateOne(ctx, party.kind.Collection,
			storage.Filter{party.kind.Field: party.id},
			storage.Update{AddToSet: map[string]any{models.FieldTransactionHistory: txID}},
			nil,
		)
		if err != nil {
			return models.Transaction{}, s.fail(ctx, party.step, storeErr("registrar "+party.step, err))
		}
		s.done(party.step, func(ctx context.Context) error {
			return l.store.UpdateOne(ctx, party.kind.Collection,
				storage.Filter{party.kind.Field: party.id},
				storage.Update{Pull: map[string]any{models.FieldTransactionHistory: txID}},
				nil,
			)
		})
	}

	if _, err := l.ApplyHoldingDelta(ctx, req.Buyer, req.TokenID, req.TokensPurchased); err != nil {
		return models.Transaction{}, s.fail(ctx, "creditar comprador", err)
	}

	l.logger.Info("transação criada",
		zap.String("transaction_id", txID),
		zap.Stringer("buyer", req.Buyer),
		zap.String("vendor_id", req.VendorID),
		zap.String("token_id", req.TokenID),
		zap.Int64("tokens_purchased", req.TokensPurchased),
	)
	return created, nil
}

func insufficientFunds(req TransactionRequest) error {
	return &InsufficientFundsError{Msg: fmt.Sprintf("vendedor %s não possui %d de %s", req.VendorID, req.TokensPurchased, req.TokenID)}
}
