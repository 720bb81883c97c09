package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ferreirogomes/eden/models"
	"github.com/ferreirogomes/eden/storage"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Registry cuida do cadastro de usuários, vendedores e locais.
type Registry struct {
	store  storage.Store
	ids    *IdentityAssigner
	logger *zap.Logger
	now    func() time.Time
}

// NewRegistry cria o registro de usuários, vendedores e locais.
func NewRegistry(store storage.Store, ids *IdentityAssigner, logger *zap.Logger) *Registry {
	return &Registry{store: store, ids: ids, logger: logger, now: time.Now}
}

// actorTarget devolve a coleção e o campo de ID público da variante do ator.
func actorTarget(ref models.ActorRef) (Kind, error) {
	switch ref.Kind {
	case models.UserActor:
		return UserKind, nil
	case models.VendorActor:
		return VendorKind, nil
	default:
		return Kind{}, &InvalidArgumentError{Msg: fmt.Sprintf("variante de ator desconhecida: %v", ref.Kind)}
	}
}

// actorIdentity lê só os IDs públicos de um documento de ator.
type actorIdentity struct {
	UserID   string `json:"user_id"`
	VendorID string `json:"vendor_id"`
}

// usernameOwner devolve o ID público de quem já usa username na coleção, ou "" se ninguém usa.
func (r *Registry) usernameOwner(ctx context.Context, kind Kind, username string) (string, error) {
	var owner actorIdentity
	err := r.store.FindOne(ctx, kind.Collection, storage.Filter{models.FieldUsername: username}, &owner)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		r.logger.Error("falha ao verificar username", zap.String("collection", string(kind.Collection)), zap.Error(err))
		return "", storeErr("verificar username", err)
	}
	if kind == UserKind {
		return owner.UserID, nil
	}
	return owner.VendorID, nil
}

// CreateUser cadastra um usuário. Username repetido entre usuários resulta em ConflictError.
func (r *Registry) CreateUser(ctx context.Context, walletAddress, username, hash string) (models.User, error) {
	var created models.User
	err := r.createActor(ctx, UserKind, username, models.NewUser(walletAddress, username, hash, r.now().UTC()), &created)
	return created, err
}

// CreateVendor cadastra um vendedor. O namespace de usernames é separado do de usuários.
func (r *Registry) CreateVendor(ctx context.Context, walletAddress, username, hash string) (models.Vendor, error) {
	var created models.Vendor
	err := r.createActor(ctx, VendorKind, username, models.NewVendor(walletAddress, username, hash, r.now().UTC()), &created)
	return created, err
}

func (r *Registry) createActor(ctx context.Context, kind Kind, username string, doc, out any) error {
	if username == "" {
		return &InvalidArgumentError{Msg: "username não pode ser vazio"}
	}
	owner, err := r.usernameOwner(ctx, kind, username)
	if err != nil {
		return err
	}
	if owner != "" {
		return &ConflictError{Msg: fmt.Sprintf("username %q já está em uso", username)}
	}

	internalID, err := r.store.InsertOne(ctx, kind.Collection, doc)
	if errors.Is(err, storage.ErrDuplicate) {
		// Outro cadastro venceu a corrida entre a verificação e a inserção.
		return &ConflictError{Msg: fmt.Sprintf("username %q já está em uso", username)}
	}
	if err != nil {
		r.logger.Error("falha ao inserir ator", zap.String("collection", string(kind.Collection)), zap.Error(err))
		return storeErr("inserir ator", err)
	}

	publicID, err := r.ids.Assign(ctx, kind, internalID, out)
	if err != nil {
		return err
	}
	r.logger.Info("ator criado", zap.String("id", publicID), zap.String("username", username))
	return nil
}

// GetUser busca um usuário pelo ID público.
func (r *Registry) GetUser(ctx context.Context, userID string) (models.User, bool, error) {
	var u models.User
	found, err := r.findOne(ctx, storage.Users, storage.Filter{models.FieldUserID: userID}, &u)
	return u, found, err
}

// GetVendor busca um vendedor pelo ID público.
func (r *Registry) GetVendor(ctx context.Context, vendorID string) (models.Vendor, bool, error) {
	var v models.Vendor
	found, err := r.findOne(ctx, storage.Vendors, storage.Filter{models.FieldVendorID: vendorID}, &v)
	return v, found, err
}

func (r *Registry) findOne(ctx context.Context, coll storage.Collection, filter storage.Filter, out any) (bool, error) {
	return findOne(ctx, r.store, r.logger, coll, filter, out)
}

// UpdateUsername troca o username, verificando antes a unicidade no namespace da variante.
func (r *Registry) UpdateUsername(ctx context.Context, ref models.ActorRef, newUsername string) error {
	kind, err := actorTarget(ref)
	if err != nil {
		return err
	}
	if newUsername == "" {
		return &InvalidArgumentError{Msg: "username não pode ser vazio"}
	}
	owner, err := r.usernameOwner(ctx, kind, newUsername)
	if err != nil {
		return err
	}
	if owner == ref.ID {
		return nil
	}
	if owner != "" {
		return &ConflictError{Msg: fmt.Sprintf("username %q já está em uso", newUsername)}
	}

	err = r.store.UpdateOne(ctx, kind.Collection,
		storage.Filter{kind.Field: ref.ID},
		storage.Update{Set: map[string]any{models.FieldUsername: newUsername}},
		nil,
	)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return &NotFoundError{Msg: fmt.Sprintf("%s não encontrado", ref)}
	case errors.Is(err, storage.ErrDuplicate):
		return &ConflictError{Msg: fmt.Sprintf("username %q já está em uso", newUsername)}
	case err != nil:
		r.logger.Error("falha ao atualizar username", zap.Stringer("actor", ref), zap.Error(err))
		return storeErr("atualizar username", err)
	}
	return nil
}

// UpdateWalletAddress troca a carteira sem nenhuma verificação adicional.
func (r *Registry) UpdateWalletAddress(ctx context.Context, ref models.ActorRef, walletAddress string) error {
	kind, err := actorTarget(ref)
	if err != nil {
		return err
	}
	err = r.store.UpdateOne(ctx, kind.Collection,
		storage.Filter{kind.Field: ref.ID},
		storage.Update{Set: map[string]any{models.FieldWalletAddress: walletAddress}},
		nil,
	)
	if errors.Is(err, storage.ErrNotFound) {
		return &NotFoundError{Msg: fmt.Sprintf("%s não encontrado", ref)}
	}
	if err != nil {
		r.logger.Error("falha ao atualizar carteira", zap.Stringer("actor", ref), zap.Error(err))
		return storeErr("atualizar carteira", err)
	}
	return nil
}

// DeleteUser remove o usuário. Devolve false se nada foi removido.
func (r *Registry) DeleteUser(ctx context.Context, userID string) (bool, error) {
	n, err := r.store.DeleteOne(ctx, storage.Users, storage.Filter{models.FieldUserID: userID})
	if err != nil {
		r.logger.Error("falha ao remover usuário", zap.String("user_id", userID), zap.Error(err))
		return false, storeErr("remover usuário", err)
	}
	return n == 1, nil
}

// DeleteVendor retira o vendedor de todos os seus locais e só então remove o documento.
// Se algum reparo falhar o vendedor é mantido, e a chamada pode ser repetida.
func (r *Registry) DeleteVendor(ctx context.Context, vendorID string) (bool, error) {
	vendor, found, err := r.GetVendor(ctx, vendorID)
	if err != nil || !found {
		return false, err
	}

	var g multierror.Group
	for _, locationID := range vendor.Locations {
		locationID := locationID
		g.Go(func() error {
			return r.detachVendor(ctx, locationID, vendorID)
		})
	}
	if err := g.Wait().ErrorOrNil(); err != nil {
		r.logger.Error("vendedor mantido: falha ao reparar locais",
			zap.String("vendor_id", vendorID), zap.Error(err))
		return false, storeErr("reparar locais do vendedor", err)
	}

	n, err := r.store.DeleteOne(ctx, storage.Vendors, storage.Filter{models.FieldVendorID: vendorID})
	if err != nil {
		r.logger.Error("falha ao remover vendedor", zap.String("vendor_id", vendorID), zap.Error(err))
		return false, storeErr("remover vendedor", err)
	}
	return n == 1, nil
}

// detachVendor tira vendorID da lista vendor_ids do local. Local inexistente não é erro.
func (r *Registry) detachVendor(ctx context.Context, locationID, vendorID string) error {
	err := r.store.UpdateOne(ctx, storage.Locations,
		storage.Filter{models.FieldLocationID: locationID},
		storage.Update{Pull: map[string]any{models.FieldVendorIDs: vendorID}},
		nil,
	)
	if errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn("local referenciado não existe", zap.String("location_id", locationID), zap.String("vendor_id", vendorID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("local %s: %w", locationID, err)
	}
	return nil
}

// findOne traduz ErrNotFound do store em found == false.
func findOne(ctx context.Context, store storage.Store, logger *zap.Logger, coll storage.Collection, filter storage.Filter, out any) (bool, error) {
	err := store.FindOne(ctx, coll, filter, out)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		logger.Error("falha ao buscar documento", zap.String("collection", string(coll)), zap.Error(err))
		return false, storeErr("buscar em "+string(coll), err)
	}
	return true, nil
}
