package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ferreirogomes/eden/models"
	"github.com/ferreirogomes/eden/storage"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// CreateLocation cria um local operado pelos vendedores informados e adiciona o
// novo ID à lista locations de cada um deles.
func (r *Registry) CreateLocation(ctx context.Context, vendorIDs []string, address models.Address) (models.Location, error) {
	vendorIDs = dedupe(vendorIDs)
	for _, vendorID := range vendorIDs {
		_, found, err := r.GetVendor(ctx, vendorID)
		if err != nil {
			return models.Location{}, err
		}
		if !found {
			return models.Location{}, &NotFoundError{Msg: fmt.Sprintf("vendedor %s não encontrado", vendorID)}
		}
	}

	loc := models.Location{VendorIDs: vendorIDs, Address: address, CreatedAt: r.now().UTC()}
	internalID, err := r.store.InsertOne(ctx, storage.Locations, loc)
	if err != nil {
		r.logger.Error("falha ao inserir local", zap.Error(err))
		return models.Location{}, storeErr("inserir local", err)
	}
	var created models.Location
	locationID, err := r.ids.Assign(ctx, LocationKind, internalID, &created)
	if err != nil {
		return models.Location{}, err
	}

	var result *multierror.Error
	for _, vendorID := range vendorIDs {
		err := r.store.UpdateOne(ctx, storage.Vendors,
			storage.Filter{models.FieldVendorID: vendorID},
			storage.Update{AddToSet: map[string]any{models.FieldLocations: locationID}},
			nil,
		)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("vendedor %s: %w", vendorID, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		r.logger.Error("local criado, mas referências dos vendedores incompletas",
			zap.String("location_id", locationID), zap.Error(err))
		return created, storeErr("vincular local aos vendedores", err)
	}
	return created, nil
}

// AddVendorToLocation liga um vendedor a um local existente, nos dois sentidos.
func (r *Registry) AddVendorToLocation(ctx context.Context, locationID, vendorID string) error {
	_, found, err := r.GetVendor(ctx, vendorID)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Msg: fmt.Sprintf("vendedor %s não encontrado", vendorID)}
	}

	err = r.store.UpdateOne(ctx, storage.Locations,
		storage.Filter{models.FieldLocationID: locationID},
		storage.Update{AddToSet: map[string]any{models.FieldVendorIDs: vendorID}},
		nil,
	)
	if errors.Is(err, storage.ErrNotFound) {
		return &NotFoundError{Msg: fmt.Sprintf("local %s não encontrado", locationID)}
	}
	if err != nil {
		r.logger.Error("falha ao vincular vendedor ao local", zap.String("location_id", locationID), zap.Error(err))
		return storeErr("vincular vendedor ao local", err)
	}

	err = r.store.UpdateOne(ctx, storage.Vendors,
		storage.Filter{models.FieldVendorID: vendorID},
		storage.Update{AddToSet: map[string]any{models.FieldLocations: locationID}},
		nil,
	)
	if err != nil {
		r.logger.Error("falha ao registrar local no vendedor", zap.String("vendor_id", vendorID), zap.Error(err))
		return storeErr("registrar local no vendedor", err)
	}
	return nil
}

// GetLocation busca um local pelo ID público.
func (r *Registry) GetLocation(ctx context.Context, locationID string) (models.Location, bool, error) {
	var loc models.Location
	found, err := r.findOne(ctx, storage.Locations, storage.Filter{models.FieldLocationID: locationID}, &loc)
	return loc, found, err
}

// UpdateVendorLocation substitui o endereço do local.
func (r *Registry) UpdateVendorLocation(ctx context.Context, locationID string, address models.Address) (models.Location, error) {
	var updated models.Location
	err := r.store.UpdateOne(ctx, storage.Locations,
		storage.Filter{models.FieldLocationID: locationID},
		storage.Update{Set: map[string]any{
			"country":       address.Country,
			"city":          address.City,
			"street":        address.Street,
			"street_number": address.StreetNumber,
			"postal_code":   address.PostalCode,
		}},
		&updated,
	)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Location{}, &NotFoundError{Msg: fmt.Sprintf("local %s não encontrado", locationID)}
	}
	if err != nil {
		r.logger.Error("falha ao atualizar local", zap.String("location_id", locationID), zap.Error(err))
		return models.Location{}, storeErr("atualizar local", err)
	}
	return updated, nil
}

// DeleteLocation retira o local da lista de cada vendedor e depois remove o documento.
func (r *Registry) DeleteLocation(ctx context.Context, locationID string) (bool, error) {
	loc, found, err := r.GetLocation(ctx, locationID)
	if err != nil || !found {
		return false, err
	}

	var result *multierror.Error
	for _, vendorID := range loc.VendorIDs {
		err := r.store.UpdateOne(ctx, storage.Vendors,
			storage.Filter{models.FieldVendorID: vendorID},
			storage.Update{Pull: map[string]any{models.FieldLocations: locationID}},
			nil,
		)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			result = multierror.Append(result, fmt.Errorf("vendedor %s: %w", vendorID, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		r.logger.Error("local mantido: falha ao reparar vendedores", zap.String("location_id", locationID), zap.Error(err))
		return false, storeErr("reparar vendedores do local", err)
	}

	n, err := r.store.DeleteOne(ctx, storage.Locations, storage.Filter{models.FieldLocationID: locationID})
	if err != nil {
		r.logger.Error("falha ao remover local", zap.String("location_id", locationID), zap.Error(err))
		return false, storeErr("remover local", err)
	}
	return n == 1, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
