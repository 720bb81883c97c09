package handlers

import (
	"net/http"

	"github.com/ferreirogomes/eden/models"
	"github.com/ferreirogomes/eden/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services reúne os componentes servidos pela API.
type Services struct {
	Registry *services.Registry
	Ledger   *services.Ledger
	Tokens   *services.TokenizationService
	Catalog  *services.Catalog
}

// NewRouter monta as rotas /v1/database/... e /metrics.
func NewRouter(svc Services, logger *zap.Logger) http.Handler {
	userHandler := NewUserHandler(svc.Registry, logger)
	locationHandler := NewLocationHandler(svc.Registry, logger)
	txHandler := NewTransactionHandler(svc.Ledger, logger)
	tokenHandler := NewTokenHandler(svc.Tokens, logger)
	assetHandler := NewAssetHandler(svc.Catalog, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.URLFormat)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/database", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/create-user", userHandler.CreateUser)
			r.Post("/create-vendor", userHandler.CreateVendor)
			r.Get("/get-user/{id}", userHandler.GetUser)
			r.Patch("/update-username", userHandler.UpdateUsername)
			r.Patch("/update-wallet-address", userHandler.UpdateWalletAddress)
			r.Delete("/delete-user/{id}", userHandler.DeleteUser)

			r.Post("/create-location", locationHandler.CreateLocation)
			r.Post("/add-vendor-location", locationHandler.AddVendorLocation)
			r.Get("/get-location/{id}", locationHandler.GetLocation)
			r.Patch("/update-vendor-location", locationHandler.UpdateVendorLocation)
			r.Delete("/delete-location/{id}", locationHandler.DeleteLocation)

			r.Get("/get-holdings/{id}", txHandler.GetHoldings)
			r.Post("/add-holdings", txHandler.AddHoldings)
			r.Patch("/update-holdings", txHandler.UpdateHoldings)
			r.Patch("/update-user-holdings", txHandler.ApplyDelta(models.UserActor))
			r.Patch("/update-vendor-holdings", txHandler.ApplyDelta(models.VendorActor))
		})

		r.Route("/transaction", func(r chi.Router) {
			r.Post("/create-transaction", txHandler.CreateTransaction)
			r.Get("/get-transaction/{id}", txHandler.GetTransaction)
			r.Get("/ensure-funds/{id}", txHandler.EnsureFunds)
		})

		r.Route("/token", func(r chi.Router) {
			r.Post("/create-token", tokenHandler.CreateToken)
			r.Get("/get-token/{id}", tokenHandler.GetToken)
			r.Patch("/update-price-per-token", tokenHandler.UpdatePricePerToken)
			r.Delete("/delete-token/{id}", tokenHandler.DeleteToken)

			r.Post("/create-asset-listing", assetHandler.CreateAssetListing)
			r.Post("/create-token-listing", assetHandler.CreateTokenListing)
			r.Get("/get-asset-listing/{id}", assetHandler.GetAssetListing)
			r.Get("/get-token-listing/{id}", assetHandler.GetTokenListing)
			r.Patch("/update-asset-price", assetHandler.UpdateAssetPrice)
			r.Patch("/update-asset-description", assetHandler.UpdateAssetDescription)
			r.Patch("/record-asset-sale", assetHandler.RecordAssetSale)
			r.Delete("/delete-asset-listing/{id}", assetHandler.DeleteAssetListing)
			r.Delete("/delete-token-listing/{id}", assetHandler.DeleteTokenListing)
		})
	})

	return r
}
