package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ferreirogomes/eden/config"
	"github.com/ferreirogomes/eden/handlers"
	"github.com/ferreirogomes/eden/services"
	"github.com/ferreirogomes/eden/storage"

	"github.com/urfave/cli"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type metadata struct {
	config *config.Config
	logger *zap.Logger
}

func main() {
	app := cli.NewApp()
	app.Name = "eden"
	app.Usage = "ledger de holdings, transações e anúncios do marketplace"
	app.HideVersion = true

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Value:  "",
			Usage:  "arquivo TOML de configuração `FILE`",
			EnvVar: "EDEN_CONFIG",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "abre o store configurado e serve a API HTTP",
			Action: runServe,
		},
		{
			Name:   "migrate",
			Usage:  "aplica as migrações (postgres) ou cria os índices (mongo)",
			Action: runMigrate,
		},
		{
			Name:  "flush",
			Usage: "remove usuários, vendedores, locais e transações",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "pass, p",
					Value: "",
					Usage: "senha de flush `PASS`",
				},
			},
			Action: runFlush,
		},
	}

	app.Before = func(c *cli.Context) error {
		cfg, err := config.Load(c.GlobalString("config"))
		if err != nil {
			return err
		}
		logger, err := cfg.NewLogger()
		if err != nil {
			return err
		}
		c.App.Metadata["config"] = &metadata{config: cfg, logger: logger}
		return nil
	}
	app.After = func(c *cli.Context) error {
		if m, ok := c.App.Metadata["config"].(*metadata); ok {
			_ = m.logger.Sync()
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "eden: %v\n", err)
		os.Exit(1)
	}
}

// openStore conecta ao backend configurado. Postgres aplica as migrações e Mongo
// cria os índices antes de devolver o store.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		return storage.NewDB(ctx, cfg.PostgresDSN, logger)
	case config.StoreMongo:
		return storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	case config.StoreMemory:
		logger.Warn("usando store em memória: os dados não sobrevivem ao processo")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("store desconhecido: %q", cfg.Store)
	}
}

func runServe(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)
	cfg, logger := m.config, m.logger

	ctx := context.Background()
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("falha ao abrir o store: %w", err)
	}
	defer store.Close(context.Background())

	ids := services.NewIdentityAssigner(store, logger)
	tokens := services.NewTokenizationService(store, ids, logger, cfg.TokenCacheTTL.Duration)
	router := handlers.NewRouter(handlers.Services{
		Registry: services.NewRegistry(store, ids, logger),
		Ledger:   services.NewLedger(store, ids, logger, cfg.HoldingsMaxRetries),
		Tokens:   tokens,
		Catalog:  services.NewCatalog(store, ids, tokens, logger),
	}, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("servidor HTTP iniciado", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)

		select {
		case s := <-sigs:
			logger.Info("sinal recebido, encerrando", zap.Stringer("signal", s))
		case <-gctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runMigrate(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)
	if m.config.Store == config.StoreMemory {
		m.logger.Info("store em memória não tem migrações")
		return nil
	}

	ctx := context.Background()
	store, err := openStore(ctx, m.config, m.logger)
	if err != nil {
		return fmt.Errorf("falha ao migrar: %w", err)
	}
	m.logger.Info("migrações aplicadas", zap.String("store", m.config.Store))
	return store.Close(ctx)
}

func runFlush(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	ctx := context.Background()
	store, err := openStore(ctx, m.config, m.logger)
	if err != nil {
		return fmt.Errorf("falha ao abrir o store: %w", err)
	}
	defer store.Close(ctx)

	removed, err := services.NewMaintenance(store, m.config.FlushPass, m.logger).FlushDatabase(ctx, c.String("pass"))
	for coll, n := range removed {
		m.logger.Info("documentos removidos", zap.String("collection", string(coll)), zap.Int64("count", n))
	}
	return err
}
