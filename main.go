package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hpmalinova/monifly/config"
	"github.com/hpmalinova/monifly/contract"
	"github.com/hpmalinova/monifly/events"
	"github.com/hpmalinova/monifly/limiter"
	"github.com/hpmalinova/monifly/logger"
	"github.com/hpmalinova/monifly/memstore"
	"github.com/hpmalinova/monifly/realtime"
	"github.com/hpmalinova/monifly/repository"
	"github.com/hpmalinova/monifly/rest"
	"github.com/hpmalinova/monifly/session"
)

func main() {
	cfg := config.MustLoad()
	if err := logger.Init(cfg.LogDev, logger.LogLevel(cfg.LogLevel)); err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	log := logger.Get()
	defer func() { _ = logger.Sync() }()

	log.Info("Starting monifly ...", zap.String("driver", cfg.StoreDriver))
	if err := run(cfg, log); err != nil {
		log.Error("monifly stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, tokens, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	bus := events.NewBus()
	hub := realtime.NewHub(log.Named("realtime"))
	hub.Start(ctx)

	deps.Auth = session.NewProvider(deps.Users, deps.Profiles, tokens, bus, cfg.StoreKey, cfg.StoreURL,
		session.WithMailer(session.LogMailer{Log: log.Named("mail")}),
		session.WithLogger(log.Named("auth")))
	deps.Bus = bus
	deps.Hub = hub
	deps.Log = log
	deps.SiteURL = cfg.SiteURL
	deps.TrustProxy = cfg.TrustProxy
	deps.Location = cfg.Timezone

	if cfg.StateFile != "" {
		state, err := limiter.OpenFileStorage(cfg.StateFile, log.Named("state"))
		if err != nil {
			return err
		}
		defer func() {
			if err := state.Flush(); err != nil {
				log.Warn("flush client state", zap.Error(err))
			}
		}()
		deps.State = state
	}

	a := rest.App{}
	if err := a.Init(deps); err != nil {
		return err
	}
	defer a.Close()

	if cfg.SeedDemo {
		if err := a.AddData(ctx); err != nil {
			return err
		}
	}
	return a.Run(ctx, cfg.HTTPAddr)
}

// openStore wires the repositories of the configured driver.
func openStore(ctx context.Context, cfg config.Config) (rest.Deps, contract.TokenRepo, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		mem := memstore.New()
		return rest.Deps{
			Users:        mem.Users(),
			Profiles:     mem.Profiles(),
			Categories:   mem.Categories(),
			Transactions: mem.Transactions(),
			Debts:        mem.Debts(),
			Goals:        mem.Goals(),
		}, mem.Tokens(), func() {}, nil
	}

	store, err := repository.Open(cfg.StoreDriver, cfg.StoreURL, cfg.StoreTimeout)
	if err != nil {
		return rest.Deps{}, nil, nil, err
	}
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return rest.Deps{}, nil, nil, fmt.Errorf("ping store: %w", err)
	}
	return rest.Deps{
		Users:        repository.NewUserRepo(store),
		Profiles:     repository.NewProfileRepo(store),
		Categories:   repository.NewCategoryRepo(store),
		Transactions: repository.NewTransactionRepo(store),
		Debts:        repository.NewDebtRepo(store),
		Goals:        repository.NewGoalRepo(store),
	}, repository.NewTokenRepo(store), func() { _ = store.Close() }, nil
}
