package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"harvester/config"
	"harvester/internal/clients"
	"harvester/internal/encryptor"
	"harvester/internal/services/directory"
	"harvester/internal/services/evaluator"
	"harvester/internal/services/notifier"
	"harvester/internal/services/predictor"
	"harvester/internal/services/supervisor"
	"harvester/internal/services/trader"
	"harvester/internal/storage/journal"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Get()
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	decryptor, err := encryptor.New(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal("failed to initialize credential decryption", zap.Error(err))
	}

	dir, err := directory.NewFirebase(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseDatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to user directory", zap.Error(err))
	}

	orderJournal, err := journal.New(cfg.JournalDir)
	if err != nil {
		logger.Fatal("failed to open order journal", zap.Error(err))
	}
	defer orderJournal.Close()

	saleNotifier, err := notifier.New(logger, dir, cfg.NotificationFeed)
	if err != nil {
		logger.Fatal("failed to initialize notifier", zap.Error(err))
	}

	if !cfg.Live {
		logger.Info("dry-run mode, orders will be logged but not submitted")
	}

	newExchange := func(accessKey, secretKey string) evaluator.Exchange {
		return clients.NewFoxbit(accessKey, secretKey)
	}

	eval := evaluator.New(
		logger,
		dir,
		newExchange,
		clients.NewCoingecko(cfg.CoingeckoAPIKey),
		predictor.New(logger),
		trader.New(logger, cfg.Live, cfg.OrderDelay, orderJournal),
		saleNotifier,
		decryptor,
		evaluator.Config{
			QuoteCurrency:  cfg.QuoteCurrency,
			EnabledSymbols: cfg.EnabledSymbols,
			HistoryDays:    cfg.HistoryDays,
		},
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return supervisor.New(logger, eval, cfg.EvaluateInterval, cfg.BackoffInterval).Run(ctx)
	})

	logger.Info("started",
		zap.Duration("evaluate_interval", cfg.EvaluateInterval),
		zap.Bool("live", cfg.Live))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(err.Error())
	}
}
