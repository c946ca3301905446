package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pay-seva/sms-payment-processor/internal/adapter/http/controller"
	"github.com/pay-seva/sms-payment-processor/internal/adapter/http/middleware"
	"github.com/pay-seva/sms-payment-processor/internal/adapter/http/router"
	"github.com/pay-seva/sms-payment-processor/internal/adapter/notify"
	"github.com/pay-seva/sms-payment-processor/internal/adapter/repository/postgres"
	"github.com/pay-seva/sms-payment-processor/internal/config"
	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/pay-seva/sms-payment-processor/internal/replay"
	"github.com/pay-seva/sms-payment-processor/internal/usecase/services"
	"github.com/pay-seva/sms-payment-processor/internal/wire"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := postgres.RunMigrations(startupCtx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	db, err := postgres.Open(startupCtx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	codec, err := wire.NewCodec(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("init codec: %v", err)
	}
	authenticator, err := wire.NewAuthenticator(cfg.MacKey)
	if err != nil {
		log.Fatalf("init authenticator: %v", err)
	}
	guard := replay.NewMemoryGuard()

	userRepo := postgres.NewUserRepository(db)
	txRepo := postgres.NewTransactionRepository(db)
	attemptRepo := postgres.NewFailedAttemptRepository(db)

	var notifier domain.Notifier = notify.NewLogNotifier()
	if cfg.SmsAuthKey != "" {
		notifier = notify.NewSMSNotifier(cfg.SmsAuthKey, cfg.SmsTemplateID, cfg.SmsSenderID)
	}

	transactionService := services.NewTransactionService(txRepo, userRepo, attemptRepo, notifier)
	ingestService := services.NewIngestService(codec, authenticator, guard, transactionService)
	userService := services.NewUserService(userRepo, txRepo, attemptRepo)
	securityService := services.NewSecurityService(attemptRepo)

	authMiddleware := middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKey)
	mux := router.New(
		authMiddleware,
		controller.NewUserController(userService),
		controller.NewTransactionController(transactionService, ingestService),
		controller.NewSMSController(ingestService),
		controller.NewSecurityController(securityService),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Failed-attempt rows older than 30 days carry no audit value.
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				threshold := time.Now().UTC().Add(-30 * 24 * time.Hour)
				if err := securityService.CleanupOldFailedAttempts(gctx, threshold); err != nil {
					log.Printf("cleanup failed attempts: %v", err)
				}
			}
		}
	})
	g.Go(func() error {
		log.Printf("listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
