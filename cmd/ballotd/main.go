package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quorumsoft/ballotd/internal/ballot/service"
	sqlitestore "github.com/quorumsoft/ballotd/internal/ballot/store/sqlite"
	"github.com/quorumsoft/ballotd/internal/config"
	"github.com/quorumsoft/ballotd/internal/db"
	"github.com/quorumsoft/ballotd/internal/httpapi"
	"github.com/quorumsoft/ballotd/internal/secrets"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "ballotd ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{}); err != nil {
			logger.Fatalf("seed dev: %v", err)
		}
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	// Stores
	electionStore := sqlitestore.NewElectionStore(conn, writer)
	tokenStore := sqlitestore.NewTokenStore(conn, writer)
	tallyStore := sqlitestore.NewTallyStore(conn)
	auditStore := sqlitestore.NewAuditStore(writer)
	submissionStore := sqlitestore.NewSubmissionStore(writer)

	// Secrets
	if cfg.MasterSecret == "" {
		logger.Fatal("BALLOTD_MASTER_SECRET is required outside dev")
	}
	resolver, err := secrets.NewDerivedResolver(cfg.MasterSecret, nil)
	if err != nil {
		logger.Fatalf("secrets resolver: %v", err)
	}

	// Services
	registry := service.NewElectionRegistry(electionStore)
	saltCache := service.NewSaltCache(resolver, service.SaltCacheConfig{
		TTL:           time.Duration(cfg.SaltCacheTTLSeconds) * time.Second,
		SweepInterval: time.Duration(cfg.SaltSweepIntervalSecs) * time.Second,
	}, logger)
	saltCache.Start(ctx)
	defer saltCache.Stop()

	tokenSvc := service.NewTokenService(tokenStore, auditStore, logger)
	submitSvc := service.NewSubmitService(submissionStore, registry, saltCache, logger)
	tallySvc := service.NewTallyService(tallyStore, registry, logger)
	electionSvc := service.NewElectionService(electionStore, auditStore, logger)

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:          logger,
		Addr:            cfg.HTTPAddr,
		TokenService:    tokenSvc,
		SubmitService:   submitSvc,
		TallyService:    tallySvc,
		ElectionService: electionSvc,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
