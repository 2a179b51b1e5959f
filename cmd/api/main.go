package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gradevault.org/internal/audit"
	"gradevault.org/internal/auth"
	"gradevault.org/internal/authz"
	"gradevault.org/internal/config"
	"gradevault.org/internal/httpapi"
	"gradevault.org/internal/obs"
	"gradevault.org/internal/protect"
	"gradevault.org/internal/submission"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Without a DSN the server runs on in-memory stores, useful for local
	// development only.
	var db *sql.DB
	if cfg.DatabaseDSN != "" {
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	var (
		authStore auth.Store
		subStore  submission.Store
		sinkStore audit.Store
	)
	if db != nil {
		authStore = auth.NewPGStore(db)
		subStore = submission.NewPGStore(db)
		sinkStore = audit.NewPGStore(db)
	} else {
		log.Println("no database configured, using in-memory stores")
		authStore = auth.NewMemory()
		subStore = submission.NewMemory()
		sinkStore = audit.NewMemory()
	}

	sink := audit.NewLog(sinkStore)

	issuer, err := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	authSvc, err := auth.NewService(authStore, issuer, sink,
		auth.WithOTPTTL(cfg.OTPTTL),
		auth.WithLockout(cfg.LockoutThreshold, cfg.LockoutDuration),
		auth.WithCodeDelivery(func(accountID, code string) {
			// Delivery transport (mail, SMS) plugs in here. Logging the
			// passcode is for development setups only.
			if cfg.DatabaseDSN == "" {
				log.Printf("passcode for account %s: %s", accountID, code)
			}
		}),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	protector, err := protect.New(cfg.EncryptionKey, cfg.SigningKey)
	if err != nil {
		log.Fatalf("protector: %v", err)
	}
	subSvc, err := submission.NewService(subStore, protector, sink)
	if err != nil {
		log.Fatalf("submission service: %v", err)
	}

	api := httpapi.New(authSvc, subSvc, authz.NewEngine(authz.Default()), sink,
		httpapi.ReadyProbe{DB: db}, version)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting gradevault-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
