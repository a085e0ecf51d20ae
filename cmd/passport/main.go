package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/passport/internal/audit"
	"github.com/avoronov/passport/internal/config"
	"github.com/avoronov/passport/internal/db"
	"github.com/avoronov/passport/internal/events"
	"github.com/avoronov/passport/internal/httpserver"
	"github.com/avoronov/passport/internal/keys"
	"github.com/avoronov/passport/internal/logging"
	"github.com/avoronov/passport/internal/middleware"
	"github.com/avoronov/passport/internal/repo"
	"github.com/avoronov/passport/internal/seed"
	"github.com/avoronov/passport/internal/service"
	"github.com/avoronov/passport/internal/tokens"
	"github.com/avoronov/passport/internal/verification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	keyPair, err := keys.LoadOrGenerate(cfg.PrivateKeyPEM)
	if err != nil {
		log.Fatalf("key init error: %v", err)
	}

	gormRepo := repo.New(gdb)

	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = seed.Run(seedCtx, gormRepo, seed.Admin{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}, logger)
	cancel()
	if err != nil {
		log.Fatalf("seed error: %v", err)
	}

	var producer *events.Producer
	if cfg.KafkaAddress != "" {
		producer = events.NewProducer(strings.Split(cfg.KafkaAddress, ","))
		defer producer.Close()
	}

	var trail *audit.Trail
	if cfg.ESURL != "" {
		esClient, err := audit.NewClient(audit.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
		}, logger)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		trail = &audit.Trail{ES: esClient}
	}

	signer := tokens.NewSigner(keyPair, cfg.AccessTTL, cfg.RefreshTTL)

	sessions := &service.SessionManager{
		Repo:     gormRepo,
		Signer:   signer,
		Producer: producer,
		Audit:    trail,
	}
	authorizer := &service.Authorizer{Repo: gormRepo}
	userSvc := &service.UserService{
		Repo:         gormRepo,
		Sessions:     sessions,
		Verification: &verification.Service{Repo: gormRepo, Producer: producer},
		Producer:     producer,
	}
	roleSvc := &service.RoleService{Repo: gormRepo}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(middleware.RequestLogger(logger))

	deps := &httpserver.Deps{
		Auth:   &httpserver.AuthHTTP{Sessions: sessions, Users: userSvc, Keys: keyPair},
		Users:  &httpserver.UserHTTP{Users: userSvc, Sessions: sessions},
		Roles:  &httpserver.RoleHTTP{Roles: roleSvc},
		AuthMW: &middleware.Auth{Sessions: sessions, Authorizer: authorizer},
	}
	if trail != nil {
		deps.Audit = &httpserver.AuditHTTP{Trail: trail}
	}
	httpserver.Register(e, deps)

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
