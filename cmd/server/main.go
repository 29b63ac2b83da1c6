package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/hospital-portal/internal/config"
	"github.com/iliyamo/hospital-portal/internal/database"
	"github.com/iliyamo/hospital-portal/internal/handler"
	"github.com/iliyamo/hospital-portal/internal/logging"
	"github.com/iliyamo/hospital-portal/internal/mail"
	"github.com/iliyamo/hospital-portal/internal/metrics"
	"github.com/iliyamo/hospital-portal/internal/middleware"
	"github.com/iliyamo/hospital-portal/internal/predict"
	"github.com/iliyamo/hospital-portal/internal/queue"
	"github.com/iliyamo/hospital-portal/internal/repository"
	"github.com/iliyamo/hospital-portal/internal/router"
	"github.com/iliyamo/hospital-portal/internal/service"
	"github.com/iliyamo/hospital-portal/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "prod", "error").Error("config", "err", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Error("database connect failed", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		log.Error("database migrate failed", "err", err)
		os.Exit(1)
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unreachable; rate limiting and response cache disabled", "addr", cfg.Redis.Addr)
	} else {
		defer rdb.Close()
	}

	resets, err := token.NewResetIssuer(cfg.JWTSecret, cfg.ResetSalt, cfg.ResetMaxAge)
	if err != nil {
		log.Error("reset issuer", "err", err)
		os.Exit(1)
	}
	mailer, err := mail.New(cfg.Mail, log)
	if err != nil {
		log.Error("mailer", "err", err)
		os.Exit(1)
	}
	pred, err := predict.Load(cfg.ModelBasePath)
	if err != nil {
		log.Error("prediction model load failed", "path", cfg.ModelBasePath, "err", err)
		os.Exit(1)
	}

	users := repository.NewUserRepo(db)
	svc := &service.AuthService{
		Users:       users,
		Sessions:    token.NewIssuer(cfg.JWTSecret, cfg.AccessTTL),
		Resets:      resets,
		Mailer:      mailer,
		BcryptCost:  cfg.BcryptCost,
		PhoneRegion: cfg.PhoneRegion,
		FrontendURL: cfg.FrontendURL,
		Log:         log,
	}
	if cfg.ResetSingleUse {
		if rdb == nil {
			log.Error("RESET_SINGLE_USE needs a reachable redis")
			os.Exit(1)
		}
		svc.Guard = service.NewRedisResetGuard(rdb)
	}

	m := metrics.New()
	cache := middleware.NewResponseCache(cfg.Cache, rdb, log)
	e := router.New(router.Deps{
		Cfg:            cfg,
		DB:             db,
		Redis:          rdb,
		Log:            log,
		Metrics:        m,
		Auth:           svc,
		Cache:          cache,
		AuthHandler:    handler.NewAuthHandler(svc, cfg.CookieSecure, cache, m, log),
		UserHandler:    handler.NewUserHandler(users, cache, log),
		PredictHandler: handler.NewPredictHandler(pred, repository.NewMedicalRecordRepo(db), m, log),
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Mail.Transport == "queue" {
		smtp := mail.NewSMTP(cfg.Mail)
		consumer := queue.NewConsumer(cfg.Mail.AMQPURL, cfg.Mail.Queue, smtp.HandleResetEvent, log)
		go func() {
			if err := consumer.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("reset consumer stopped", "err", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("listening", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen failed", "err", err)
			os.Exit(1)
		}
	}()

	<-stop
	log.Info("shutting down")
	workerCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "err", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("stopped")
}
