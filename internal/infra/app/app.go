package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/config"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/database"
	kafkainfra "github.com/GitHubKaan/gju-jobs-api/internal/infra/kafka"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/logger"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/mail"
	redisinfra "github.com/GitHubKaan/gju-jobs-api/internal/infra/redis"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/security"
	postgresrepo "github.com/GitHubKaan/gju-jobs-api/internal/repository/postgres"
	redisrepo "github.com/GitHubKaan/gju-jobs-api/internal/repository/redis"
	"github.com/GitHubKaan/gju-jobs-api/internal/transport/http/middleware"
	"github.com/GitHubKaan/gju-jobs-api/internal/transport/http/routes"
	"github.com/GitHubKaan/gju-jobs-api/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	sessions *usecase.SessionService
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	hasher := security.NewHasher(cfg.Hash.Key)

	keyring, err := security.NewKeyring(cfg.App.Name, map[domain.TokenPurpose]security.PurposeKey{
		domain.TokenPurposeAuth:     {Secret: []byte(cfg.Tokens.Auth.Secret), TTL: cfg.Tokens.Auth.TTL},
		domain.TokenPurposeAccess:   {Secret: []byte(cfg.Tokens.Access.Secret), TTL: cfg.Tokens.Access.TTL},
		domain.TokenPurposeRecovery: {Secret: []byte(cfg.Tokens.Recovery.Secret), TTL: cfg.Tokens.Recovery.TTL},
		domain.TokenPurposeDeletion: {Secret: []byte(cfg.Tokens.Deletion.Secret), TTL: cfg.Tokens.Deletion.TTL},
	})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init keyring: %w", err)
	}

	credentialOpts := postgresrepo.CredentialOptions{
		GenerateCode: func() (string, error) {
			return security.GenerateCode(cfg.Codes.Alphabet, cfg.Codes.Length)
		},
		MaxAttempts: cfg.Codes.MaxAttempts,
		// Codes older than the auth token are unusable anyway, the token
		// that carries them has expired.
		CodeTTL: cfg.Tokens.Auth.TTL,
	}

	stores := port.CredentialStoreSet{
		Student: postgresrepo.NewStudentCredentialRepository(pool, hasher, credentialOpts),
		Company: postgresrepo.NewCompanyCredentialRepository(pool, hasher, credentialOpts),
	}
	blacklist := postgresrepo.NewBlacklistRepository(pool, hasher)
	faultRepo := postgresrepo.NewFaultRepository(pool)

	var mailer port.Mailer
	if cfg.Mail.Enabled {
		mailer = mail.NewMailer(cfg.Mail, cfg.App.FrontendOrigin)
	} else {
		log.Info("mail delivery disabled, codes and links stay unsent")
	}

	var producer *kafkainfra.Producer
	var events port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			events = kafkainfra.NewStubPublisher(log)
		} else {
			events = kafkainfra.NewEventPublisher(producer, cfg.App)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		events = kafkainfra.NewStubPublisher(log)
	}

	faultService := usecase.NewFaultService(faultRepo)

	sessionService, err := usecase.NewSessionService(stores, blacklist, keyring, mailer, events, cfg.Cooldown.Window)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init session service: %w", err)
	}

	accountService, err := usecase.NewAccountService(stores, keyring, mailer, events)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init account service: %w", err)
	}

	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), cfg.Redis.RateLimitPrefix, cfg.RateLimit.WindowDuration)
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Keyring:     keyring,
		Stores:      stores,
		Ledger:      blacklist,
		RateLimiter: rateLimiter,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Accounts: accountService,
			Sessions: sessionService,
			Faults:   faultService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		sessions: sessionService,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		_ = a.redis.Close()
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go a.runBlacklistSweeper(sweepCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting jobs API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// runBlacklistSweeper prunes expired revocation entries on the configured
// interval. The interval exceeds every token TTL, so entries only leave the
// table after the token they trace could no longer verify.
func (a *Application) runBlacklistSweeper(ctx context.Context) {
	interval := a.cfg.Tokens.BlacklistSweepInterval
	if interval <= 0 {
		a.logger.Warn("blacklist sweeper disabled, interval not configured")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.sessions.SweepBlacklist(ctx)
			if err != nil {
				a.logger.Error("blacklist sweep failed", zap.Error(err))
				continue
			}
			a.logger.Info("blacklist sweep completed", zap.Int64("removed", removed))
		}
	}
}
