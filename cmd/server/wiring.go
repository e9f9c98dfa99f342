package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certifier/internal/audit"
	"certifier/internal/ledger"
	"certifier/internal/ledger/memledger"
	"certifier/internal/ledger/wallet"
	"certifier/internal/platform/config"
	"certifier/internal/platform/database"
	"certifier/internal/platform/health"
	"certifier/internal/platform/kafka"
	"certifier/internal/platform/kafka/producer"
	"certifier/internal/platform/redis"
	"certifier/internal/platform/tracer"
	"certifier/internal/revocation/commitment"
	"certifier/internal/revocation/handler"
	"certifier/internal/revocation/metrics"
	"certifier/internal/revocation/models"
	"certifier/internal/revocation/orphans"
	"certifier/internal/revocation/service"
	"certifier/internal/revocation/store"
	"certifier/internal/signer/jwtsigner"
	"certifier/pkg/platform/middleware/request"
	"certifier/pkg/validation"
)

// app holds everything main starts and later closes.
type app struct {
	router    chi.Router
	reclaimer *orphans.Reclaimer
	redis     *redis.Client
	auditSink string
	closers   []func() error
	log       *slog.Logger
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{log: log}
	m := metrics.New()
	healthHandler := health.New(cfg.Environment)

	publisher, err := a.buildAudit(ctx, cfg, log, healthHandler)
	if err != nil {
		a.close()
		return nil, err
	}

	secretsBackend, orphanBackend, err := a.buildBackends(ctx, cfg, healthHandler)
	if err != nil {
		a.close()
		return nil, err
	}

	storeOpts := func(name string) []store.Option {
		return []store.Option{
			store.WithName(name),
			store.WithCorruptionPolicy(store.ParseCorruptionPolicy(cfg.Store.CorruptionPolicy)),
			store.WithLogger(log),
			store.WithMetrics(m),
			store.WithCorruptionHandler(service.CorruptionAuditor(publisher, log)),
		}
	}
	secrets := store.New[models.Mapping](secretsBackend, storeOpts("secrets")...)
	orphanStore := store.New[models.OrphanMapping](orphanBackend, storeOpts("orphans")...)

	l, err := buildLedger(cfg, log)
	if err != nil {
		a.close()
		return nil, err
	}
	issuer := commitment.New(l, commitment.WithLogger(log), commitment.WithMetrics(m))

	sgn, err := jwtsigner.New(cfg.Signer.SigningKey, cfg.Signer.CertifierID)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create signer: %w", err)
	}

	tracker := orphans.NewTracker(orphanStore,
		orphans.WithTrackerLogger(log),
		orphans.WithTrackerMetrics(m),
		orphans.WithTrackerAudit(publisher),
	)
	a.reclaimer, err = orphans.NewReclaimer(tracker, issuer,
		orphans.WithInterval(cfg.Orphans.ReclaimInterval),
		orphans.WithMaxAttempts(cfg.Orphans.MaxAttempts),
		orphans.WithLogger(log),
		orphans.WithMetrics(m),
		orphans.WithAudit(publisher),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	svc, err := service.New(secrets, issuer, sgn,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(publisher),
		service.WithOrphanRecorder(tracker),
		service.WithTracer(tracer.NewOTel()),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	a.router, err = buildRouter(cfg, log, handler.New(svc, log), healthHandler)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// buildAudit publishes to Kafka when brokers are configured, otherwise to
// the log. The publisher is closed before the producer so buffered events drain.
func (a *app) buildAudit(ctx context.Context, cfg config.Config, log *slog.Logger, h *health.Handler) (*audit.Publisher, error) {
	if cfg.Kafka.Brokers == "" {
		a.auditSink = "log"
		publisher := audit.NewPublisher(audit.NewLogStore(log))
		return publisher, nil
	}

	prod, err := producer.New(producer.Config{
		Brokers:         cfg.Kafka.Brokers,
		ClientID:        cfg.Signer.CertifierID,
		Acks:            cfg.Kafka.Acks,
		Retries:         cfg.Kafka.Retries,
		DeliveryTimeout: cfg.Kafka.Timeout,
	}, producer.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("create audit producer: %w", err)
	}
	a.closers = append(a.closers, prod.Close)

	if err := kafka.EnsureTopic(ctx, prod.Client(), cfg.Kafka.AuditTopic, 1, -1); err != nil {
		log.WarnContext(ctx, "audit topic not created; relying on broker auto-creation",
			"topic", cfg.Kafka.AuditTopic,
			"error", err,
		)
	}
	checker := kafka.NewHealthChecker(prod.Client(), cfg.Kafka.AuditTopic)
	h.RegisterCheck(checker.Name(), checker.Check)

	publisher := audit.NewPublisher(audit.NewKafkaStore(prod, cfg.Kafka.AuditTopic),
		audit.WithAsyncBuffer(1024),
		audit.WithPublisherLogger(log),
	)
	a.closers = append(a.closers, func() error {
		publisher.Close()
		return nil
	})
	a.auditSink = "kafka"
	return publisher, nil
}

func (a *app) buildBackends(ctx context.Context, cfg config.Config, h *health.Handler) (store.Backend, store.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := database.Open(ctx, cfg.Database, database.WithRegisterer(prometheus.DefaultRegisterer))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, pool.Close)
		h.RegisterCheck("postgres", pool.Health)
		return store.NewPostgresBackend(pool.DB(), "secrets"), store.NewPostgresBackend(pool.DB(), "orphans"), nil
	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		a.redis = client
		a.closers = append(a.closers, client.Close)
		h.RegisterCheck("redis", client.Health)
		return store.NewRedisBackend(client, "secrets"), store.NewRedisBackend(client, "orphans"), nil
	case config.BackendMemory:
		return store.NewMemoryBackend(), store.NewMemoryBackend(), nil
	default:
		return store.NewFileBackend(cfg.Store.FilePath), store.NewFileBackend(cfg.Store.OrphanFilePath), nil
	}
}

func buildLedger(cfg config.Config, log *slog.Logger) (ledger.Ledger, error) {
	if cfg.Ledger.Backend != config.LedgerWallet {
		log.Warn("using in-memory ledger; commitments are not broadcast")
		return memledger.New(), nil
	}
	client, err := wallet.New(wallet.Config{
		BaseURL: cfg.Ledger.WalletURL,
		APIKey:  cfg.Ledger.APIKey,
		Timeout: cfg.Ledger.Timeout,
	}, wallet.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("create wallet client: %w", err)
	}
	return client, nil
}

func buildRouter(cfg config.Config, log *slog.Logger, h *handler.Handler, hh *health.Handler) (chi.Router, error) {
	clientIP, err := request.NewClientIP(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(request.Time)
	r.Use(clientIP.Handler)
	r.Use(request.Logger(log))
	r.Use(request.Latency(request.NewMetrics()))

	hh.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.Server.RequestTimeout))
		r.Use(request.BodyLimit(validation.MaxBodySize))
		r.Use(request.ContentTypeJSON)
		h.Register(r)
	})
	return r, nil
}
