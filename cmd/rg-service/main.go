package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/radieske/responsible-gambling/internal/api/http"
	"github.com/radieske/responsible-gambling/internal/ingest/consumer"
	"github.com/radieske/responsible-gambling/internal/ingest/producer"
	"github.com/radieske/responsible-gambling/internal/notify/pubsub"
	"github.com/radieske/responsible-gambling/internal/notify/ws"
	"github.com/radieske/responsible-gambling/internal/rg"
	"github.com/radieske/responsible-gambling/internal/rg/storage"
	sharedcache "github.com/radieske/responsible-gambling/internal/shared/cache"
	"github.com/radieske/responsible-gambling/internal/shared/config"
	"github.com/radieske/responsible-gambling/internal/shared/db"
	"github.com/radieske/responsible-gambling/internal/shared/kafka"
	"github.com/radieske/responsible-gambling/internal/shared/logger"
	"github.com/radieske/responsible-gambling/internal/shared/metrics"
	"github.com/radieske/responsible-gambling/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Redis: backend de estado (opcional) e pub/sub das atualizações de sessão
	var redisClient *redis.Client
	if rc, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword); err != nil {
		if cfg.StateBackend == config.BackendRedis {
			log.Fatal("redis connect", zap.Error(err))
		}
		log.Warn("redis unavailable, session push stays local to this instance", zap.Error(err))
	} else {
		redisClient = rc
		defer redisClient.Close()
	}

	// Postgres só é aberto quando é o backend de estado
	var pg *sql.DB
	if cfg.StateBackend == config.BackendPostgres {
		if pg, err = db.ConnectPostgres(ctx, cfg.PostgresDSN); err != nil {
			log.Fatal("postgres connect", zap.Error(err))
		}
		defer pg.Close()
	}

	store, err := openStorage(ctx, cfg, redisClient, pg)
	if err != nil {
		log.Fatal("state storage", zap.Error(err))
	}
	log.Info("state storage ready", zap.String("backend", cfg.StateBackend))

	// Métricas Prometheus
	betsRecorded := prometheus.NewCounter(prometheus.CounterOpts{Name: "rg_bets_recorded_total", Help: "apostas registradas via kafka"})
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "rg_ingest_messages_consumed_total", Help: "mensagens bet_settled consumidas"})
	alerts := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rg_alerts_published_total", Help: "alertas publicados por tipo"}, []string{"kind"})
	ingestErrors := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rg_ingest_errors_total", Help: "erros de ingestão por estágio"}, []string{"stage"})
	persistErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "rg_state_persist_errors_total", Help: "falhas ao gravar estado de sessão"})
	loadErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "rg_state_load_errors_total", Help: "leituras com erro ou estado corrompido"})
	pushErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "rg_session_push_errors_total", Help: "falhas ao publicar atualização de sessão"})
	prometheus.MustRegister(betsRecorded, consumed, alerts, ingestErrors, persistErrors, loadErrors, pushErrors)

	registry, err := rg.NewRegistry(store, cfg.StateKeyPrefix, cfg.SessionCacheSize, log,
		rg.WithOnPersistError(persistErrors.Inc),
		rg.WithOnLoadError(loadErrors.Inc),
	)
	if err != nil {
		log.Fatal("session registry", zap.Error(err))
	}

	// Push de sessão: via Redis quando disponível (todas as instâncias), senão direto no hub local
	hub := ws.NewHub(allowOrigin(cfg.CORSAllowedOrigins), log)
	if redisClient != nil {
		broadcaster := pubsub.NewRedisBroadcaster(redisClient, cfg.RedisSessionChannel)
		if err := ws.StartRedisSubscriber(ctx, redisClient, broadcaster.Channel(), hub, log); err != nil {
			log.Fatal("redis subscribe", zap.Error(err))
		}
		registry.OnChange = func(userID string, v rg.View) {
			pctx, pcancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer pcancel()
			if err := broadcaster.PublishSession(pctx, userID, v); err != nil {
				pushErrors.Inc()
				log.Warn("session update publish failed", zap.String("userId", userID), zap.Error(err))
			}
		}
	} else {
		// Broadcast só enfileira; a escrita no socket fica com cada cliente
		registry.OnChange = func(userID string, v rg.View) {
			hub.Broadcast(events.SessionUpdate{UserID: userID, Payload: v})
		}
	}

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, healthCheck(redisClient, pg), log)
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	// API REST + WS
	api := httpapi.NewServer(log, registry, cfg.CORSAllowedOrigins, hub.HandleWS)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("rg api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api server error", zap.Error(err))
		}
	}()

	// Consumer de apostas liquidadas (consumer group rg-service)
	ingestDone := make(chan struct{})
	if cfg.IngestEnabled {
		reader := kafka.NewReader(cfg.Brokers(), cfg.TopicBetSettled, cfg.ConsumerGroup)
		defer reader.Close()
		alertWriter := kafka.NewWriter(cfg.Brokers(), cfg.TopicRGAlerts)
		defer alertWriter.Close()
		dlqWriter := kafka.NewWriter(cfg.Brokers(), cfg.TopicBetSettledDLQ)
		defer dlqWriter.Close()

		proc := &consumer.Processor{
			Log:        log,
			Reader:     reader,
			Sessions:   registry,
			Alerts:     producer.NewAlertPublisher(alertWriter),
			DLQ:        dlqWriter,
			OnConsumed: consumed.Inc,
			OnRecorded: betsRecorded.Inc,
			OnAlert:    func(kind string) { alerts.WithLabelValues(kind).Inc() },
			OnError:    func(stage string) { ingestErrors.WithLabelValues(stage).Inc() },
		}
		go func() {
			defer close(ingestDone)
			log.Info("bet_settled consumer started", zap.String("topic", cfg.TopicBetSettled))
			if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("consumer stopped with error", zap.Error(err))
			}
		}()
	} else {
		close(ingestDone)
		log.Info("ingest disabled")
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	<-ingestDone
	log.Info("rg-service stopped")
}

// openStorage escolhe o backend de persistência pelo STATE_BACKEND
func openStorage(ctx context.Context, cfg config.Config, rc *redis.Client, pg *sql.DB) (rg.Storage, error) {
	switch cfg.StateBackend {
	case config.BackendMemory:
		return storage.NewMemory(), nil
	case config.BackendFile:
		return storage.NewFile(cfg.StateDir)
	case config.BackendRedis:
		if rc == nil {
			return nil, errors.New("redis backend requires a redis client")
		}
		return storage.NewRedis(rc), nil
	case config.BackendPostgres:
		if pg == nil {
			return nil, errors.New("postgres backend requires a database")
		}
		p := storage.NewPostgres(pg)
		if err := p.Migrate(ctx); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown STATE_BACKEND %q", cfg.StateBackend)
}

// healthCheck pinga apenas as dependências que foram abertas
func healthCheck(rc *redis.Client, pg *sql.DB) metrics.HealthFunc {
	return func(ctx context.Context) error {
		if pg != nil {
			if err := pg.PingContext(ctx); err != nil {
				return fmt.Errorf("pg: %w", err)
			}
		}
		if rc != nil {
			if err := rc.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}
}

// allowOrigin aplica a mesma lista do CORS ao upgrade do WebSocket
func allowOrigin(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}
