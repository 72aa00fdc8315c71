package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/callassist/config"
	"github.com/yoockh/callassist/internal/api/handlers"
	"github.com/yoockh/callassist/internal/api/middleware"
	"github.com/yoockh/callassist/internal/api/routes"
	"github.com/yoockh/callassist/internal/cache"
	"github.com/yoockh/callassist/internal/events"
	"github.com/yoockh/callassist/internal/logger"
	"github.com/yoockh/callassist/internal/metrics"
	"github.com/yoockh/callassist/internal/nlp"
	"github.com/yoockh/callassist/internal/prompts"
	"github.com/yoockh/callassist/internal/providers/llm"
	mongorepo "github.com/yoockh/callassist/internal/repositories/mongo"
	pgrepo "github.com/yoockh/callassist/internal/repositories/postgres"
	"github.com/yoockh/callassist/internal/scheduler"
	"github.com/yoockh/callassist/internal/services"
	"github.com/yoockh/callassist/internal/storage"
	"github.com/yoockh/callassist/internal/workers"
)

func main() {
	cfg, err := config.Load()
	log := logger.NewWith(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	metrics.Init(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := mustProvider(ctx, cfg.LLM, log)
	if provider != nil {
		defer provider.Close()
	}

	assets := mustAssets(ctx, cfg.Assets, log)

	var snapshots pgrepo.LexiconRepository
	if cfg.Stores.PostgresURI != "" {
		if err := config.InitPostgres(cfg.Stores.PostgresURI); err != nil {
			log.WithError(err).Fatal("PostgreSQL init error")
		}
		log.Info("PostgreSQL connected")
		snapshots = pgrepo.NewLexiconRepo(config.PostgresDB)
	}

	lex, err := services.LoadLexicon(ctx, cfg.Assets.LexiconSource, assets, snapshots)
	if err != nil {
		log.WithError(err).Fatal("lexicon load failed")
	}
	promptSet, err := prompts.Load(ctx, assets)
	if err != nil {
		log.WithError(err).Fatal("prompt load failed")
	}
	log.WithFields(logrus.Fields{"source": cfg.Assets.LexiconSource, "version": lex.Version}).Info("lexicon loaded")

	var remote services.RemoteAnalysisClient
	if provider != nil {
		remote = services.NewRemoteAnalysisClient(provider, promptSet, cfg.Timing.AnalysisTimeout)
	}
	analysis := services.NewAnalysisService(nlp.NewScorer(lex), nlp.NewClassifier(lex), remote, log)
	suggestions := services.NewSuggestionService(provider, promptSet, cfg.Timing.SuggestionTimeout, log)

	utterances := services.UtteranceService(services.NopUtteranceService{})
	if cfg.Stores.Mongo.URI != "" {
		if err := config.InitMongo(cfg.Stores.Mongo); err != nil {
			log.WithError(err).Fatal("MongoDB init error")
		}
		if err := config.EnsureMongoIndexes(); err != nil {
			log.WithError(err).Warn("mongo index creation failed")
		}
		log.Info("MongoDB connected")
		utterances = services.NewUtteranceService(mongorepo.NewUtteranceRepo(config.MongoDatabase()), cfg.Timing.UtteranceTTL)
	}

	var (
		store      cache.Cache
		publishers events.Multi
		subscriber events.Subscriber
		queue      services.UtteranceQueue
		pool       *workers.UtteranceWorkerPool
	)
	redisEnabled := cfg.Stores.RedisAddr != ""
	if redisEnabled {
		if err := config.InitRedis(cfg.Stores.RedisAddr); err != nil {
			log.WithError(err).Fatal("Redis init error")
		}
		log.Info("Redis connected")
		redisPub := events.NewRedisPublisher(config.RedisClient)
		store = cache.NewRedisCache(config.RedisClient)
		publishers = append(publishers, redisPub)
		subscriber = redisPub
	} else {
		log.Warn("Redis not configured; using in-process state and events")
		broker := events.NewMemory()
		store = cache.NewMemory()
		publishers = append(publishers, broker)
		subscriber = broker
	}

	if cfg.AMQP.URL != "" {
		amqpPub := events.NewAMQPPublisher(log, events.AMQPConfig{URL: cfg.AMQP.URL, ExchangeName: cfg.AMQP.Exchange})
		if err := amqpPub.Connect(); err != nil {
			log.WithError(err).Warn("AMQP unavailable; events stay local")
		} else {
			defer amqpPub.Close()
			publishers = append(publishers, amqpPub)
		}
	}

	calls := services.NewCallStateService(store, cfg.Timing.CallStateTTL)
	processor := &workers.Processor{
		Analysis:   analysis,
		Calls:      calls,
		Utterances: utterances,
		Events:     publishers,
		Logger:     log,
	}

	if redisEnabled {
		queue = &workers.RedisQueue{Redis: config.RedisClient, Stream: cfg.Workers.Stream}
		pool = &workers.UtteranceWorkerPool{
			Redis:      config.RedisClient,
			Processor:  processor,
			NumWorkers: cfg.Workers.Count,
			Logger:     log,
			Stream:     cfg.Workers.Stream,
			Group:      cfg.Workers.Group,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("worker pool start failed")
		}
	} else {
		queue = workers.NewInlineQueue(ctx, processor, cfg.Workers.Count)
	}

	ingest := services.NewIngestService(calls, utterances, queue, publishers, log)
	debouncer := scheduler.NewDebouncer(cfg.Timing.SuggestionDebounce)
	defer debouncer.Stop()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Auth: middleware.JWTAuth(middleware.AuthConfig{
			Secret:   cfg.Auth.Secret,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		}),
		Calls:     handlers.NewCallHandler(calls, ingest, utterances, publishers, log),
		Analysis:  handlers.NewAnalysisHandler(analysis, suggestions),
		Knowledge: handlers.NewKnowledgeHandler(services.NewKnowledgeService()),
		Admin:     handlers.NewAdminHandler(lex, cfg.Assets.LexiconSource),
		WS:        handlers.NewWSHandler(calls, ingest, suggestions, publishers, subscriber, debouncer, log),
		Metrics:   metrics.Handler(),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
}

// mustProvider returns nil when no remote model is configured; every remote
// path then takes its local fallback.
func mustProvider(ctx context.Context, c config.LLMConfig, log *logrus.Logger) llm.Provider {
	switch c.Provider {
	case "vertex":
		p, err := llm.NewVertexGemini(ctx, c.VertexProject, c.VertexLocation, c.VertexModel)
		if err != nil {
			log.WithError(err).Fatal("vertex init error")
		}
		return p
	case "openai":
		return llm.NewOpenAIChat(c.OpenAIKey, c.OpenAIModel)
	default:
		log.Warn("no LLM provider configured; local analysis only")
		return nil
	}
}

func mustAssets(ctx context.Context, c config.AssetConfig, log *logrus.Logger) storage.Fetcher {
	switch {
	case c.Bucket != "":
		f, err := storage.NewGCSFetcher(ctx, c.Bucket, "")
		if err != nil {
			log.WithError(err).Fatal("gcs init error")
		}
		return f
	case c.Dir != "":
		return storage.NewDirFetcher(c.Dir)
	default:
		return nil
	}
}
