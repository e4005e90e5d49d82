package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/spectra-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/spectra-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/spectra-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/spectra-backend/internal/infrastructure/kafka"
	ml_service "github.com/DRSN-tech/spectra-backend/internal/infrastructure/ml-service"
	"github.com/DRSN-tech/spectra-backend/internal/recommend"
	s3Repo "github.com/DRSN-tech/spectra-backend/internal/repository/minio"
	"github.com/DRSN-tech/spectra-backend/internal/repository/pgdb"
	qdrantRepo "github.com/DRSN-tech/spectra-backend/internal/repository/qdrant"
	"github.com/DRSN-tech/spectra-backend/internal/repository/redis"
	"github.com/DRSN-tech/spectra-backend/internal/taste"
	"github.com/DRSN-tech/spectra-backend/internal/usecase"
	"github.com/DRSN-tech/spectra-backend/pkg/closer"
	"github.com/DRSN-tech/spectra-backend/pkg/clients"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"github.com/DRSN-tech/spectra-backend/pkg/postgres"
	"github.com/DRSN-tech/spectra-backend/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// App держит собранные зависимости сервиса.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv      *v1Http.Server
	grpcSrv      *v1Grpc.GRPCServer
	outboxWorker *kafka.OutboxWorker
	basisRepo    *s3Repo.BasisRepo
	basisKey     string
}

// NewApp подключается к хранилищам, строит базис вкуса и собирает слои приложения.
// При ошибке уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: log, closer: closer.NewCloser(0)}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if err := a.init(ctx); err != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer closeCancel()
		if cErr := a.closer.Close(closeCtx); cErr != nil {
			log.Warnf("Failed to release resources after init error: %v", cErr)
		}
		return nil, err
	}

	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, log := a.cfg, a.logger

	// === PostgreSQL ===
	db, err := initPGDB(ctx, log, cfg)
	if err != nil {
		return err
	}
	a.closer.AddFunc("postgres", db.Close)
	txManager := tr.NewManager(db.Pool)

	itemRepo := pgdb.NewItemRepo(db.Pool)
	ratingRepo := pgdb.NewRatingRepo(db.Pool)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool)

	// === Redis ===
	redisClient := clients.NewRedisClient(cfg.Redis)
	a.closer.Add("redis", func(context.Context) error { return redisClient.Close() })
	if err := redisClient.Ping(ctx); err != nil {
		log.Errorf(err, "failed to connect to redis")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	cacheRepo := redis.NewCacheRepo(redisClient, cfg.Redis, log)

	// === MinIO ===
	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		log.Errorf(err, "failed to initialize minio client")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if err := clients.EnsureBucket(ctx, minioClient, cfg.Minio.BucketName); err != nil {
		log.Errorf(err, "failed to initialize MinIO bucket")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.basisRepo = s3Repo.NewBasisRepo(minioClient, cfg.Minio, log)

	// === ML Service ===
	conn, err := grpc.NewClient(
		cfg.Ml.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()), // явное указание gRPC-клиенту использовать НЕзащищённое соединение (без TLS).
	)
	if err != nil {
		log.Errorf(err, "failed to initialize grpc client")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("ml-service", func(context.Context) error { return conn.Close() })
	ml := ml_service.NewMLService(conn, cfg.Ml, log)

	// === Базис вкуса ===
	defs, err := taste.DefaultDefinitions()
	if err != nil {
		log.Errorf(err, "invalid taste dimension definitions")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	basisOpts := taste.BasisOptions{Orthogonalize: cfg.Taste.Orthogonalize}
	basis, err := taste.LoadBasis(ctx, defs, ml, a.basisRepo, cfg.Ml.Model, basisOpts, log)
	if err != nil {
		log.Errorf(err, "failed to build taste basis")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.basisKey = taste.Fingerprint(defs, cfg.Ml.Model, basisOpts)

	if uint64(basis.EmbeddingSize()) != cfg.Qdrant.VectorSize {
		err := e.Mark(e.ErrConfiguration, e.ErrDimensionMismatch)
		log.Errorf(err, "embedding size %d does not match VECTOR_SIZE %d", basis.EmbeddingSize(), cfg.Qdrant.VectorSize)
		return e.Wrap(whereami.WhereAmI(), err)
	}

	// === Qdrant ===
	qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		log.Errorf(err, "failed to initialize qdrant")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("qdrant", func(context.Context) error { return qdrantClient.Close() })
	if err := clients.EnsureCollection(ctx, qdrantClient, uint64(basis.Len())); err != nil {
		log.Errorf(err, "failed to initialize qdrant collection")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	itemStore := qdrantRepo.NewItemStore(qdrantClient.Client, cfg.Qdrant, log)

	// === Ядро ===
	projector := taste.NewProjector(basis, cfg.Taste.TendencyThreshold)
	aggregator := taste.NewAggregator(basis.Len(), taste.AggregationPolicy{
		Midpoint:            cfg.Taste.RatingMidpoint,
		FavoriteMultiplier:  cfg.Taste.FavoriteMultiplier,
		WantToConsumeWeight: cfg.Taste.WantToConsumeWeight,
		RecencyHalfLife:     cfg.Taste.RecencyHalfLife,
	})
	engine := recommend.NewEngine(itemStore, basis, recommend.Config{
		DefaultAlpha:     cfg.Recommend.DefaultAlpha,
		OverFetchFactor:  cfg.Recommend.OverFetchFactor,
		MediaTypeTimeout: cfg.Recommend.MediaTypeTimeout,
		MaxTopK:          cfg.Recommend.MaxTopK,
	}, log)

	tasteUC := usecase.NewTasteUC(ml, projector, aggregator, ratingRepo, cacheRepo, log)
	recUC := usecase.NewRecommendationUC(tasteUC, engine, itemRepo, itemStore, ratingRepo, cacheRepo, cfg.Recommend, log)
	catalogUC := usecase.NewCatalogUC(ml, projector, itemRepo, itemStore, ratingRepo, outboxRepo, cacheRepo, kafka.RatingEventEncoder{}, txManager, log)

	// === Kafka ===
	producer := kafka.NewProducer(log, cfg.Kafka)
	a.closer.Add("kafka-producer", func(context.Context) error { return producer.Close() })
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		log.Errorf(err, "failed to ensure kafka topic")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.outboxWorker = kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)

	// === Delivery ===
	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, log)
	a.grpcSrv.RegisterServices(tasteUC, recUC)

	r := chi.NewRouter()
	v1Http.NewRouter(r, log).Init(tasteUC, recUC, catalogUC, map[string]v1Http.HealthCheck{
		"postgres": db.Ping,
		"redis":    redisClient.Ping,
	})
	a.httpSrv = v1Http.NewServer(r, cfg.Http)

	return nil
}

// Run запускает серверы и фоновые воркеры и блокируется до сигнала или фатальной ошибки.
func (a *App) Run() error {
	log := a.logger

	workerCtx, workerCancel := context.WithCancel(context.Background())
	a.outboxWorker.Start(workerCtx)
	a.closer.AddFunc("outbox-worker", func() {
		workerCancel()
		a.outboxWorker.Stop()
	})

	go a.pruneBasisSnapshots(workerCtx)

	grpcErrCh := make(chan error, 1)
	go func() {
		log.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			log.Errorf(err, "gRPC server failed")
			grpcErrCh <- err
		}
	}()
	a.closer.Add("grpc-server", a.grpcSrv.Stop)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf(err, "HTTP server failed: %v", err)
			errCh <- err
		}
	}()
	a.closer.Add("http-server", a.httpSrv.Stop)

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		log.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-grpcErrCh:
		log.Errorf(appErr, "gRPC server fatal error")
	case <-shutdown:
		log.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		log.Errorf(err, "shutdown finished with errors")
	}

	log.Infof("Application shutdown complete")
	return appErr
}

// pruneBasisSnapshots удаляет из MinIO снапшоты базиса, оставшиеся от прежних определений или модели.
func (a *App) pruneBasisSnapshots(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	removed, err := a.basisRepo.PruneStale(ctx, a.basisKey)
	if err != nil {
		a.logger.Warnf("Failed to prune stale basis snapshots: %v", err)
		return
	}
	if removed > 0 {
		a.logger.Infof("Removed %d stale basis snapshot(s)", removed)
	}
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(postgres.DefaultMigrationsURL, logger); err != nil {
		db.Close()
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
