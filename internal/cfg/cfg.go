package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"github.com/jimlawless/whereami"
)

type Config struct {
	Minio     *MinIOCfg
	Http      *HTTPConfig
	Grpc      *GRPCConfig
	Db        *PGDBCfg
	Qdrant    *QdrantCfg
	Redis     *RedisCfg
	Ml        *MLServiceCfg
	Kafka     *KafkaCfg
	Taste     *TasteCfg
	Recommend *RecommendCfg
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет для снимков базиса вкусовых измерений
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type QdrantCfg struct {
	Port                 int
	Host                 string
	ApiKey               string
	QdrantCollectionName string // имя коллекции каталога в Qdrant
	UseTLS               bool
	VectorSize           uint64 // размерность эмбеддинга D
	BreakerFailures      uint32 // подряд идущих ошибок до размыкания
	BreakerTimeout       time.Duration
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	PoolSize    int // 0 оставляет значение go-redis по умолчанию
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ProfileTTL  time.Duration // TTL закэшированного вкусового профиля пользователя
	ItemTTL     time.Duration // TTL метаданных элемента каталога
}

type MLServiceCfg struct {
	Addr          string
	Model         string // имя модели эмбеддингов, входит в ключ снимка базиса
	MaxConcurrent int
	MaxRetries    int
	BatchSize     int
}

// TasteCfg — параметры ядра вкусовых векторов и политика взвешивания оценок.
type TasteCfg struct {
	Orthogonalize       bool
	TendencyThreshold   float64
	RatingMidpoint      float64
	FavoriteMultiplier  float64
	WantToConsumeWeight float64
	RecencyHalfLife     time.Duration
}

// RecommendCfg — параметры поиска и ранжирования.
type RecommendCfg struct {
	DefaultAlpha      float64
	OverFetchFactor   int
	MediaTypeTimeout  time.Duration
	DefaultTopK       int
	MaxTopK           int
	UseAlphaHeuristic bool
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrant, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ml, err := loadMLServiceCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	taste, err := loadTasteCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	recommend, err := loadRecommendCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Minio:     minio,
		Http:      http,
		Grpc:      loadGRPCConfig(),
		Db:        db,
		Qdrant:    qdrant,
		Redis:     redis,
		Ml:        ml,
		Kafka:     kafka,
		Taste:     taste,
		Recommend: recommend,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "spectra.rating-events"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}
	brokers := strings.Split(brokerStr, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL     = false
		defaultEndpoint   = "minio:9000"
		defaultBucketName = "taste-basis"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucketName),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadQdrantCfg(logger logger.Logger) (*QdrantCfg, error) {
	const (
		defaultQdrantGRPCPort  = "6334"
		defaultUseTLS          = false
		defaultVectorSize      = "384"
		defaultCollectionName  = "media_items"
		defaultBreakerFailures = 5
		defaultBreakerTimeout  = 15 * time.Second
	)

	strPort := getEnvOrDefault("QDRANT_GRPC_PORT", defaultQdrantGRPCPort)
	port, err := strconv.Atoi(strPort)
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_PORT")
		return nil, err
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("QDRANT_USE_TLS", strconv.FormatBool(defaultUseTLS)))
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	strVectorSize := getEnvOrDefault("VECTOR_SIZE", defaultVectorSize)
	vectorSize, err := strconv.ParseUint(strVectorSize, 10, 64)
	if err != nil {
		logger.Errorf(err, "invalid VECTOR_SIZE")
		return nil, err
	}

	failures, err := parseIntEnv("QDRANT_BREAKER_FAILURES", defaultBreakerFailures)
	if err != nil || failures <= 0 {
		logger.Errorf(err, "invalid QDRANT_BREAKER_FAILURES")
		return nil, e.Wrap("QDRANT_BREAKER_FAILURES", e.ErrIncorrectEnvVariable)
	}

	breakerTimeout, err := parseDurationEnv("QDRANT_BREAKER_TIMEOUT", defaultBreakerTimeout)
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_BREAKER_TIMEOUT")
		return nil, err
	}

	return &QdrantCfg{
		Host:                 getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:                 port,
		ApiKey:               getEnv("QDRANT__SERVICE__API_KEY"),
		QdrantCollectionName: getEnvOrDefault("COLLECTION_NAME", defaultCollectionName),
		UseTLS:               useTLS,
		VectorSize:           vectorSize,
		BreakerFailures:      uint32(failures),
		BreakerTimeout:       breakerTimeout,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultProfileTTL   = 10 * time.Minute
		defaultItemTTL      = 30 * time.Minute
	)

	addr := getEnvOrDefault("REDIS_ADDR", defaultAddr)
	password := getEnv("REDIS_PASSWORD")
	user := getEnv("REDIS_USER")

	dbStr := getEnvOrDefault("REDIS_DB_ID", strconv.Itoa(defaultDB))
	db, err := strconv.Atoi(dbStr)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetriesStr := getEnvOrDefault("MAX_RETRIES", strconv.Itoa(defaultMaxRetries))
	maxRetries, err := strconv.Atoi(maxRetriesStr)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	poolSize, err := parseIntEnv("REDIS_POOL_SIZE", 0)
	if err != nil || poolSize < 0 {
		log.Errorf(e.ErrIncorrectEnvVariable, "invalid REDIS_POOL_SIZE")
		return nil, e.Wrap("REDIS_POOL_SIZE", e.ErrIncorrectEnvVariable)
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	profileTTL, err := parseDurationEnv("PROFILE_TTL", defaultProfileTTL)
	if err == nil && profileTTL < time.Millisecond {
		err = e.ErrIncorrectEnvVariable
	}
	if err != nil {
		log.Errorf(err, "invalid PROFILE_TTL")
		return nil, err
	}

	itemTTL, err := parseDurationEnv("ITEM_TTL", defaultItemTTL)
	if err != nil {
		log.Errorf(err, "invalid ITEM_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        addr,
		Password:    password,
		User:        user,
		DB:          db,
		PoolSize:    poolSize,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		ProfileTTL:  profileTTL,
		ItemTTL:     itemTTL,
	}, nil
}

func loadMLServiceCfg() (*MLServiceCfg, error) {
	const (
		defaultHost          = "ml-service"
		defaultPort          = "50051"
		defaultModel         = "all-MiniLM-L6-v2"
		defaultMaxConcurrent = 8
		defaultMaxAttempts   = 1
		defaultBatchSize     = 32
	)

	host := getEnvOrDefault("ML_HOST", defaultHost)
	port := getEnvOrDefault("ML_PORT", defaultPort)

	maxConcurrent, err := parseIntEnv("ML_MAX_CONCURRENT", defaultMaxConcurrent)
	if err != nil || maxConcurrent <= 0 {
		return nil, e.Wrap("ML_MAX_CONCURRENT", e.ErrIncorrectEnvVariable)
	}

	// Число попыток вызова ML-сервиса; повторы включаются только явно
	maxRetries, err := parseIntEnv("ML_MAX_RETRIES", defaultMaxAttempts)
	if err != nil || maxRetries <= 0 {
		return nil, e.Wrap("ML_MAX_RETRIES", e.ErrIncorrectEnvVariable)
	}

	batchSize, err := parseIntEnv("ML_BATCH_SIZE", defaultBatchSize)
	if err != nil || batchSize <= 0 {
		return nil, e.Wrap("ML_BATCH_SIZE", e.ErrIncorrectEnvVariable)
	}

	return &MLServiceCfg{
		Addr:          host + ":" + port,
		Model:         getEnvOrDefault("EMBEDDING_MODEL", defaultModel),
		MaxConcurrent: maxConcurrent,
		MaxRetries:    maxRetries,
		BatchSize:     batchSize,
	}, nil
}

func loadTasteCfg() (*TasteCfg, error) {
	const (
		defaultTendencyThreshold   = 0.15
		defaultRatingMidpoint      = 3.0
		defaultFavoriteMultiplier  = 1.5
		defaultWantToConsumeWeight = 0.25
	)

	orthogonalize, err := parseBoolEnv("TASTE_ORTHOGONALIZE", false)
	if err != nil {
		return nil, e.Wrap("TASTE_ORTHOGONALIZE", err)
	}

	threshold, err := parseFloatEnv("TASTE_TENDENCY_THRESHOLD", defaultTendencyThreshold)
	if err != nil || threshold < 0 || threshold >= 1 {
		return nil, e.Wrap("TASTE_TENDENCY_THRESHOLD", e.ErrIncorrectEnvVariable)
	}

	midpoint, err := parseFloatEnv("TASTE_RATING_MIDPOINT", defaultRatingMidpoint)
	if err != nil || midpoint < 0.5 || midpoint > 5 {
		return nil, e.Wrap("TASTE_RATING_MIDPOINT", e.ErrIncorrectEnvVariable)
	}

	favorite, err := parseFloatEnv("TASTE_FAVORITE_MULTIPLIER", defaultFavoriteMultiplier)
	if err != nil || favorite < 1 {
		return nil, e.Wrap("TASTE_FAVORITE_MULTIPLIER", e.ErrIncorrectEnvVariable)
	}

	want, err := parseFloatEnv("TASTE_WANT_TO_CONSUME_WEIGHT", defaultWantToConsumeWeight)
	if err != nil || want < 0 {
		return nil, e.Wrap("TASTE_WANT_TO_CONSUME_WEIGHT", e.ErrIncorrectEnvVariable)
	}

	halfLife, err := parseDurationEnv("TASTE_RECENCY_HALF_LIFE", 0)
	if err != nil || halfLife < 0 {
		return nil, e.Wrap("TASTE_RECENCY_HALF_LIFE", e.ErrIncorrectEnvVariable)
	}

	return &TasteCfg{
		Orthogonalize:       orthogonalize,
		TendencyThreshold:   threshold,
		RatingMidpoint:      midpoint,
		FavoriteMultiplier:  favorite,
		WantToConsumeWeight: want,
		RecencyHalfLife:     halfLife,
	}, nil
}

func loadRecommendCfg() (*RecommendCfg, error) {
	const (
		defaultAlpha            = 0.7
		defaultOverFetch        = 3
		defaultMediaTypeTimeout = 2 * time.Second
		defaultTopK             = 10
		defaultMaxTopK          = 50
	)

	alpha, err := parseFloatEnv("RECOMMEND_DEFAULT_ALPHA", defaultAlpha)
	if err != nil || alpha < 0 || alpha > 1 {
		return nil, e.Wrap("RECOMMEND_DEFAULT_ALPHA", e.ErrIncorrectEnvVariable)
	}

	overFetch, err := parseIntEnv("RECOMMEND_OVERFETCH", defaultOverFetch)
	if err != nil || overFetch < 1 {
		return nil, e.Wrap("RECOMMEND_OVERFETCH", e.ErrIncorrectEnvVariable)
	}

	timeout, err := parseDurationEnv("RECOMMEND_MEDIA_TIMEOUT", defaultMediaTypeTimeout)
	if err != nil || timeout <= 0 {
		return nil, e.Wrap("RECOMMEND_MEDIA_TIMEOUT", e.ErrIncorrectEnvVariable)
	}

	topK, err := parseIntEnv("RECOMMEND_DEFAULT_TOP_K", defaultTopK)
	if err != nil || topK < 1 {
		return nil, e.Wrap("RECOMMEND_DEFAULT_TOP_K", e.ErrIncorrectEnvVariable)
	}

	maxTopK, err := parseIntEnv("RECOMMEND_MAX_TOP_K", defaultMaxTopK)
	if err != nil || maxTopK < topK {
		return nil, e.Wrap("RECOMMEND_MAX_TOP_K", e.ErrIncorrectEnvVariable)
	}

	heuristic, err := parseBoolEnv("RECOMMEND_ALPHA_HEURISTIC", true)
	if err != nil {
		return nil, e.Wrap("RECOMMEND_ALPHA_HEURISTIC", err)
	}

	return &RecommendCfg{
		DefaultAlpha:      alpha,
		OverFetchFactor:   overFetch,
		MediaTypeTimeout:  timeout,
		DefaultTopK:       topK,
		MaxTopK:           maxTopK,
		UseAlphaHeuristic: heuristic,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	floatValue, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return floatValue, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	boolValue, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return boolValue, nil
}
