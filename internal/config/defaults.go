package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "ipclaim"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "ipclaim-extraction"

	DefaultNeo4jURI = "neo4j://localhost:7687"

	DefaultMinIOEndpoint = "localhost:9000"

	DefaultAnnotatorBaseURL = "http://localhost:8000"

	DefaultMaxChunkSize   = 100_000
	DefaultBoundaryWindow = 200

	DefaultChunkerMaxTokens = 512
	DefaultChunkerMaxChars  = 4000
	DefaultTokenEncoding    = "cl100k_base"

	DefaultLLMModel = "gpt-4o-mini"

	DefaultImporterConcurrency = 8

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "ipclaim"
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 24 * time.Hour
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = "neo4j"
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = "patents"
	}

	// ── Annotator ─────────────────────────────────────────────────────────────
	if cfg.Annotator.BaseURL == "" {
		cfg.Annotator.BaseURL = DefaultAnnotatorBaseURL
	}
	if cfg.Annotator.RequestTimeout == 0 {
		cfg.Annotator.RequestTimeout = 120 * time.Second
	}
	if cfg.Annotator.RetryBackoff == 0 {
		cfg.Annotator.RetryBackoff = 500 * time.Millisecond
	}

	// ── Extraction ────────────────────────────────────────────────────────────
	if cfg.Extraction.MaxChunkSize == 0 {
		cfg.Extraction.MaxChunkSize = DefaultMaxChunkSize
	}
	if cfg.Extraction.BoundaryWindow == 0 {
		cfg.Extraction.BoundaryWindow = DefaultBoundaryWindow
	}
	if cfg.Extraction.CacheTTL == 0 {
		cfg.Extraction.CacheTTL = 24 * time.Hour
	}

	// ── Chunker ───────────────────────────────────────────────────────────────
	if cfg.Chunker.MaxTokens == 0 {
		cfg.Chunker.MaxTokens = DefaultChunkerMaxTokens
	}
	if cfg.Chunker.MaxChars == 0 {
		cfg.Chunker.MaxChars = DefaultChunkerMaxChars
	}
	if cfg.Chunker.LengthMode == "" {
		cfg.Chunker.LengthMode = "chars"
	}
	if cfg.Chunker.TokenEncoding == "" {
		cfg.Chunker.TokenEncoding = DefaultTokenEncoding
	}

	// ── LLM ───────────────────────────────────────────────────────────────────
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.LLM.RequestTimeout == 0 {
		cfg.LLM.RequestTimeout = 60 * time.Second
	}

	// ── Importer ──────────────────────────────────────────────────────────────
	if cfg.Importer.Concurrency == 0 {
		cfg.Importer.Concurrency = DefaultImporterConcurrency
	}
	if cfg.Importer.BatchSize == 0 {
		cfg.Importer.BatchSize = 100
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stdout"}
	}
	if len(cfg.Log.ErrorOutputPaths) == 0 {
		cfg.Log.ErrorOutputPaths = []string{"stderr"}
	}
}
