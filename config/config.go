package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting read from the environment.
type Config struct {
	Port    string
	Log     LogConfig
	LLM     LLMConfig
	Timing  TimingConfig
	Workers WorkerConfig
	Assets  AssetConfig
	AMQP    AMQPConfig
	Auth    AuthConfig
	Stores  StoreConfig
}

type LogConfig struct {
	Level  string
	Format string // json|text
}

type LLMConfig struct {
	Provider       string // vertex|openai|none
	VertexProject  string
	VertexLocation string
	VertexModel    string
	OpenAIKey      string
	OpenAIModel    string
}

type TimingConfig struct {
	AnalysisTimeout    time.Duration
	SuggestionTimeout  time.Duration
	SuggestionDebounce time.Duration
	CallStateTTL       time.Duration
	UtteranceTTL       time.Duration
}

type WorkerConfig struct {
	Count  int
	Stream string
	Group  string
}

type AssetConfig struct {
	Dir           string
	Bucket        string
	LexiconSource string // builtin|asset|postgres
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// StoreConfig holds the connection settings of the optional backing stores.
// An empty address leaves that store out.
type StoreConfig struct {
	RedisAddr   string
	PostgresURI string
	Mongo       MongoConfig
}

// Load reads the environment, after a .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []string
	dur := func(key, def string) time.Duration {
		raw := getEnvOrDefault(key, def)
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", key, raw))
			d, _ = time.ParseDuration(def)
		}
		return d
	}

	workers, err := strconv.Atoi(getEnvOrDefault("WORKER_COUNT", "5"))
	if err != nil || workers <= 0 {
		errs = append(errs, "WORKER_COUNT: must be a positive integer")
		workers = 5
	}

	cfg := &Config{
		Port: getEnvOrDefault("PORT", "8080"),
		Log: LogConfig{
			Level:  os.Getenv("LOG_LEVEL"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		LLM: LLMConfig{
			Provider:       strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "vertex")),
			VertexProject:  os.Getenv("VERTEX_PROJECT"),
			VertexLocation: getEnvOrDefault("VERTEX_LOCATION", "us-central1"),
			VertexModel:    getEnvOrDefault("VERTEX_MODEL", "gemini-1.5-flash"),
			OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:    os.Getenv("OPENAI_MODEL"),
		},
		Timing: TimingConfig{
			AnalysisTimeout:    dur("ANALYSIS_TIMEOUT", "10s"),
			SuggestionTimeout:  dur("SUGGESTION_TIMEOUT", "10s"),
			SuggestionDebounce: dur("SUGGESTION_DEBOUNCE", "500ms"),
			CallStateTTL:       dur("CALL_STATE_TTL", "2h"),
			UtteranceTTL:       dur("UTTERANCE_TTL", "24h"),
		},
		Workers: WorkerConfig{
			Count:  workers,
			Stream: getEnvOrDefault("UTTERANCE_STREAM", "utterance:stream"),
			Group:  getEnvOrDefault("UTTERANCE_GROUP", "analysis-workers"),
		},
		Assets: AssetConfig{
			Dir:           os.Getenv("ASSET_DIR"),
			Bucket:        os.Getenv("ASSET_BUCKET"),
			LexiconSource: strings.ToLower(getEnvOrDefault("LEXICON_SOURCE", "builtin")),
		},
		AMQP: AMQPConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: getEnvOrDefault("AMQP_EXCHANGE", "callassist.events"),
		},
		Auth: AuthConfig{
			Secret:   os.Getenv("AUTH_JWT_SECRET"),
			Issuer:   os.Getenv("AUTH_JWT_ISSUER"),
			Audience: os.Getenv("AUTH_JWT_AUDIENCE"),
		},
		Stores: StoreConfig{
			RedisAddr:   redisAddr(),
			PostgresURI: os.Getenv("POSTGRES_URI"),
			Mongo: MongoConfig{
				URI:         os.Getenv("MONGO_URI"),
				Database:    getEnvOrDefault("MONGO_DB", "callassist"),
				PinTLS12:    os.Getenv("MONGO_FORCE_TLS_CONFIG") == "true" || os.Getenv("GO_ENV") == "development",
				InsecureTLS: os.Getenv("MONGO_INSECURE_TLS") == "true",
			},
		},
	}

	switch cfg.LLM.Provider {
	case "vertex":
		if cfg.LLM.VertexProject == "" {
			errs = append(errs, "VERTEX_PROJECT is required when LLM_PROVIDER=vertex")
		}
	case "openai":
		if cfg.LLM.OpenAIKey == "" {
			errs = append(errs, "OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case "none":
	default:
		errs = append(errs, fmt.Sprintf("LLM_PROVIDER: unknown provider %q", cfg.LLM.Provider))
	}

	switch cfg.Assets.LexiconSource {
	case "builtin", "asset", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("LEXICON_SOURCE: unknown source %q", cfg.Assets.LexiconSource))
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func redisAddr() string {
	for _, k := range []string{"REDIS_ADDR", "REDIS_URI", "REDIS_URL"} {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
