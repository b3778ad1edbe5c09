package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Stripe    StripeConfig
	Auth      AuthConfig
	Model     ModelConfig
	Recommend RecommendConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	RateLimit    int
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	GroupID       string
	BookingTopic  string
	MockMode      bool
	ConsumeEvents bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
	QuoteTTL time.Duration
	GroupTTL time.Duration
}

type StripeConfig struct {
	SecretKey        string
	Currency         string
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

type ModelConfig struct {
	Path       string
	Ridge      float64
	MinSamples int
	Watch      bool
}

type RecommendConfig struct {
	DefaultK int
	MaxK     int
}

type LogConfig struct {
	Level string
	File  string
}

// Load reads the configuration from the environment. Call godotenv.Load
// beforehand to pick up a .env file.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", ":8085"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RateLimit:    getInt("SERVER_RATE_LIMIT", 100),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("STORAGE_DRIVER", "mysql"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "3306"),
			Username:     getEnv("DB_USER", "root"),
			Password:     getEnv("DB_PASS", "password"),
			Database:     getEnv("DB_NAME", "booking_intelligence"),
			MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDuration("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:       getList("KAFKA_BROKERS", []string{"localhost:29092"}),
			GroupID:       getEnv("KAFKA_GROUP_ID", "booking-intelligence"),
			BookingTopic:  getEnv("KAFKA_BOOKING_TOPIC", "booking-events"),
			MockMode:      getBool("KAFKA_MOCK", false),
			ConsumeEvents: getBool("KAFKA_CONSUME", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
			CacheTTL: getDuration("RECOMMEND_CACHE_TTL", 5*time.Minute),
			QuoteTTL: getDuration("QUOTE_TTL", 15*time.Minute),
			GroupTTL: getDuration("AB_GROUP_TTL", 30*24*time.Hour),
		},
		Stripe: StripeConfig{
			SecretKey:        os.Getenv("STRIPE_SECRET_KEY"),
			Currency:         strings.ToLower(getEnv("STRIPE_CURRENCY", "usd")),
			BreakerThreshold: uint32(getInt("STRIPE_BREAKER_THRESHOLD", 3)),
			BreakerTimeout:   getDuration("STRIPE_BREAKER_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			Issuer:    getEnv("JWT_ISSUER", "booking-platform"),
		},
		Model: ModelConfig{
			Path:       getEnv("MODEL_PATH", "ai-model/room_model.json"),
			Ridge:      getFloat("MODEL_RIDGE", 0.001),
			MinSamples: getInt("MODEL_MIN_SAMPLES", 10),
			Watch:      getBool("MODEL_WATCH", true),
		},
		Recommend: RecommendConfig{
			DefaultK: getInt("RECOMMEND_DEFAULT_K", 3),
			MaxK:     getInt("RECOMMEND_MAX_K", 5),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
			File:  os.Getenv("LOG_FILE"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
