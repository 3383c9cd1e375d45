package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// 永続化ドライバ
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

// Config はアプリケーション設定を表す
type Config struct {
	Env         string
	Server      ServerConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Reservation ReservationConfig
	Payment     PaymentConfig
	Metrics     MetricsConfig
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig は永続化層の共通設定
type StoreConfig struct {
	Driver         string
	Timeout        time.Duration // 1回の読み書きの上限
	MigrationsPath string
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MongoConfig はMongoDB設定
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
	Timeout  time.Duration // 接続・読み書きの上限
}

// KafkaConfig は決済イベント購読の設定（Brokers が空なら無効）
type KafkaConfig struct {
	Brokers      []string
	PaymentTopic string
	GroupID      string
}

// ReservationConfig は予約まわりの設定
type ReservationConfig struct {
	HoldTTL           time.Duration
	HoldSweepInterval time.Duration
	PromotionInterval time.Duration
	LockTTL           time.Duration
}

// PaymentConfig は決済Webhookの設定
type PaymentConfig struct {
	WebhookSecret string
}

// MetricsConfig はメトリクス認証の設定
type MetricsConfig struct {
	User     string
	Password string
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	return &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Driver:         getEnv("STORE_DRIVER", StoreDriverPostgres),
			Timeout:        getDurationEnv("STORE_TIMEOUT", 3*time.Second),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "equipment_rental"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "equipment_rental"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			PoolSize: getIntEnv("REDIS_POOL_SIZE", 10),
			Timeout:  getDurationEnv("REDIS_TIMEOUT", 2*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      getListEnv("KAFKA_BROKERS"),
			PaymentTopic: getEnv("KAFKA_PAYMENT_TOPIC", "payments.completed"),
			GroupID:      getEnv("KAFKA_GROUP_ID", "equipment-rental"),
		},
		Reservation: ReservationConfig{
			HoldTTL:           getDurationEnv("HOLD_TTL", 15*time.Minute),
			HoldSweepInterval: getDurationEnv("HOLD_SWEEP_INTERVAL", time.Minute),
			PromotionInterval: getDurationEnv("PROMOTION_INTERVAL", 24*time.Hour),
			LockTTL:           getDurationEnv("LOCK_TTL", 10*time.Second),
		},
		Payment: PaymentConfig{
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		},
		Metrics: MetricsConfig{
			User:     getEnv("METRICS_USER", ""),
			Password: getEnv("METRICS_PASSWORD", ""),
		},
	}
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Enabled はKafka購読が有効かを返す
func (c *KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// IsEnabled はメトリクス認証が有効かを返す
func (c *MetricsConfig) IsEnabled() bool {
	return c.User != "" && c.Password != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getListEnv はカンマ区切りの値を読み込む（空要素は除く）
func getListEnv(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
