package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/weiawesome/user-avatar-service/pkg/config"
	"github.com/weiawesome/user-avatar-service/pkg/log"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Storage  StorageConfig
	Upstream UpstreamConfig
	Notify   NotifyConfig
	JWT      JWTConfig `mapstructure:"jwt"`
	Log      log.Config
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, mysql, sqlite, mongo
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type MongoConfig struct {
	URI              string        `mapstructure:"uri"`
	Database         string        `mapstructure:"database"`
	AvatarCollection string        `mapstructure:"avatar_collection"`
	UserCollection   string        `mapstructure:"user_collection"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // local, s3
	Local  LocalStorageConfig
	S3     S3StorageConfig `mapstructure:"s3"`
}

type LocalStorageConfig struct {
	BasePath string `mapstructure:"base_path"`
}

type S3StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type UpstreamConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
	VerifyImage   bool          `mapstructure:"verify_image"`
}

type NotifyConfig struct {
	Driver string `mapstructure:"driver"` // kafka, redis, none
	Topic  string `mapstructure:"topic"`
	Kafka  KafkaConfig
	Redis  RedisConfig
}

type KafkaConfig struct {
	Brokers    string `mapstructure:"brokers"`
	Partitions int    `mapstructure:"partitions"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	Expires     time.Duration `mapstructure:"expires"`
	Issuer      string        `mapstructure:"issuer"`
	RequireAuth bool          `mapstructure:"require_auth"`
}

var defaults = map[string]interface{}{
	"server.host":             "0.0.0.0",
	"server.port":             3000,
	"server.read_timeout":     "15s",
	"server.write_timeout":    "30s",
	"server.shutdown_timeout": "15s",

	"database.driver":            "sqlite",
	"database.host":              "localhost",
	"database.port":              5432,
	"database.user":              "postgres",
	"database.password":          "postgres",
	"database.dbname":            "user_avatar",
	"database.sslmode":           "disable",
	"database.file_path":         "./data/user_avatar.db",
	"database.max_idle_conns":    10,
	"database.max_open_conns":    100,
	"database.conn_max_lifetime": 60,
	"database.log_level":         "warn",

	"mongo.uri":               "mongodb://localhost:27017",
	"mongo.database":          "user_avatar",
	"mongo.avatar_collection": "avatars",
	"mongo.user_collection":   "users",
	"mongo.connect_timeout":   "10s",

	"storage.driver":          "local",
	"storage.local.base_path": "./data/avatars",
	"storage.s3.region":       "us-east-1",
	"storage.s3.bucket":       "avatars",

	"upstream.base_url":        "https://reqres.in/api",
	"upstream.timeout":         "10s",
	"upstream.rate_per_second": 10,
	"upstream.burst":           5,
	"upstream.max_image_bytes": 5 << 20,
	"upstream.verify_image":    true,

	"notify.driver":           "none",
	"notify.topic":            "email_send_event",
	"notify.kafka.brokers":    "localhost:9092",
	"notify.kafka.partitions": 1,
	"notify.redis.address":    "localhost:6379",
	"notify.redis.pool_size":  10,

	"jwt.expires":      "24h",
	"jwt.issuer":       "user-avatar-service",
	"jwt.require_auth": false,

	"log.level":        "info",
	"log.service_name": "user-avatar-service",
}

var envBindings = map[string]string{
	"server.port":                  "PORT",
	"database.driver":              "DB_DRIVER",
	"database.host":                "DB_HOST",
	"database.port":                "DB_PORT",
	"database.user":                "DB_USER",
	"database.password":            "DB_PASSWORD",
	"database.dbname":              "DB_NAME",
	"database.sslmode":             "DB_SSLMODE",
	"database.file_path":           "DB_FILE_PATH",
	"mongo.uri":                    "MONGO_URI",
	"storage.local.base_path":      "AVATAR_DIR",
	"storage.s3.access_key_id":     "AWS_ACCESS_KEY_ID",
	"storage.s3.secret_access_key": "AWS_SECRET_ACCESS_KEY",
	"upstream.base_url":            "UPSTREAM_BASE_URL",
	"upstream.api_key":             "UPSTREAM_API_KEY",
	"notify.kafka.brokers":         "KAFKA_BROKERS",
	"notify.redis.address":         "REDIS_ADDRESS",
	"notify.redis.password":        "REDIS_PASSWORD",
	"jwt.secret":                   "JWT_SECRET",
	"log.level":                    "LOG_LEVEL",
}

// Load reads ./config/config.yaml, environment variables and defaults.
func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	pkgconfig.SetDefaults(v, defaults)
	if err := pkgconfig.BindEnvs(v, envBindings); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite", "mongo":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "local":
		if c.Storage.Local.BasePath == "" {
			return fmt.Errorf("storage.local.base_path is required")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}

	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	return nil
}
