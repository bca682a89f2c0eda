package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Remote    RemoteConfig    `mapstructure:"remote"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Training  TrainingConfig  `mapstructure:"training"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// StoreConfig locates the local key-value store file. An empty path means
// a volatile in-memory store (useful for demos and tests).
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// RemoteConfig describes the optional remote mirror. When disabled every
// operation runs against the local store only.
type RemoteConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Database DatabaseConfig
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string `mapstructure:"dbname"`
	Charset   string
	ParseTime bool `mapstructure:"parse_time"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// TrainingConfig carries the curriculum constants. The defaults are the
// portal's shipped values: 25 videos, 25 quizzes, level-up at 5+5.
type TrainingConfig struct {
	TotalVideos         int `mapstructure:"total_videos"`
	TotalQuizzes        int `mapstructure:"total_quizzes"`
	LevelVideoThreshold int `mapstructure:"level_video_threshold"`
	LevelQuizThreshold  int `mapstructure:"level_quiz_threshold"`
	RosterCacheSeconds  int `mapstructure:"roster_cache_seconds"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("SKY266")
	viper.AutomaticEnv()

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Local store
	viper.BindEnv("store.path", "STORE_PATH")

	// Remote mirror
	viper.BindEnv("remote.enabled", "REMOTE_ENABLED")
	viper.BindEnv("remote.database.host", "DATABASE_HOST")
	viper.BindEnv("remote.database.port", "DATABASE_PORT")
	viper.BindEnv("remote.database.user", "DATABASE_USER")
	viper.BindEnv("remote.database.password", "DATABASE_PASSWORD")
	viper.BindEnv("remote.database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	viper.SetDefault("training.total_videos", 25)
	viper.SetDefault("training.total_quizzes", 25)
	viper.SetDefault("training.level_video_threshold", 5)
	viper.SetDefault("training.level_quiz_threshold", 5)
	viper.SetDefault("training.roster_cache_seconds", 30)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	return &cfg, nil
}
