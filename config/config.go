package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig is everything the gateway needs at startup. Values come from
// config.yaml (working directory) with CAMPUSMATCH_* env overrides, e.g.
// CAMPUSMATCH_JWT_SECRET, CAMPUSMATCH_MONGO_URI.
type AppConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`

	MongoURI  string `mapstructure:"mongo_uri"`
	MongoDB   string `mapstructure:"mongo_db"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisPass string `mapstructure:"redis_pass"`
	RedisDB   int    `mapstructure:"redis_db"`

	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTTTL    time.Duration `mapstructure:"jwt_ttl"`

	AllowedOrigins []string `mapstructure:"allowed_origins"`

	PresenceTTL   time.Duration `mapstructure:"presence_ttl"`
	SendQueueSize int           `mapstructure:"send_queue_size"`
	FanoutWorkers int           `mapstructure:"fanout_workers"`
	FanoutQueue   int           `mapstructure:"fanout_queue"`
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("mongo_uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo_db", "campusmatch")
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("redis_pass", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("jwt_secret", "dev-secret-change-me")
	v.SetDefault("jwt_ttl", 2*time.Hour)
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("presence_ttl", 5*time.Minute)
	v.SetDefault("send_queue_size", 256)
	v.SetDefault("fanout_workers", 4)
	v.SetDefault("fanout_queue", 1024)

	v.SetEnvPrefix("CAMPUSMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// config file is optional, env + defaults are enough for local runs
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
