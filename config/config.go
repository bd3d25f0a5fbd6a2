package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	GRPCPort       string `mapstructure:"GRPC_PORT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	LogMode        string `mapstructure:"LOG_MODE"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBPath     string `mapstructure:"DB_PATH"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	AccessSecret  string        `mapstructure:"ACCESS_SECRET"`
	RefreshSecret string        `mapstructure:"REFRESH_SECRET"`
	AccessTTL     time.Duration `mapstructure:"ACCESS_TTL"`
	RefreshTTL    time.Duration `mapstructure:"REFRESH_TTL"`
	CookieDomain  string        `mapstructure:"COOKIE_DOMAIN"`
	CookieSecure  bool          `mapstructure:"COOKIE_SECURE"`

	MediaBackend string `mapstructure:"MEDIA_BACKEND"`
	MediaRoot    string `mapstructure:"MEDIA_ROOT"`
	GCSBucket    string `mapstructure:"GCS_BUCKET"`
	MaxUploadMB  int64  `mapstructure:"MAX_UPLOAD_MB"`

	DraftTTL time.Duration `mapstructure:"DRAFT_TTL"`

	LoginRateLimit  int64         `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateWindow time.Duration `mapstructure:"LOGIN_RATE_WINDOW"`
}

func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("PORT", ":8080")
	viper.SetDefault("LOG_MODE", "dev")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_PATH", "coursehub.db")
	viper.SetDefault("ACCESS_TTL", 15*time.Minute)
	viper.SetDefault("REFRESH_TTL", 7*24*time.Hour)
	viper.SetDefault("MEDIA_BACKEND", "local")
	viper.SetDefault("MEDIA_ROOT", "./media")
	viper.SetDefault("MAX_UPLOAD_MB", 2048)
	viper.SetDefault("DRAFT_TTL", 24*time.Hour)
	viper.SetDefault("LOGIN_RATE_LIMIT", 5)
	viper.SetDefault("LOGIN_RATE_WINDOW", time.Minute)

	// env-only deployments have no app.env, so every key is bound explicitly
	for _, key := range []string{
		"PORT", "GRPC_PORT", "ALLOWED_ORIGINS", "LOG_MODE",
		"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PATH",
		"REDIS_ADDR", "REDIS_PASSWORD",
		"ACCESS_SECRET", "REFRESH_SECRET", "ACCESS_TTL", "REFRESH_TTL", "COOKIE_DOMAIN", "COOKIE_SECURE",
		"MEDIA_BACKEND", "MEDIA_ROOT", "GCS_BUCKET", "MAX_UPLOAD_MB",
		"DRAFT_TTL", "LOGIN_RATE_LIMIT", "LOGIN_RATE_WINDOW",
	} {
		_ = viper.BindEnv(key)
	}

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = viper.Unmarshal(&config)
	return
}
