package app

import (
	"time"

	"github.com/alwrity/alwrity-backend/internal/platform/envutil"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	Port string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func LoadConfig() Config {
	return Config{
		ServiceName: envutil.String("SERVICE_NAME", "alwrity-backend"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", ""),

		Port: envutil.String("PORT", "8080"),

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL:  time.Duration(envutil.Int("ACCESS_TOKEN_TTL", 3600)) * time.Second,
		RefreshTokenTTL: time.Duration(envutil.Int("REFRESH_TOKEN_TTL", 604800)) * time.Second,
	}
}
