package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret     string        `env:"JWT_SECRET, required"`
	JWTExpiration time.Duration `env:"JWT_EXPIRATION, default=1h"`
	BcryptCost    int           `env:"BCRYPT_COST, default=10"`

	CredentialDB CredentialDBConfig
	ProfileDB    ProfileDBConfig
	Redis        RedisConfig
}

// CredentialDBConfig points at the PostgreSQL authentication database.
type CredentialDBConfig struct {
	DSN string `env:"CREDENTIAL_DB_DSN, default=postgres://localhost:5432/auth_users?sslmode=disable"`
}

// ProfileDBConfig points at the MongoDB profile database.
type ProfileDBConfig struct {
	URI      string `env:"PROFILE_DB_URI, default=mongodb://localhost:27017"`
	Database string `env:"PROFILE_DB_NAME, default=user_profiles"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,  default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
