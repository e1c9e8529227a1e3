// Package config loads runtime configuration from environment variables.
package config

import (
	"time"

	"github.com/doantruong120699/voice-cloner-backend/internal/env"
)

type Config struct {
	HTTP     HTTPConfig
	DB       DBConfig
	JWT      JWTConfig
	Google   GoogleConfig
	Firebase FirebaseConfig
	Storage  StorageConfig
	Audio    AudioConfig
	Redis    RedisConfig
}

type HTTPConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type JWTConfig struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type FirebaseConfig struct {
	CredentialsPath string
	ProjectID       string
}

type StorageConfig struct {
	UploadDir     string
	EmbeddingDir  string
	MaxUploadSize int64
}

type AudioConfig struct {
	DefaultSampleRate int
	DefaultFormat     string
}

// RedisConfig is optional; an empty Host disables the embedding cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func FromEnv() Config {
	return Config{
		HTTP: HTTPConfig{
			ListenAddr:      env.String("HTTP_LISTEN_ADDR", ":8000"),
			ReadTimeout:     env.Duration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    env.Duration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     env.Duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: env.Duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		DB: DBConfig{
			Host:     env.String("POSTGRES_HOST", "localhost"),
			Port:     env.String("POSTGRES_PORT", "5432"),
			User:     env.String("POSTGRES_USER", "postgres"),
			Password: env.RequireString("POSTGRES_PASSWORD"),
			Name:     env.String("POSTGRES_DB", "voice_cloner"),
		},
		JWT: JWTConfig{
			Secret:     env.RequireString("SECRET_KEY"),
			Algorithm:  env.String("ALGORITHM", "HS256"),
			AccessTTL:  env.Duration("ACCESS_TOKEN_TTL", 30*time.Minute),
			RefreshTTL: env.Duration("REFRESH_TOKEN_TTL", 720*time.Hour),
		},
		Google: GoogleConfig{
			ClientID:     env.String("GOOGLE_CLIENT_ID", ""),
			ClientSecret: env.String("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  env.String("GOOGLE_REDIRECT_URL", ""),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: env.String("FIREBASE_CREDENTIALS_PATH", ""),
			ProjectID:       env.String("FIREBASE_PROJECT_ID", ""),
		},
		Storage: StorageConfig{
			UploadDir:     env.String("UPLOAD_DIR", "uploads/voices"),
			EmbeddingDir:  env.String("EMBEDDING_DIR", "uploads/embeddings"),
			MaxUploadSize: env.Int64("MAX_UPLOAD_SIZE", 100<<20),
		},
		Audio: AudioConfig{
			DefaultSampleRate: env.Int("DEFAULT_SAMPLE_RATE", 22050),
			DefaultFormat:     env.String("DEFAULT_FORMAT", "wav"),
		},
		Redis: RedisConfig{
			Host:     env.String("REDIS_HOST", ""),
			Port:     env.String("REDIS_PORT", "6379"),
			Password: env.String("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
			TTL:      env.Duration("REDIS_EMBEDDING_TTL", 24*time.Hour),
		},
	}
}
