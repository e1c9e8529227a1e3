package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/doantruong120699/voice-cloner-backend/internal/config"
	"github.com/doantruong120699/voice-cloner-backend/internal/embedcache"
	"github.com/doantruong120699/voice-cloner-backend/internal/engine"
	"github.com/doantruong120699/voice-cloner-backend/internal/identity"
	"github.com/doantruong120699/voice-cloner-backend/internal/middleware"
	"github.com/doantruong120699/voice-cloner-backend/internal/rest"
	"github.com/doantruong120699/voice-cloner-backend/internal/router"
	"github.com/doantruong120699/voice-cloner-backend/internal/service"
	"github.com/doantruong120699/voice-cloner-backend/internal/store"
	"github.com/doantruong120699/voice-cloner-backend/internal/token"
)

func run(ctx context.Context) error {
	slog.Info("starting voice clone api")

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}

	cfg := config.FromEnv()

	db, err := store.NewPostgresDB(store.PostgresConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DB:       cfg.DB.Name,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer db.Close()

	pgs := store.NewPostgresStore(db)

	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.EmbeddingDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create storage dir %s: %w", dir, err)
		}
	}

	google, err := identity.NewGoogle(ctx, identity.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create google verifier: %w", err)
	}

	authOpts := []service.AuthOption{
		service.WithStore(pgs),
		service.WithGoogle(google),
		service.WithAccessToken(token.NewIssuer(token.IssuerConfig{
			Secret:    cfg.JWT.Secret,
			Algorithm: cfg.JWT.Algorithm,
			Type:      token.TypeAccess,
			TTL:       cfg.JWT.AccessTTL,
		})),
		service.WithRefreshToken(token.NewIssuer(token.IssuerConfig{
			Secret:    cfg.JWT.Secret,
			Algorithm: cfg.JWT.Algorithm,
			Type:      token.TypeRefresh,
			TTL:       cfg.JWT.RefreshTTL,
		})),
	}

	if projectID := identity.ResolveFirebaseProjectID(cfg.Firebase.CredentialsPath, cfg.Firebase.ProjectID); projectID != "" {
		firebase, err := identity.NewFirebase(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to create firebase verifier: %w", err)
		}
		authOpts = append(authOpts, service.WithFirebase(firebase))
		slog.Info("firebase token verification enabled", "project_id", projectID)
	}

	authSrv := service.NewAuth(authOpts...)

	stub := engine.NewStub()
	voiceSrv := service.NewVoice(service.VoiceConfig{
		Store:        pgs,
		Embedder:     stub,
		Synthesizer:  stub,
		Cache:        newEmbeddingCache(cfg.Redis),
		UploadDir:    cfg.Storage.UploadDir,
		EmbeddingDir: cfg.Storage.EmbeddingDir,
	})

	authn := middleware.Auth(authSrv)

	r := router.New()
	r.Use(middleware.Log(), middleware.Recover())
	r.HandleFunc("GET /health", rest.HandleHealth)

	authRouter := r.SubRouter("/auth")
	authRouter.Handle("/", rest.NewAuthAPI(authSrv, authn))

	voicesAPI := rest.NewVoicesAPI(voiceSrv, authn, rest.VoicesConfig{
		MaxUploadSize:     cfg.Storage.MaxUploadSize,
		DefaultSampleRate: cfg.Audio.DefaultSampleRate,
		DefaultFormat:     cfg.Audio.DefaultFormat,
	})
	r.Handle("/voices", voicesAPI)
	r.Handle("/voices/", voicesAPI)

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.ListenAddr,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		Handler:      r,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func newEmbeddingCache(cfg config.RedisConfig) embedcache.Cache {
	if cfg.Host == "" {
		slog.Info("redis not configured, embedding cache disabled")
		return nil
	}

	return embedcache.NewRedis(embedcache.RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
		TTL:      cfg.TTL,
	})
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("voice clone api terminated with error", "error", err)
		os.Exit(1)
	}
}
