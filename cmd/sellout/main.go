package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/unrelentingtech/sellout/internal/api"
	"github.com/unrelentingtech/sellout/internal/auth"
	"github.com/unrelentingtech/sellout/internal/media"
	"github.com/unrelentingtech/sellout/internal/oauth"
	"github.com/unrelentingtech/sellout/internal/post"
	"github.com/unrelentingtech/sellout/internal/storage"
	"github.com/unrelentingtech/sellout/internal/ui"
)

const prefix = "/.sellout"

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	needRedis := cfg.CredentialMode == "redis" || cfg.SessionMode == "redis"
	if needRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
	}
	memoryStorage := storage.NewMemoryStorage()

	// Setup credential storage
	var creds storage.CredentialStore
	switch cfg.CredentialMode {
	case "redis":
		creds = storage.NewRedisStorage(redisClient)
		slog.Info("Using Redis credentials", "addr", cfg.Redis.Addr)
	case "memory":
		creds = memoryStorage
		slog.Warn("Using in-memory credentials (tokens are lost on restart)")
	default:
		slog.Error("Invalid CREDENTIAL_MODE", "mode", cfg.CredentialMode, "valid_modes", []string{"redis", "memory"})
		os.Exit(1)
	}

	// Setup session storage
	var sessions storage.SessionStorage
	switch cfg.SessionMode {
	case "redis":
		sessions = storage.NewRedisStorage(redisClient)
		slog.Info("Using Redis sessions", "addr", cfg.Redis.Addr)
	case "memory":
		sessions = memoryStorage
		slog.Warn("Using in-memory sessions (not persistent)")
	default:
		slog.Error("Invalid SESSION_MODE", "mode", cfg.SessionMode, "valid_modes", []string{"redis", "memory"})
		os.Exit(1)
	}

	// Setup the content repository
	posts, err := post.NewGitStore(cfg.Git.RepoPath, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		slog.Error("Failed to open content repository", "error", err, "path", cfg.Git.RepoPath)
		os.Exit(1)
	}

	// Setup media storage
	uploader, err := media.NewUploader(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, cfg.S3.MediaURL, cfg.S3.UseSSL)
	if err != nil {
		slog.Error("Failed to create media uploader", "error", err)
		os.Exit(1)
	}

	targets, err := api.LoadSyndicateTargets(cfg.SyndicateFile)
	if err != nil {
		slog.Error("Failed to load syndication targets", "error", err)
		os.Exit(1)
	}

	// Setup services
	authenticator := auth.NewAuthenticator(creds)
	oauthService := oauth.NewService(creds)
	apiServer := api.NewServer(authenticator, oauthService, posts, uploader, targets, cfg.PathPrefix)
	uiHandlers, err := ui.NewHandlers(sessions, oauthService, cfg.PasswordHash, prefix)
	if err != nil {
		slog.Error("Failed to create UI handlers", "error", err)
		os.Exit(1)
	}

	if err := api.RegisterMetrics(nil); err != nil {
		slog.Error("Failed to register metrics", "error", err)
		os.Exit(1)
	}

	// Setup routes
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(api.Forwarded)
	r.Use(api.WithMetrics)
	r.Use(api.RequestLogger)
	r.Use(api.SecurityHeaders)
	r.Use(api.Authenticate(authenticator, sessions))

	r.Get("/", uiHandlers.LandingHandler)
	r.Get("/health", apiServer.HealthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route(prefix, func(r chi.Router) {
		r.Get("/login", uiHandlers.LoginGetHandler)
		r.Post("/login", uiHandlers.LoginPostHandler)

		r.Group(func(r chi.Router) {
			r.Use(api.RequireSession(prefix + "/login"))
			r.Get("/", uiHandlers.DashboardHandler)
			r.Get("/authz", uiHandlers.AuthzGetHandler)
			r.Post("/allow", uiHandlers.AllowHandler)
			r.Post("/logout", uiHandlers.LogoutHandler)
		})

		r.Post("/authz", apiServer.AuthzPostHandler)
		r.Get("/token", apiServer.TokenGetHandler)
		r.Post("/token", apiServer.TokenPostHandler)

		r.Group(func(r chi.Router) {
			r.Use(api.RequireScope())
			r.Get("/pub", apiServer.MicropubGetHandler)
		})
		// POST /pub and /media do their own auth: the token may arrive in
		// the form body.
		r.Post("/pub", apiServer.MicropubPostHandler)
		r.Post("/media", apiServer.MediaHandler)
	})

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	slog.Info("Starting server", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
