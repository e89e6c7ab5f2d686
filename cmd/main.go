package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feed_service/internal/auth"
	"feed_service/internal/config"
	"feed_service/internal/feed"
	"feed_service/internal/files"
	gql "feed_service/internal/graphql"
	"feed_service/internal/http_server/handlers/login"
	"feed_service/internal/http_server/handlers/postimage"
	"feed_service/internal/http_server/handlers/posts"
	"feed_service/internal/http_server/handlers/signup"
	"feed_service/internal/http_server/handlers/status"
	"feed_service/internal/lib/jwt"
	"feed_service/internal/middleware/authgate"
	rateLimit "feed_service/internal/middleware/ratelimit"
	"feed_service/internal/rabbitmq"
	"feed_service/internal/storage/mongo"
	"feed_service/internal/storage/redis"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
	graphqlgo "github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting feed service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := mongo.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect mongo", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close(context.Background())

	cache, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer cache.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer msgBroker.Close()

	images, err := files.New(cfg.Images.Dir)
	if err != nil {
		log.Error("failed to init image store", slog.String("err", err.Error()))
		os.Exit(1)
	}

	tokens := jwt.New(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := auth.New(log, storage, storage, tokens, cfg.Auth.BcryptCost)
	feedService := feed.New(log, storage, storage, storage, images, msgBroker, cache)

	validate := validator.New()

	schema, err := gql.NewSchema(log, authService, feedService, validate)
	if err != nil {
		log.Error("failed to build graphql schema", slog.String("err", err.Error()))
		os.Exit(1)
	}

	router := setupRouter(log, cfg, tokens, validate, authService, feedService, images, schema)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	cfg *config.Config,
	tokens *jwt.TokenService,
	validate *validator.Validate,
	authService *auth.Auth,
	feedService *feed.Feed,
	images *files.Store,
	schema graphqlgo.Schema,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsHeaders)
	r.Use(authgate.New(tokens))

	r.With(rateLimit.Signup()).Post("/signup",
		signup.New(log, validate, authService),
	)
	r.With(rateLimit.Login()).Post("/login",
		login.New(log, authService),
	)
	r.Get("/status",
		status.NewGet(log, authService),
	)
	r.Put("/status",
		status.NewUpdate(log, validate, authService),
	)
	r.Get("/posts",
		posts.NewList(log, feedService),
	)
	r.Post("/posts",
		posts.NewCreate(log, validate, feedService, images),
	)
	r.Get("/posts/{id}",
		posts.NewGet(log, feedService),
	)
	r.Put("/posts/{id}",
		posts.NewUpdate(log, validate, feedService, images),
	)
	r.Delete("/posts/{id}",
		posts.NewDelete(log, feedService),
	)
	r.With(rateLimit.Upload()).Post("/post-image",
		postimage.New(log, images),
	)

	r.Handle("/graphql", handler.New(&handler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: true,
	}))

	fileServer := http.StripPrefix("/"+cfg.Images.Dir+"/", http.FileServer(http.Dir(cfg.Images.Dir)))
	r.Get("/"+cfg.Images.Dir+"/*", fileServer.ServeHTTP)

	return r
}

func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "OPTIONS, GET, POST, PUT, PATCH, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
