//	@title			Stylit API
//	@version		1.0
//	@description	Catalog backend for Stylit — user profiles and wardrobe items with image storage.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/stylit/service/internal/config"
	"github.com/stylit/service/internal/db"
	"github.com/stylit/service/internal/item"
	appMiddleware "github.com/stylit/service/internal/middleware"
	"github.com/stylit/service/internal/profile"
	"github.com/stylit/service/internal/storage"

	_ "github.com/stylit/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	store, err := storage.NewMinioStorage(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageUseSSL,
		cfg.PublicBucket,
		cfg.PrivateBucket,
		cfg.StoragePublicBase,
	)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	// Wire dependencies: repository → service → handler
	profileRepo := profile.NewRepository(pool)
	profileSvc := profile.NewService(profileRepo, store, cfg.PublicBucket, cfg.DefaultPfpURL)
	profileHandler := profile.NewHandler(profileSvc)

	itemRepo := item.NewRepository(pool)
	itemSvc := item.NewService(itemRepo, store, cfg.PrivateBucket)
	itemHandler := item.NewHandler(itemSvc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1 — identity is verified upstream; handlers only see the subject
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))

		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", profileHandler.Create)
			r.Get("/", profileHandler.List)
			r.Get("/{id}", profileHandler.Get)
			r.Patch("/{id}", profileHandler.Update)
			r.Delete("/{id}", profileHandler.Delete)
		})

		r.Route("/items", func(r chi.Router) {
			r.Post("/", itemHandler.Create)
			r.Get("/", itemHandler.List)
			r.Get("/{id}", itemHandler.Get)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s)", cfg.Port, cfg.AppEnv)
		log.Printf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
