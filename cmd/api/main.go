package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lipril/academic/internal/config"
	"github.com/lipril/academic/internal/handler"
	"github.com/lipril/academic/internal/httpmiddleware"
	"github.com/lipril/academic/internal/portal"
	"github.com/lipril/academic/internal/session"
	"github.com/lipril/academic/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func run(cfg config.App) error {
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil && cfg.DatabaseURL != "" {
		// Best-effort degraded startup: serve from the ephemeral store
		// rather than refusing to boot.
		log.Printf("warning: database unavailable, falling back to ephemeral store: %v", err)
		db, err = store.Open("")
	}
	if err != nil {
		return err
	}
	defer db.Close()

	repo := portal.NewRepository(db.Client)
	if db.Persistent() {
		if seeded, err := portal.SeedSampleData(context.Background(), repo); err != nil {
			log.Printf("warning: sample data seeding failed: %v", err)
		} else if seeded {
			log.Println("seeded sample data into empty store")
		}
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	cache := portal.NewEncodingCache(redisClient.Client, cfg.EncodingCacheTTL)
	svc := portal.NewService(repo, cache)
	sessions := session.NewManager(cfg.SecretKey, cfg.SessionTTL)
	h := handler.New(svc, sessions, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin).Handler())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)

	r.StaticFile("/", filepath.Join(cfg.WebDir, "index.html"))
	r.Static("/static", filepath.Join(cfg.WebDir, "static"))

	r.GET("/get_face_encoding/:student_id", h.GetFaceEncoding)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/dashboard", session.Required(sessions), h.Dashboard)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
