package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/waste3d/coursehub/config"
	"github.com/waste3d/coursehub/internal/application/usecase"
	"github.com/waste3d/coursehub/internal/infrastructure/cache"
	"github.com/waste3d/coursehub/internal/infrastructure/database"
	"github.com/waste3d/coursehub/internal/infrastructure/repository"
	"github.com/waste3d/coursehub/internal/infrastructure/security"
	"github.com/waste3d/coursehub/internal/infrastructure/storage"
	"github.com/waste3d/coursehub/internal/media"
	"github.com/waste3d/coursehub/internal/middleware"
	"github.com/waste3d/coursehub/internal/pkg/logger"
	handlers "github.com/waste3d/coursehub/internal/transport/http"
	grpc_server "github.com/waste3d/coursehub/internal/transport/grpc"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic("config load failed: " + err.Error())
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic("logger init failed: " + err.Error())
	}
	defer log.Sync()

	if strings.EqualFold(cfg.LogMode, "prod") || strings.EqualFold(cfg.LogMode, "production") {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		log.Fatal("ACCESS_SECRET and REFRESH_SECRET must be set")
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("DB connect failed", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("DB migrate failed", "error", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis connect failed", "error", err)
	}
	defer rdb.Close()

	var store storage.MediaStore
	switch strings.ToLower(cfg.MediaBackend) {
	case "gcs":
		gcs, err := storage.NewGCSStore(context.Background(), cfg.GCSBucket, log)
		if err != nil {
			log.Fatal("GCS init failed", "error", err)
		}
		defer gcs.Close()
		store = gcs
	default:
		local, err := storage.NewLocalStore(cfg.MediaRoot, log)
		if err != nil {
			log.Fatal("media root init failed", "error", err)
		}
		store = local
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db, rdb)
	videoRepo := repository.NewVideoRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	tokenManager := security.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	tokenCache := cache.NewTokenCache(rdb, cfg.RefreshTTL)
	draftCache := cache.NewDraftCache(rdb, cfg.DraftTTL)

	authUC := usecase.NewAuthUseCase(userRepo, tokenCache, security.NewPasswordHasher(), tokenManager, log)
	access := usecase.NewAccessChecker(courseRepo, videoRepo, enrollmentRepo, log)
	ordering := usecase.NewLessonOrdering(db, courseRepo, videoRepo)
	courseUC := usecase.NewCourseUseCase(courseRepo, videoRepo, enrollmentRepo, access, ordering, draftCache, store, log)

	responder := media.NewResponder(store, log)
	maxUpload := cfg.MaxUploadMB << 20
	loginRule := middleware.RateRule{Scope: "login", Requests: cfg.LoginRateLimit, Window: cfg.LoginRateWindow}

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth: handlers.NewAuthHandler(authUC, handlers.CookieConfig{
			Domain:     cfg.CookieDomain,
			Secure:     cfg.CookieSecure,
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		}, log),
		Courses:        handlers.NewCourseHandler(courseUC, responder, maxUpload, log),
		Videos:         handlers.NewVideoHandler(courseUC, responder, maxUpload, log),
		Limiter:        middleware.NewRateLimiter(rdb, log),
		LoginRule:      loginRule,
		Validator:      authUC,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var healthSrv *grpc_server.HealthServer
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", cfg.GRPCPort)
		if err != nil {
			log.Fatal("gRPC listen failed", "error", err)
		}
		healthSrv = grpc_server.NewHealthServer(log)
		go func() {
			if err := healthSrv.Serve(lis); err != nil {
				log.Error("gRPC health server stopped", "error", err)
			}
		}()
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", "error", err)
		}
	}()

	if healthSrv != nil {
		if sqlDB, err := db.DB(); err == nil && sqlDB.Ping() == nil {
			healthSrv.SetServing(true)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if healthSrv != nil {
		healthSrv.SetServing(false)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP shutdown failed", "error", err)
	}
	if healthSrv != nil {
		healthSrv.Shutdown()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
