package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/recordbook/recordbook/handlers"
	"github.com/recordbook/recordbook/internal/config"
	"github.com/recordbook/recordbook/internal/database"
	"github.com/recordbook/recordbook/internal/oidc"
	personhandler "github.com/recordbook/recordbook/internal/person/handler"
	personrepo "github.com/recordbook/recordbook/internal/person/repository"
	personservice "github.com/recordbook/recordbook/internal/person/service"
	photohandler "github.com/recordbook/recordbook/internal/photo/handler"
	photorepo "github.com/recordbook/recordbook/internal/photo/repository"
	photoservice "github.com/recordbook/recordbook/internal/photo/service"
	"github.com/recordbook/recordbook/internal/storage"
	"github.com/recordbook/recordbook/pkg/logger"
	"github.com/recordbook/recordbook/pkg/metrics"
	"github.com/recordbook/recordbook/pkg/middleware"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

// services bundles what the router needs; nil verifier/limiter disable auth
// and rate limiting.
type services struct {
	persons   *personservice.Service
	photos    *photoservice.Service
	verifier  middleware.Verifier
	limiter   middleware.Limiter
	checks    map[string]handlers.Check
	maxUpload int64
}

func newRouter(s services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	handlers.RegisterHealth(r, startTime, s.checks)
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/")
	var guard []gin.HandlerFunc
	if s.verifier != nil {
		// identify first so the limiter keys authenticated callers by subject
		api.Use(middleware.IdentifyMiddleware(s.verifier))
		guard = append(guard, middleware.AuthMiddleware(s.verifier))
	}
	if s.limiter != nil {
		api.Use(middleware.RateLimit(s.limiter))
	}
	personhandler.RegisterPersonRoutes(api, s.persons, guard...)
	photohandler.RegisterPhotoRoutes(api, s.photos, s.maxUpload, guard...)
	return r
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Sync()
	logger.Infow("config loaded",
		"level", logger.LevelString(),
		"env", cfg.Server.Environment,
		"mongo", cfg.MongoDB.URI != "",
		"redis", cfg.Redis.Host != "",
		"minio", cfg.MinIO.Endpoint != "",
		"keycloak", cfg.Keycloak.URL != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	svcs := services{checks: map[string]handlers.Check{}, maxUpload: cfg.Server.MaxUploadBytes}

	var blobs photoservice.BlobStore
	if cfg.MinIO.Endpoint != "" {
		mstore, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Fatalf("minio: %v", err)
		}
		blobs = mstore
		logger.Infof("photo content stored in MinIO bucket %s", cfg.MinIO.Bucket)
	}

	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		db := client.Database(cfg.MongoDB.Database)

		prepo := personrepo.NewMongoRepo(db.Collection(cfg.MongoDB.PersonsCollection))
		if err := prepo.EnsureIndexes(ctx); err != nil {
			logger.Warnf("%v", err)
		}
		svcs.persons = personservice.NewService(prepo)
		svcs.photos = photoservice.NewMongoService(db.Collection(cfg.MongoDB.PhotosCollection), blobs)
		svcs.checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		logger.Infof("using MongoDB database %s", cfg.MongoDB.Database)
	} else {
		logger.Warnf("MONGODB_URI not set: using in-memory repositories")
		svcs.persons = personservice.NewMemoryService()
		svcs.photos = photoservice.NewService(photorepo.NewMemoryRepo(), blobs)
	}

	if cfg.RateLimit.Enabled {
		svcs.limiter = newLimiter(ctx, cfg, svcs.checks)
	}
	svcs.verifier = newVerifier(ctx, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      newRouter(svcs),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("recordbook listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

func newLimiter(ctx context.Context, cfg *config.Config, checks map[string]handlers.Check) middleware.Limiter {
	if cfg.RateLimit.UseRedis && cfg.Redis.Host != "" {
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis ping failed (%v): falling back to in-memory rate limiter", err)
			_ = rc.Close()
		} else {
			checks["redis"] = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
			logger.Infof("rate limiter: redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			return middleware.NewRedisLimiter(rc, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		}
	}
	return middleware.NewMemoryLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

func newVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if issuer := cfg.Keycloak.Issuer(); issuer != "" {
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err == nil {
			logger.Infof("write routes require tokens from %s", issuer)
			return ver
		}
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure token verifier (signatures are NOT checked)")
		return oidc.NewInsecureVerifier()
	}
	return nil
}
