package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"musee/cache"
	"musee/config"
	"musee/logger"
	"musee/storage"

	"github.com/gorilla/mux"
)

// Start initializes storage and cache connections and runs the HTTP server
// until SIGINT/SIGTERM.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
	})

	store, err := storage.NewClient(storage.Options{
		Endpoint:          cfg.MinioEndpoint,
		AccessKey:         cfg.MinioAccessKey,
		SecretKey:         cfg.MinioSecretKey,
		Bucket:            cfg.MinioBucket,
		Region:            cfg.MinioRegion,
		UseSSL:            cfg.MinioUseSSL,
		UploadConcurrency: cfg.UploadConcurrency,
	})
	if err != nil {
		logger.Fatal("failed to initialize storage", logger.ErrorField(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureBucket(ctx, cfg.MinioRegion); err != nil {
		cancel()
		logger.Fatal("failed to ensure bucket", logger.ErrorField(err))
	}
	cancel()

	// The playlist cache is optional; serving works without it.
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("redis unavailable, playlist caching disabled", logger.ErrorField(err))
	}
	defer cache.CloseRedis()

	router := NewRouter(store, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}
}

// NewRouter builds the HTTP routes for HLS and progressive playback.
func NewRouter(store *storage.Client, cfg *config.Config) *mux.Router {
	handler := NewStreamHandler(store, cfg.SignedURLTTL)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/tracks/{id}").Subrouter()
	api.HandleFunc("/hls/master.m3u8", handler.GetMaster).Methods(http.MethodGet)
	api.HandleFunc("/hls/v{bitrate}/index.m3u8", handler.GetVariant).Methods(http.MethodGet)
	api.HandleFunc("/audio/{bitrate}", handler.GetProgressive).Methods(http.MethodGet)

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
