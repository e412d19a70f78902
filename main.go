package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ideatoapp/chatgateway/global"
	"github.com/ideatoapp/chatgateway/logger"
	"github.com/ideatoapp/chatgateway/service/gateway"
	"github.com/ideatoapp/chatgateway/service/gateway/handlers"
	"github.com/ideatoapp/chatgateway/service/rest"
	"github.com/ideatoapp/chatgateway/storage"
	"github.com/ideatoapp/chatgateway/tools/security"
)

func main() {
	cfg, err := global.Load()
	if err != nil {
		logger.Errorf("[main] config: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Errorf("[main] postgres: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	// presence cache is optional: without redis the gateway still runs,
	// only the cross-service lookup goes dark
	var cache *storage.Presence
	cache, err = storage.NewPresence(ctx, storage.PresenceConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.PresenceTTL,
	})
	if err != nil {
		logger.Warnf("[main] redis unavailable, presence cache disabled: %v", err)
		cache = nil
	}

	jwtOpts := security.DefaultOptions(cfg.JWTSecret)
	jwtOpts.TTL = cfg.TokenTTL

	gw := gateway.NewServer(gateway.ServerConfig{
		NodeID:            "gw-" + strconv.FormatInt(cfg.NodeID, 10),
		JWT:               jwtOpts,
		HeartbeatInterval: cfg.HeartbeatInterval,
		SendQueueSize:     cfg.SendQueueSize,
		FanoutWorkers:     cfg.FanoutWorkers,
	}, store, cache)
	handlers.RegisterAll(gw.Dispatcher())
	gw.Run()

	router := rest.NewRouter(gw, store, jwtOpts)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: router}

	go func() {
		logger.Infof("[main] listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("[main] serve: %v", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown: stop accepting, close live connections, exit
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("[main] shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("[main] http shutdown: %v", err)
	}
	gw.Shutdown(shutdownCtx)
	if cache != nil {
		_ = cache.Close()
	}
	logger.Info("[main] server closed")
}
