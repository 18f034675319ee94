package main

import (
	"agora/auth"
	"agora/cluster"
	"agora/contract"
	resthttp "agora/infrastructure/http"
	"agora/infrastructure/push"
	"agora/infrastructure/storage"
	"agora/infrastructure/ws"
	"agora/internal"
	"agora/moderation"
	"agora/runtime"
	"agora/runtime/workers"
	"agora/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/database"
	grpclog "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Gateway terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.Load()
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)
	node := config.NodeID
	if node == "" {
		node = defaultNodeID()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB)
	db, err := storage.Open(config.BadgerFilepath)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, inspectMapper)
	}

	// 3. Cluster fanout
	adapter, err := cluster.New(ctx, logger, config.ClusterURL, config.ClusterChannel, node)
	if err != nil {
		return exitConfig, err
	}
	defer func() { _ = adapter.Close() }()

	// 4. Realtime core
	identities := storage.NewIdentityRepository(db, logger)
	presence := runtime.NewPresence()
	router := runtime.NewRouter(logger, adapter)
	verifier := auth.NewTokenVerifier(config.JWTSecret, config.JWTIssuer)
	gateway := auth.NewSessionGateway(logger, verifier, identities, presence, router, config.AuthCookieName)

	var pusher contract.Pusher = push.Noop{}
	if config.PushEnabled {
		vapid := push.VAPID{PublicKey: config.VAPIDPublicKey, PrivateKey: config.VAPIDPrivateKey, Subscriber: config.VAPIDSubscriber}
		var webPush *push.WebPusher
		if vapid.Configured() {
			webPush = push.NewWebPusher(logger, vapid, config.PushTTL, config.PushTimeout)
		} else {
			logger.Warn("No VAPID keys, browser push subscriptions will be refused")
		}
		pusher = push.NewDispatcher(webPush, push.NewWebhookPusher(logger, config.PushTimeout))
	}
	notifications := services.NewNotificationService(logger,
		storage.NewNotificationRepository(db, logger, config.NotificationRetention),
		storage.NewPreferenceRepository(db, logger),
		storage.NewPushRepository(db, logger),
		identities, presence, router, pusher,
		config.DebounceWindow, config.PushTimeout)
	chat := services.NewChatService(logger, storage.NewChatRepository(db, logger), identities, router, notifications, config.HistoryPageSize)
	replacement, _ := internal.CharacterRune(config.CharReplacement)
	filter, err := moderation.NewFilter(config.Words(), replacement)
	if err != nil {
		return exitConfig, fmt.Errorf("censored words: %w", err)
	}
	if filter != nil {
		chat.WithFilter(filter)
	}
	relay := services.NewSignalRelay(router)
	lounge := services.NewLoungeService(logger, runtime.NewLounge(), router)

	// 5. Supervised workers
	supervisor := workers.NewSupervisor(logger, config.RestartInterval).
		WithBackoff(config.MaxRestartBackoff).
		WithRestartBudget(config.RestartBudget)
	stats := workers.NewNodeStatsWorker(logger, node, adapter.Mode(), config.StatsInterval, presence, router, supervisor)
	supervisor.Add(
		workers.NewClusterSubscriberWorker(logger, adapter, router),
		stats,
		workers.NewRetentionWorker(logger, db, config.RetentionInterval),
	)
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	// 6. HTTP & websocket
	options := ws.Options{
		BufferSize:    config.ConnectionBufferSize,
		PingPeriod:    config.PingPeriod,
		PongTimeout:   config.PongTimeout,
		WriteTimeout:  config.WriteTimeout,
		MaxFrameBytes: config.MaxFrameBytes,
	}
	realtime := ws.NewServer(logger, gateway, chat, relay, lounge, router, options, config.Origins())
	handler := resthttp.NewHandler(logger, gateway, chat, notifications, identities, stats, config.InternalAPIKey)
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(config.Host, fmt.Sprint(config.HTTPPort)),
		Handler:           resthttp.NewRouter(handler, realtime),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 7. gRPC health
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpclog.UnaryLoggingInterceptor(logger)))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcAddress := net.JoinHostPort(config.Host, fmt.Sprint(config.GRPCPort))
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}

	errChan := make(chan error, 2)
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr, "node", node, "cluster", adapter.Mode())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
	go func() {
		logger.Info("Starting gRPC health server", "address", grpcAddress)
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	code := exitOK
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err = <-errChan:
		logger.Error("Server failed", "error", err)
		code = exitRuntime
	}

	// 9. Graceful shutdown: refuse new work, detach live sessions, drain pushes
	logger.Info("Shutting down gracefully...")
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	if err := realtime.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Websocket sessions still open", "error", err)
	}
	grpcServer.GracefulStop()
	supervisor.Stop()
	<-supervisorDone
	notifications.Wait()
	logger.Info("Program stopped cleanly")

	return code, err
}

func defaultNodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "agora"
	}
	return host + "-" + uuid.NewString()[:8]
}

// inspectMapper labels every row with the entity its key prefix names.
func inspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	if prefix, _, ok := strings.Cut(key, ":"); ok {
		row.Type = strings.ToUpper(prefix)
	}
	row.Detail = string(val)
	return row
}
