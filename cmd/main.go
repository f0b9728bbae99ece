package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/navifare/mcp-server/internal/app/config"
	"github.com/navifare/mcp-server/internal/app/dto"
	"github.com/navifare/mcp-server/internal/app/endpoints"
	"github.com/navifare/mcp-server/internal/app/service"
	"github.com/navifare/mcp-server/internal/app/transport"
	"github.com/navifare/mcp-server/internal/pkg/logger"
	"github.com/navifare/mcp-server/internal/pkg/navifare"
	"github.com/navifare/mcp-server/internal/pkg/nlparse"
	"github.com/navifare/mcp-server/internal/pkg/offerstore"
	"github.com/navifare/mcp-server/internal/pkg/poller"
)

func main() {
	cfg := config.MustInitConfig(".env")
	logger.InitStructuredLogger(cfg.LogLevel)

	slog.Debug("config loaded successfully", slog.Any("transport", cfg.Transport))
	runApp(cfg)
}

func runApp(cfg config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.InfoContext(ctx, "starting...",
		slog.String("log_level", string(cfg.LogLevel)),
		slog.String("transport", string(cfg.Transport)))

	if err := dto.InitValidator(); err != nil {
		slog.ErrorContext(ctx, "failed to init validator", slog.String("error", err.Error()))
		panic(err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	handler, cleanup := makeHandler(ctx, &cfg, redisClient)
	defer cleanup()

	var waitGroup sync.WaitGroup

	waitGroup.Add(1)
	go func() {
		defer waitGroup.Done()

		switch cfg.Transport {
		case config.TransportHTTP:
			startHTTPServer(ctx, cancel, cfg, handler, redisClient)
		default:
			startStdioServer(ctx, cancel, cfg, handler)
		}
	}()

	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case sig := <-sigChannel:
		cancel()
		slog.InfoContext(ctx, "received OS signal. Exiting...", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	waitGroup.Wait()
	slog.InfoContext(ctx, "All service closed...")
}

func startHTTPServer(ctx context.Context, cancel context.CancelFunc, cfg config.Config,
	handler *transport.Handler, redisClient *redis.Client,
) {
	limiter := redis_rate.NewLimiter(redisClient)
	router := transport.MakeHTTPRouter(&cfg, handler, limiter, slog.Default())
	server := &http.Server{
		Handler:      router,
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		WriteTimeout: cfg.HTTP.Timeout,
		ReadTimeout:  cfg.HTTP.Timeout,
	}

	slog.Info("running HTTP server...", slog.Int("port", cfg.HTTP.Port))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "failed to start HTTP server", slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.WithoutCancel(ctx)); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown HTTP server", slog.String("error", err.Error()))
	}

	slog.InfoContext(ctx, "HTTP server shutdown gracefully")
}

func startStdioServer(ctx context.Context, cancel context.CancelFunc, cfg config.Config,
	handler *transport.Handler,
) {
	server := transport.NewStdioServer(handler, os.Stdin, os.Stdout,
		cfg.RateLimit.StdioRPS, slog.Default())

	slog.InfoContext(ctx, "running stdio server...")

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "stdio server stopped", slog.String("error", err.Error()))
	}

	cancel()
}

// makeHandler wires the full dependency graph: backend client, poll loop,
// redis offer store and the Gemini parser behind the MCP endpoint.
func makeHandler(ctx context.Context, cfg *config.Config,
	redisClient *redis.Client,
) (*transport.Handler, func()) {
	sessionClient := navifare.NewClient(cfg.Navifare)
	sessionPoller := poller.New(sessionClient, cfg.Polling.Interval, slog.Default())
	store := offerstore.NewOfferStore(redisClient, cfg.Offers.CacheTTL)

	priceCheckService := service.NewPriceCheckService(sessionClient, sessionPoller,
		store, cfg.Budget())

	cleanup := func() {}

	var formatService endpoints.FormatService

	parser, geminiClient, err := nlparse.NewParser(ctx, cfg.Gemini, slog.Default())
	if err != nil {
		slog.WarnContext(ctx, "gemini unavailable, format tool will report it",
			slog.String("error", err.Error()))
		formatService = service.NewFormatService(unavailableParser{err: err})
	} else {
		formatService = service.NewFormatService(parser)
		cleanup = func() { geminiClient.Close() }
	}

	endpoint := endpoints.MakeMCPEndpoint(priceCheckService, formatService)

	return transport.NewHandler(endpoint, store, slog.Default()), cleanup
}

// unavailableParser stands in when no Gemini key is configured so the rest of
// the server still works.
type unavailableParser struct {
	err error
}

func (p unavailableParser) Parse(_ context.Context, _ string) (dto.FormatResponse, error) {
	return dto.FormatResponse{}, p.err
}
