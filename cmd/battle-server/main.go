package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"tsu-battle/internal/modules/battle/handler"
	"tsu-battle/internal/modules/battle/service"
	"tsu-battle/internal/modules/battle/tasks"
	"tsu-battle/internal/pkg/config"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/metrics"
	natsx "tsu-battle/internal/pkg/nats"
	"tsu-battle/internal/pkg/notify"
	redisClient "tsu-battle/internal/pkg/redis"
	"tsu-battle/internal/repository/impl"
	"tsu-battle/internal/repository/interfaces"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  TSU Battle Server")
	fmt.Println("  Version: 1.0.0")
	fmt.Println("==============================================")
	fmt.Println()

	if err := run(); err != nil {
		fmt.Printf("[Main] Battle server exited with error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	environment := config.GetEnvOrDefault("ENVIRONMENT", "development")
	log.Init(log.ParseLevel(config.GetEnvOrDefault("LOG_LEVEL", "info")), environment)
	logger := log.GetLogger().With("service", "battle-server")

	metrics.SetServiceName("battle")

	rules, err := config.LoadBattleRules(config.GetEnvOrDefault(config.EnvBattleRulesPath, "./configs/battle_rules.yaml"))
	if err != nil {
		return err
	}
	fmt.Printf("[Main] Battle rules loaded (turn timeout %s, max turns %d)\n", rules.Turn.Timeout, rules.Turn.MaxTurns)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. NATS
	natsAddr := config.GetEnvOrDefault("NATS_ADDRESS", "localhost:4222")
	fmt.Printf("[Main] NATS address: %s\n", natsAddr)
	nc, err := nats.Connect("nats://"+natsAddr,
		nats.Name("battle-server"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return fmt.Errorf("连接 NATS 失败: %w", err)
	}
	defer nc.Drain()
	notify.SetNatsConn(nc)
	fmt.Println("[Main] Connected to NATS successfully")

	healthChecker := natsx.NewHealthChecker(nc, config.GetEnvDuration("NATS_HEALTH_INTERVAL", 10*time.Second), logger)
	healthChecker.Start(ctx)
	defer healthChecker.Stop()

	// 2. Metrics
	battleMetrics := metrics.NewBattleMetrics(metrics.Namespace)
	errorMetrics := metrics.NewErrorMetrics(metrics.Namespace)
	resourceMetrics := metrics.NewResourceMetrics(metrics.Namespace)

	// 3. Snapshot source: Redis + 进程内缓存
	source, err := newSnapshotSource(ctx, resourceMetrics, logger)
	if err != nil {
		return err
	}

	// 4. Services
	container := service.NewServiceContainer(source, rules, service.ContainerDeps{
		BattleMetrics:   battleMetrics,
		ErrorMetrics:    errorMetrics,
		ResourceMetrics: resourceMetrics,
		Logger:          logger,
	})
	manager := container.GetBattleManager()

	battleHandler := handler.NewBattleHandler(manager, config.GetEnvDuration("BATTLE_REQUEST_TIMEOUT", 5*time.Second), logger)
	subs, err := battleHandler.Register(nc, config.GetEnvOrDefault("BATTLE_QUEUE", handler.DefaultQueue))
	if err != nil {
		return fmt.Errorf("注册战斗请求处理器失败: %w", err)
	}
	defer func() {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
	}()

	// 5. Cron tasks
	timeoutTask := tasks.NewTurnTimeoutTask(manager, config.GetEnvOrDefault("BATTLE_TIMEOUT_SPEC", tasks.DefaultTurnTimeoutSpec), logger)
	if err := timeoutTask.Start(); err != nil {
		return err
	}
	defer timeoutTask.Stop()

	cleanupTask := tasks.NewCleanupTask(manager, config.GetEnvDuration("BATTLE_RETENTION", 30*time.Minute), logger)
	if err := cleanupTask.Start(); err != nil {
		return err
	}
	defer cleanupTask.Stop()

	fmt.Println("[Main] Cron tasks started:")
	fmt.Println("  ✓ Turn Timeout Task")
	fmt.Println("  ✓ Ended Battle Cleanup Task (每分钟)")

	// 6. HTTP 网关（战斗 API + /metrics + /healthz）
	httpAddr := config.GetEnvOrDefault("HTTP_ADDRESS", ":8074")
	httpMetrics := metrics.NewHTTPMetrics(metrics.Namespace)
	e := handler.NewEcho(handler.NewHTTPHandler(manager, logger), httpMetrics, handler.HTTPConfig{
		Environment: environment,
		CORSOrigins: config.GetEnvList("CORS_ALLOW_ORIGINS"),
		RateLimit:   rate.Limit(config.GetEnvInt("HTTP_RATE_LIMIT", 0)),
		Healthy:     healthChecker.IsHealthy,
	}, logger)
	go func() {
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP 网关异常退出", err)
		}
	}()
	fmt.Printf("[Main] HTTP gateway listening on %s (metrics at /metrics)\n", httpAddr)

	logger.Info("战斗服务已启动")
	<-ctx.Done()
	logger.Info("收到退出信号，正在关闭战斗服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("关闭 HTTP 网关失败", "error", err)
	}
	logger.Info("战斗服务已关闭", "active_battles", manager.ActiveBattleCount())
	return nil
}

// newSnapshotSource 连接 Redis，按需用目录文件预热，再包一层进程内缓存
func newSnapshotSource(ctx context.Context, rm *metrics.ResourceMetrics, logger log.Logger) (interfaces.MonsterSnapshotSource, error) {
	redisConfig := redisClient.Config{
		Addr:     config.GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		Password: config.GetEnvOrDefault("REDIS_PASSWORD", ""),
		DB:       config.GetEnvInt("REDIS_DB", 0),
	}
	logger.Info("Redis 配置", "config", config.SanitizeConfigForLog(map[string]any{
		"address":  redisConfig.Addr,
		"password": redisConfig.Password,
		"db":       redisConfig.DB,
	}))
	client, err := redisClient.NewClient(redisConfig, metrics.GetServiceName(), rm)
	if err != nil {
		return nil, err
	}
	fmt.Println("[Main] Connected to Redis successfully")

	redisSource := impl.NewRedisSnapshotSource(client, config.GetEnvDuration("BATTLE_CATALOG_TTL", 0))
	if path := config.GetEnvOrDefault("BATTLE_CATALOG_PATH", ""); path != "" {
		catalog, err := impl.LoadCatalog(path)
		if err != nil {
			return nil, err
		}
		if err := redisSource.Seed(ctx, catalog); err != nil {
			return nil, err
		}
		logger.Info("目录已写入 Redis",
			"path", path,
			"monsters", len(catalog.Monsters),
			"moves", len(catalog.Moves),
			"items", len(catalog.Items))
	}

	return impl.NewCachedSnapshotSource(redisSource, config.GetEnvDuration("BATTLE_CACHE_TTL", 5*time.Minute), rm, logger), nil
}
