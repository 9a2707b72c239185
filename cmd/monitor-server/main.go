package main

import (
	"context"
	"fmt"
	"time"

	"deposit-core/internal/handler"
	"deposit-core/internal/model"
	"deposit-core/internal/server"
	"deposit-core/internal/service/chainfeed"
	"deposit-core/internal/service/deposit"
	"deposit-core/internal/service/mq"
	"deposit-core/internal/service/notifier"
	"deposit-core/internal/service/observer"
	"deposit-core/internal/service/registry"

	"deposit-core/pkg/config"
	"deposit-core/pkg/database"
	"deposit-core/pkg/lock"
	"deposit-core/pkg/logger"
	"deposit-core/pkg/monitor"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const writerLockKey = "engine:writer"
const writerLockTTL = 30 * time.Second

func main() {
	// 0. Config + Logger + Metrics. Metrics must be registered before any
	// loop goroutine starts, so every instrumented path sees them.
	config.Init()
	logger.Init(config.Global.App.Env)
	defer logger.Sync()
	monitor.Init()

	// 1. Postgres
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		config.Global.DB.Host,
		config.Global.DB.User,
		config.Global.DB.Password,
		config.Global.DB.Name,
		config.Global.DB.Port,
	)
	db, err := database.ConnectPostgres(dsn)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}

	// 2. Redis
	rdb, err := database.ConnectRedis(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}

	// 3. Schema (dev only; production uses the migrate tool)
	if config.Global.App.Env == "development" {
		if err := db.AutoMigrate(model.AllModels()...); err != nil {
			logger.Fatal("auto migration failed", zap.Error(err))
		}
		logger.Info("schema auto-migrated (dev mode)")
	}

	// 4. Single-writer guard. The ledger tolerates exactly one engine
	// instance writing; a second instance must not start its loops.
	locker := lock.NewRedisLock(rdb)
	held, err := locker.Acquire(context.Background(), writerLockKey, writerLockTTL)
	if err != nil {
		logger.Fatal("writer lock check failed", zap.Error(err))
	}
	if !held {
		logger.Fatal("another engine instance holds the writer lock")
	}

	// 5. Event producer
	var producer mq.Producer
	if config.Global.MQ.Backend == "kafka" {
		logger.Info("publishing deposit events to kafka", zap.Strings("brokers", config.Global.Kafka.Brokers))
		producer = mq.NewKafkaProducer(config.Global.Kafka.Brokers, config.Global.MQ.Topic)
	} else {
		logger.Info("publishing deposit events to redis streams")
		producer = mq.NewRedisProducer(rdb)
	}
	events := notifier.NewMQNotifier(producer, config.Global.MQ.Topic)

	// 6. Chain feed. No feed, no engine.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := chainfeed.Dial(ctx, config.Global.Chain.RpcUrl, config.Global.Chain.WsUrl,
		config.Global.Monitor.RetryBackoff)
	if err != nil {
		logger.Fatal("chain feed unavailable at startup", zap.Error(err))
	}

	// 7. Monitored-address snapshot: load once, then refresh on a schedule.
	addrs := registry.NewCache(db)
	if err := addrs.Refresh(ctx); err != nil {
		logger.Fatal("initial wallet snapshot load failed", zap.Error(err))
	}

	cr := cron.New()
	if err := addrs.ScheduleRefresh(cr, config.Global.Monitor.SnapshotRefresh); err != nil {
		logger.Fatal("snapshot refresh schedule failed", zap.Error(err))
	}
	if _, err := cr.AddFunc("@every 10s", func() {
		renewCtx, renewCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer renewCancel()
		if ok, err := locker.Renew(renewCtx, writerLockKey, writerLockTTL); err != nil || !ok {
			logger.Error("writer lock renewal failed", zap.Bool("held", ok), zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("writer lock renewal schedule failed", zap.Error(err))
	}
	cr.Start()

	// 8. Engine
	store := deposit.NewStore(db)
	engine := observer.New(feed, store, addrs, events, observer.Config{
		ConfirmInterval:              config.Global.Monitor.ConfirmInterval,
		ReorgInterval:                config.Global.Monitor.ReorgInterval,
		ReorgBatchSize:               config.Global.Monitor.ReorgBatchSize,
		RetryBackoff:                 config.Global.Monitor.RetryBackoff,
		DefaultRequiredConfirmations: config.Global.Chain.RequiredConfirmations,
	})
	engine.Start(ctx)

	// 9. Record API
	admin := registry.NewAdmin(db)
	router := server.NewHTTPRouter(
		handler.NewUserHandler(admin),
		handler.NewWalletHandler(admin),
		handler.NewNetworkHandler(admin),
		handler.NewDepositHandler(store),
	)

	app := server.New(server.Config{HttpPort: config.Global.App.HttpPort}, router)
	app.OnShutdown(func() {
		cancel()
		feed.Close()
		engine.Wait()

		cronCtx := cr.Stop()
		<-cronCtx.Done()

		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer releaseCancel()
		if err := locker.Release(releaseCtx, writerLockKey); err != nil {
			logger.Error("writer lock release failed", zap.Error(err))
		}

		if err := producer.Close(); err != nil {
			logger.Error("producer close failed", zap.Error(err))
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		rdb.Close()
	})

	// 10. Blocks until SIGINT/SIGTERM, then drains HTTP and tears down.
	app.Run()
}
