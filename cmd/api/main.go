package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boothpos/internal/config"
	"boothpos/internal/event"
	"boothpos/internal/handler"
	"boothpos/internal/infra/db"
	"boothpos/internal/infra/messaging"
	"boothpos/internal/infra/observability"
	infraRepo "boothpos/internal/infra/repository"
	"boothpos/internal/infra/ws"
	"boothpos/internal/server"
	"boothpos/internal/usecase"
	"boothpos/internal/validator"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	//.env は無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.NewLogger(cfg.GoEnv)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTELEndpoint)
	if err != nil {
		logger.Fatal("tracing setup failed", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal("db migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	repos := infraRepo.NewRepos(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//イベント配信先
	hub := ws.NewHub(logger, cfg.AllowedOrigins)
	sinks := []event.Sink{hub}

	if len(cfg.KafkaBrokers) > 0 {
		ks := messaging.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = ks.Close() }()
		sinks = append(sinks, ks)
	}
	if cfg.RabbitMQURL != "" {
		rs, err := messaging.NewRabbitSink(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			logger.Fatal("rabbitmq connect failed", zap.Error(err))
		}
		defer func() { _ = rs.Close() }()
		sinks = append(sinks, rs)
	}

	publisher := event.NewPublisher(logger, cfg.EventBufferSize, sinks...)
	//前回までのイベント連番から続ける
	seqs, err := repos.Booths().EventSeqs(ctx)
	if err != nil {
		logger.Fatal("load event seqs failed", zap.Error(err))
	}
	publisher.Resume(seqs)
	v := validator.NewOrderValidator()

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(txm, repos.Booths(), repos.Tables(), v, publisher, logger)
	lineUC := usecase.NewLineStatusUsecase(txm, repos.Lines(), v, publisher, logger)
	cancelUC := usecase.NewCancelUsecase(txm, repos.Orders(), repos.Lines(), v, publisher, logger)
	tableUC := usecase.NewTableUsecase(txm, repos.Tables(), repos.Orders(), repos.Lines(), logger)
	boothUC := usecase.NewBoothUsecase(txm, repos.Booths(), repos.Tables(), repos.Menus(), repos.Orders(), repos.Lines(), publisher, logger)

	//Handler生成
	h := server.Handlers{
		Order:  handler.NewOrderHandler(orderUC),
		Line:   handler.NewLineHandler(lineUC),
		Cancel: handler.NewCancelHandler(cancelUC),
		Booth:  handler.NewBoothHandler(boothUC, tableUC),
		WS:     handler.NewWSHandler(hub, logger),
	}
	e := server.New(cfg, logger, repos.Booths(), h)

	//Server起動
	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}
	logger.Info("starting server", zap.String("addr", addr), zap.Int("sinks", len(sinks)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return publisher.Run(gctx) })
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return server.Start(gctx, e, addr) })

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
