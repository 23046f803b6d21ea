package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	apiserver "github.com/scriptvoice/narration-planner/internal/api_server"
	"github.com/scriptvoice/narration-planner/internal/config"
	"github.com/scriptvoice/narration-planner/internal/events"
	"github.com/scriptvoice/narration-planner/internal/generator"
	"github.com/scriptvoice/narration-planner/internal/store"
	"github.com/scriptvoice/narration-planner/pkg/log"
	"github.com/scriptvoice/narration-planner/pkg/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the narration api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()
		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Named("api_service").Info("Starting API service")
		defer zap.S().Named("api_service").Info("API service stopped")

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Named("api_service").Fatalf("initializing data store: %v", err)
		}

		s := store.NewStore(db, zap.S().Named("store"))
		defer s.Close()

		if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder); err != nil {
			zap.S().Named("api_service").Fatalf("running migrations: %v", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		if err := s.Seed(ctx); err != nil {
			zap.S().Named("api_service").Fatalf("seeding readers: %v", err)
		}

		evProducer := events.NewEventProducer(&events.StdoutWriter{})
		defer func() { _ = evProducer.Close() }()

		go generator.New(s, evProducer, cfg.Service.GenerateInterval).Run(ctx)

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Named("api_service").Fatalf("creating listener: %s", err)
			}

			server := apiserver.New(cfg, s, listener, evProducer)
			if err := server.Run(ctx); err != nil {
				zap.S().Named("api_service").Fatalf("Error running server: %s", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Named("api_service").Fatalf("creating metrics listener: %s", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Named("api_service").Fatalf("Error running metrics server: %s", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
