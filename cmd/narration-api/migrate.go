package main

import (
	"github.com/scriptvoice/narration-planner/internal/config"
	"github.com/scriptvoice/narration-planner/internal/store"
	"github.com/scriptvoice/narration-planner/pkg/log"
	"github.com/scriptvoice/narration-planner/pkg/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()
		undo := zap.ReplaceGlobals(logger)
		defer undo()

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Named("migrate").Fatalf("initializing data store: %v", err)
		}

		s := store.NewStore(db, zap.S().Named("store"))
		defer s.Close()

		if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder); err != nil {
			zap.S().Named("migrate").Fatalf("running migrations: %v", err)
		}

		zap.S().Named("migrate").Info("db migrated")
		return nil
	},
}
