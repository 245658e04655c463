package main

import (
	"context"
	"time"

	mongoMigration "lakeside/internal/migrations/mongo"
	"lakeside/pkg/config"
)

const (
	JobName    = "mongo-migration"
	jobTimeout = 120 * time.Second
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job")
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Error("Migration failed", "error", err)
		return
	}
	cfg.Log.Info("Migration completed successfully")
}
