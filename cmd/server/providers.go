package main

import (
	"chatline-server/internal/config"
	"chatline-server/internal/handler"
	"chatline-server/internal/hub"
	"chatline-server/internal/repository/mongo"
	"chatline-server/internal/repository/postgres"
	"context"
	"database/sql"

	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// App is the main application container.
type App struct {
	Config      *config.Config
	Hub         *hub.Hub
	WSHandler   *handler.WebsocketHandler
	AuthHandler *handler.AuthHandler
}

func providePostgresDB(cfg *config.Config) (*sql.DB, func(), error) {
	db, err := postgres.NewDB(cfg.PostgresURL)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { db.Close() }
	return db, cleanup, nil
}

func provideMongoDB(ctx context.Context, cfg *config.Config) (*mongodriver.Database, func(), error) {
	db, err := mongo.NewDB(ctx, cfg.MongoURL)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { db.Client().Disconnect(ctx) }
	return db, cleanup, nil
}

func provideContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	return ctx, func() { cancel() }
}

func provideRegistry(cfg *config.Config) *hub.Registry {
	return hub.NewRegistry(cfg.MaxConnectionsPerUser)
}
