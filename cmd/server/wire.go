//go:build wireinject
// +build wireinject

package main

import (
	"chatline-server/internal/config"
	"chatline-server/internal/handler"
	"chatline-server/internal/hub"
	"chatline-server/internal/repository/mongo"
	"chatline-server/internal/repository/postgres"
	"chatline-server/internal/service"

	"github.com/google/wire"
)

// InitializeApp creates a new application.
func InitializeApp() (*App, func(), error) {
	wire.Build(
		config.Load,
		// Database & Context Providers
		wire.NewSet(
			provideContext,
			providePostgresDB,
			provideMongoDB,
		),
		// Repository Providers
		wire.NewSet(
			postgres.NewUserRepository,
			wire.Bind(new(service.IUserDirectory), new(*postgres.UserRepository)),

			postgres.NewGroupRepository,
			wire.Bind(new(service.IGroupDirectory), new(*postgres.GroupRepository)),

			mongo.NewMessageRepository,
			wire.Bind(new(service.IMessageStore), new(*mongo.MessageRepository)),
		),
		// Service Providers
		wire.NewSet(
			service.NewUserService,
			wire.Bind(new(service.IUserService), new(*service.UserService)),

			service.NewTokenService,
			wire.Bind(new(service.ITokenService), new(*service.TokenService)),
		),
		// Presence Core Providers
		wire.NewSet(
			provideRegistry,
			hub.NewRouter,
			hub.NewTypingRelay,
			hub.NewDeletionPropagator,
			hub.NewReconnectSync,
			hub.NewHub,
		),
		// Handler Providers
		wire.NewSet(
			handler.NewWebsocketHandler,
			handler.NewAuthHandler,
		),
		// App Provider
		wire.NewSet(
			wire.Struct(new(App), "*"),
		),
	)
	return nil, nil, nil
}
