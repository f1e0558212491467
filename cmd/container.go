// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, logger) and composes
// the bounded-context containers. This is the only place that knows about all
// modules.
package main

import (
	"context"

	"github.com/idforge/idforge/pkg/config"
	"github.com/idforge/idforge/pkg/iam/auth/authinfra"
	"github.com/idforge/idforge/pkg/iam/iamcontainer"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure (shared across all modules)
	DB    *sqlx.DB
	Redis *redis.Client

	// Bounded-context containers
	IAM *iamcontainer.Container
}

func NewContainer(cfg *config.Config, logger *zap.Logger) *Container {
	logger.Info("initializing application container")

	c := &Container{Config: cfg, Logger: logger}

	c.initInfrastructure()
	c.initModules()

	logger.Info("application container initialized")
	return c
}

func (c *Container) initInfrastructure() {
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		c.Logger.Fatal("failed to connect to database", zap.Error(err))
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	c.Logger.Info("database connected")

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		c.Logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	c.Logger.Info("redis connected")
}

func (c *Container) initModules() {
	c.IAM = iamcontainer.New(iamcontainer.Deps{
		DB:     c.DB,
		Redis:  c.Redis,
		Cfg:    c.Config,
		Logger: c.Logger,
		Social: authinfra.NewHTTPSocialVerifier(c.Config.Social.Providers, nil),
		TOTP:   authinfra.NewTOTPVerifier(),
	})
}

// Cleanup closes shared infrastructure in reverse initialization order.
func (c *Container) Cleanup() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
}
