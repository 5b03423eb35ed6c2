package main

import (
	"context"
	"strings"
	"time"

	"github.com/cppla/blogpress/config"
	"github.com/cppla/blogpress/repository"
	"github.com/cppla/blogpress/routes"
	"github.com/cppla/blogpress/storage"
	"github.com/cppla/blogpress/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deps := routes.Dependencies{Cache: utils.NewCache(utils.GetRedis())}
	var closers []func(context.Context)

	switch strings.ToLower(cfg.DBDriver) {
	case "mysql":
		db, err := config.InitDatabase(repository.AutoMigrateModels()...)
		if err != nil {
			utils.Sugar.Fatalf("mysql init failed: %v", err)
		}
		deps.Users = repository.NewGormUserRepository(db)
		deps.Posts = repository.NewGormPostRepository(db)
		closers = append(closers, func(context.Context) {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
	default:
		client, db, err := config.InitMongo(ctx)
		if err != nil {
			utils.Sugar.Fatalf("mongo init failed: %v", err)
		}
		users := repository.NewMongoUserRepository(db)
		posts := repository.NewMongoPostRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			utils.Sugar.Fatalf("user indexes: %v", err)
		}
		if err := posts.EnsureIndexes(ctx); err != nil {
			utils.Sugar.Fatalf("post indexes: %v", err)
		}
		deps.Users, deps.Posts = users, posts
		closers = append(closers, func(c context.Context) { _ = client.Disconnect(c) })
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		utils.Sugar.Fatalf("object storage init failed: %v", err)
	}
	deps.Store = store

	r := routes.SetupRouter(deps)

	srv := utils.NewServer(":"+cfg.AppPort, r, utils.DefaultReadTimeout, utils.DefaultWriteTimeout)
	for _, fn := range closers {
		srv.OnShutdown(fn)
	}
	srv.OnShutdown(func(context.Context) { utils.CloseRedis() })

	if utils.GetRedis() == nil {
		sweepCtx, stopSweep := context.WithCancel(context.Background())
		utils.StartMemorySweeper(sweepCtx, 5*time.Minute)
		srv.OnShutdown(func(context.Context) { stopSweep() })
	}

	utils.Sugar.Infow("starting server", "port", cfg.AppPort, "db", cfg.DBDriver, "storage", cfg.StorageDriver)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
