package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"spear/internal/config"
	"spear/internal/repository"
	"spear/internal/repository/memory"
	"spear/internal/repository/mongodb"
	redisSvc "spear/internal/service/redis"
	"spear/internal/service/server"
	"spear/internal/utils/log"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
	}

	var (
		identities repository.IdentityRepo
		sessions   repository.SessionRepo
		envelopes  repository.EnvelopeRepo
	)

	switch cfg.Storage {
	case config.StorageMemory:
		store := memory.NewStore()
		identities, sessions, envelopes = store, store, store
		log.Info("using in-memory storage")
	default:
		mongoClient, err := initMongo(cfg.MongoURI)
		if err != nil {
			log.Fatal("mongo connect failed", zap.Error(err))
		}
		db := mongoClient.Database(cfg.MongoDatabase)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			cancel()
			log.Fatal("ensure indexes failed", zap.Error(err))
		}
		cancel()

		identities = mongodb.NewIdentityRepo(db)
		sessions = mongodb.NewSessionRepo(db)
		envelopes = mongodb.NewEnvelopeRepo(db)
	}

	var redisService *redisSvc.RedisService
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		redisService = redisSvc.NewRedis(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisService.Ping(ctx); err != nil {
			log.Warn("redis unreachable, identity cache disabled", zap.Error(err))
			redisService = nil
		}
		cancel()
	}

	srv := server.NewHttpServer(identities, sessions, envelopes, redisService)
	go func() {
		if err := srv.Run(cfg.Addr); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	<-done
}

func initMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, client.Ping(ctx, nil)
}
