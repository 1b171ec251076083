package main

import (
	"context"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"campusmatch/config"
	"campusmatch/logger"
	mid "campusmatch/middleware"
	chatstore "campusmatch/module/chat/store"
	"campusmatch/module/user"
	"campusmatch/service/chat"
	"campusmatch/service/mgo"
	"campusmatch/service/storage"
	"campusmatch/tools/ids"
	sec "campusmatch/tools/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}

	if v := os.Getenv("CAMPUSMATCH_NODE_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			ids.SetNodeID(id)
		}
	}

	ctx := context.Background()
	if err := mgo.Init(ctx, cfg.MongoURI, cfg.MongoDB); err != nil {
		logger.Errorf("mongo: %v", err)
		os.Exit(1)
	}
	if err := storage.InitRedis(ctx, storage.Config{
		Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB,
	}); err != nil {
		logger.Errorf("redis: %v", err)
		os.Exit(1)
	}

	jwtOpts := sec.DefaultOptions([]byte(cfg.JWTSecret))
	jwtOpts.TTL = cfg.JWTTTL
	mid.Configure(jwtOpts)

	store := chatstore.NewStore()
	presence := storage.NewPresenceStore(storage.Client(), cfg.PresenceTTL)

	srv := chat.NewServer(chat.ServerConfig{
		JWT:            jwtOpts,
		AllowedOrigins: cfg.AllowedOrigins,
		SendQueueSize:  cfg.SendQueueSize,
		FanoutWorkers:  cfg.FanoutWorkers,
		FanoutQueue:    cfg.FanoutQueue,
	}, store, store, store, presence)
	defer srv.Close()

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", srv.HandleWS) // ws://host/ws?token=<jwt>
	mid.POST(r, "/login", user.HandlerLogin(jwtOpts), mid.RouteOpt{IsAuth: false})

	logger.Infof("[HTTP] listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Errorf("http server: %v", err)
		os.Exit(1)
	}
}
