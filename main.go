package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-battle/controller"
	"go-battle/repository"
	"go-battle/router"
	"go-battle/service"
	"go-battle/ws"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer logger.Sync()

	repository.InitRedis()
	repository.InitMySQL()

	players := service.NewPlayerService(repository.Db)
	decks := service.NewDeckService(repository.Db)
	rewards := service.NewRewardService(repository.Db, repository.Rdb, logger)

	gameServer := ws.NewGameServer(logger, players, decks, rewards, repository.Rdb)
	gameServer.StartMatchmaking()
	defer gameServer.Stop()

	r := gin.Default()

	// 设置 CORS 中间件，允许所有域名、所有方法、所有 header
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true, // 允许所有来源
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	pc := &controller.PlayerController{Players: players}
	dc := &controller.DeckController{Decks: decks}
	sc := &controller.StatsController{Server: gameServer}
	router.InitRouter(r, pc, dc, sc, gameServer)

	r.Run(":8000")
}
