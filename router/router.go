package router

import (
	"github.com/gin-gonic/gin"

	"go-battle/controller"
	"go-battle/middleware"
	"go-battle/ws"
)

func InitRouter(r *gin.Engine, pc *controller.PlayerController, dc *controller.DeckController, sc *controller.StatsController, gameServer *ws.GameServer) {
	// 玩家与卡组接口路由
	api := r.Group("/api")
	{
		api.POST("/players", middleware.AuthMiddleware(), pc.CreatePlayer)
		api.GET("/players/:userId", pc.GetPlayer)
		api.GET("/players/:userId/decks", dc.GetPlayerDecks)
		api.POST("/players/:userId/decks", middleware.AuthMiddleware(), dc.SaveDeck)
		api.GET("/cards", sc.GetCards)
		api.GET("/stats", sc.GetStats)
	}

	// WebSocket 路由
	r.GET("/ws", gameServer.HandleWebSocket)
}
