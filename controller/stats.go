package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-battle/battle"
	"go-battle/ws"
)

// StatsController 服务状态与卡牌图鉴
type StatsController struct {
	Server *ws.GameServer
}

func (sc *StatsController) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status_code": http.StatusOK,
		"data":        sc.Server.Stats(),
	})
}

func (sc *StatsController) GetCards(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status_code": http.StatusOK,
		"data":        battle.AllCards(),
	})
}
