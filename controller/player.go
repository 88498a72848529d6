package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-battle/battle"
	"go-battle/dto"
	"go-battle/service"
)

// PlayerController 玩家档案 REST 接口
type PlayerController struct {
	Players *service.PlayerService
}

func (pc *PlayerController) CreatePlayer(c *gin.Context) {
	var req dto.CreatePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少必要字段"})
		return
	}

	player, err := pc.Players.CreatePlayer(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status_code": http.StatusOK,
		"msg":         "玩家创建成功",
		"data":        player,
	})
}

func (pc *PlayerController) GetPlayer(c *gin.Context) {
	player, err := pc.Players.GetPlayer(c.Request.Context(), c.Param("userId"))
	if err == battle.ErrPlayerNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "玩家不存在"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status_code": http.StatusOK,
		"data":        player,
	})
}
