package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-battle/dto"
	"go-battle/service"
)

// DeckController 卡组 REST 接口
type DeckController struct {
	Decks *service.DeckService
}

func (dc *DeckController) GetPlayerDecks(c *gin.Context) {
	decks, err := dc.Decks.GetPlayerDecks(c.Request.Context(), c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "获取卡组列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status_code": http.StatusOK,
		"data":        decks,
	})
}

func (dc *DeckController) SaveDeck(c *gin.Context) {
	var req dto.SaveDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少必要字段"})
		return
	}

	deck, err := dc.Decks.SaveDeck(c.Request.Context(), c.Param("userId"), req.Name, req.CardIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status_code": http.StatusOK,
		"msg":         "卡组保存成功",
		"data":        deck,
	})
}
