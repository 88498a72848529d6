package dto

// CreatePlayerRequest 注册新玩家
type CreatePlayerRequest struct {
	Username string `json:"username" binding:"required"`
}

// SaveDeckRequest 保存并启用一套卡组
type SaveDeckRequest struct {
	Name    string   `json:"name" binding:"required"`
	CardIDs []string `json:"cardIds" binding:"required"`
}

// ServerStats /api/stats 返回体
type ServerStats struct {
	ConnectedPlayers int   `json:"connectedPlayers"`
	PlayersInQueue   int   `json:"playersInQueue"`
	ActiveBattles    int   `json:"activeBattles"`
	TotalBattles     int64 `json:"totalBattles"`
}
