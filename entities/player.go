package entities

import "time"

// Player 玩家持久化档案（players 表）
type Player struct {
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	Level      int       `json:"level"`
	Experience int       `json:"experience"`
	Gold       int       `json:"gold"`
	Gems       int       `json:"gems"`
	Wins       int       `json:"wins"`
	Losses     int       `json:"losses"`
	TotalGames int       `json:"totalGames"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Deck 玩家卡组（decks 表），CardIDs 按 JSON 存储
type Deck struct {
	ID       string   `json:"id"`
	UserID   string   `json:"userId"`
	Name     string   `json:"name"`
	CardIDs  []string `json:"cardIds"`
	IsActive bool     `json:"isActive"`
}

// BattleResult 一场对战的结算记录（battle_results 表）
type BattleResult struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"roomId"`
	WinnerID string    `json:"winnerId"`
	LoserID  string    `json:"loserId"`
	EndedAt  time.Time `json:"endedAt"`
}
