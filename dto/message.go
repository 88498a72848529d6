package dto

// Message WebSocket 统一消息格式（type + data）
type Message struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
}

// AuthenticateData authenticate 消息的 data
type AuthenticateData struct {
	PlayerID string `json:"playerId" mapstructure:"playerId"`
}

// BattleActionData battle_action 消息的 data
type BattleActionData struct {
	Action   string `json:"action" mapstructure:"action"`
	CardID   string `json:"cardId" mapstructure:"cardId"`
	TargetID string `json:"targetId" mapstructure:"targetId"`
}

// 客户端可用的对战动作
const (
	ActionPlayCard  = "play_card"
	ActionAttack    = "attack"
	ActionSurrender = "surrender"
)
