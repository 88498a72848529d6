package battle

import (
	"golang.org/x/exp/rand"
)

const (
	StartingHealth = 30
	StartingMana   = 1
	MaxMana        = 10
	OpeningHand    = 5
	HandCap        = 10
)

// PlayerState 对战中一方的完整状态
type PlayerState struct {
	PlayerID  string        `json:"playerId"`
	Username  string        `json:"username"`
	Health    int           `json:"health"`
	MaxHealth int           `json:"maxHealth"`
	Mana      int           `json:"mana"`
	MaxMana   int           `json:"maxMana"`
	Deck      []string      `json:"deck"`
	Hand      []*BattleCard `json:"hand"`
	Field     []*BattleCard `json:"field"`
	Graveyard []*BattleCard `json:"graveyard"`
}

// NewPlayerState 洗牌、发 5 张起手牌，剩余留作牌库
func NewPlayerState(playerID, username string, deck []string) *PlayerState {
	shuffled := ShuffleDeck(deck)

	ps := &PlayerState{
		PlayerID:  playerID,
		Username:  username,
		Health:    StartingHealth,
		MaxHealth: StartingHealth,
		Mana:      StartingMana,
		MaxMana:   StartingMana,
		Deck:      shuffled,
		Hand:      []*BattleCard{},
		Field:     []*BattleCard{},
		Graveyard: []*BattleCard{},
	}
	for i := 0; i < OpeningHand; i++ {
		ps.Draw()
	}
	return ps
}

// ShuffleDeck Fisher–Yates 洗牌，返回新切片不改原卡组
func ShuffleDeck(deck []string) []string {
	shuffled := make([]string, len(deck))
	copy(shuffled, deck)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// Draw 从牌库顶抽一张。牌库空为 no-op；
// 手牌满 10 张时照常弹出牌库顶但直接弃掉（不回牌库）。
func (ps *PlayerState) Draw() *BattleCard {
	if len(ps.Deck) == 0 {
		return nil
	}
	cardID := ps.Deck[0]
	ps.Deck = ps.Deck[1:]

	card, ok := CardByID(cardID)
	if !ok {
		return nil
	}
	if len(ps.Hand) >= HandCap {
		return nil
	}
	bc := NewBattleCard(card)
	ps.Hand = append(ps.Hand, bc)
	return bc
}

// handIndex 查手牌中的实例，找不到返回 -1
func (ps *PlayerState) handIndex(instanceID string) int {
	for i, c := range ps.Hand {
		if c.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// fieldIndex 查场上的实例，找不到返回 -1
func (ps *PlayerState) fieldIndex(instanceID string) int {
	for i, c := range ps.Field {
		if c.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// removeFromField 把实例从场上移除并返回，不存在返回 nil
func (ps *PlayerState) removeFromField(instanceID string) *BattleCard {
	i := ps.fieldIndex(instanceID)
	if i < 0 {
		return nil
	}
	c := ps.Field[i]
	ps.Field = append(ps.Field[:i], ps.Field[i+1:]...)
	return c
}
