package battle

import (
	"strings"

	"github.com/google/uuid"
)

type CardType string

const (
	CardTypeCreature CardType = "creature"
	CardTypeSpell    CardType = "spell"
	CardTypeSupport  CardType = "support"
)

type CardEffect string

const (
	EffectDamage CardEffect = "damage"
	EffectHeal   CardEffect = "heal"
)

// Card 卡牌静态定义（图鉴数据）
type Card struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ManaCost    int        `json:"manaCost"`
	Attack      int        `json:"attack"`
	Health      int        `json:"health"`
	Type        CardType   `json:"type"`
	Rarity      string     `json:"rarity"`
	Effect      CardEffect `json:"effect,omitempty"`
	Keywords    []string   `json:"keywords,omitempty"`
}

// BattleCard 对战中的卡牌实例，同一张卡的两份拷贝 instanceId 不同
type BattleCard struct {
	Card
	InstanceID          string `json:"instanceId"`
	CurrentHealth       int    `json:"currentHealth"`
	CurrentAttack       int    `json:"currentAttack"`
	CanAttack           bool   `json:"canAttack"`
	HasAttackedThisTurn bool   `json:"hasAttackedThisTurn"`
}

// NewBattleCard 从静态定义创建实例，当前属性复制初始值
func NewBattleCard(card Card) *BattleCard {
	return &BattleCard{
		Card:          card,
		InstanceID:    newInstanceID(),
		CurrentHealth: card.Health,
		CurrentAttack: card.Attack,
	}
}

// 生成短实例 ID（去掉连字符取前9位）
func newInstanceID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:9]
}
