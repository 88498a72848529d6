package battle

import (
	"fmt"
	"time"
)

type Side string

const (
	SideA Side = "player1"
	SideB Side = "player2"
	// SideDraw 平局占位，目前的胜负判定不会产生
	SideDraw Side = "draw"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

const TurnSeconds = 75

// Engine 权威对战状态机，联机房间和单机会话共用同一份规则。
// 本身不加锁，由持有方（房间/会话）串行调用。
type Engine struct {
	Player1       *PlayerState `json:"player1"`
	Player2       *PlayerState `json:"player2"`
	Turn          Side         `json:"currentTurn"`
	TurnStartTime time.Time    `json:"turnStartTime"`
	Status        Status       `json:"status"`
	Winner        Side         `json:"winner,omitempty"`
	Log           []string     `json:"battleLog"`
}

func NewEngine(p1, p2 *PlayerState) *Engine {
	return &Engine{
		Player1:       p1,
		Player2:       p2,
		Turn:          SideA,
		TurnStartTime: time.Now(),
		Status:        StatusActive,
		Log:           []string{"Battle begins!"},
	}
}

func (e *Engine) Side(s Side) *PlayerState {
	if s == SideA {
		return e.Player1
	}
	return e.Player2
}

func Opponent(s Side) Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

func (e *Engine) addLog(format string, args ...interface{}) {
	e.Log = append(e.Log, fmt.Sprintf(format, args...))
}

// StartTurn 回合开始结算：法力上限 +1（封顶 10）、回满法力、
// 抽一张牌、刷新场上随从的攻击状态
func (e *Engine) StartTurn(side Side) {
	ps := e.Side(side)
	if ps.MaxMana < MaxMana {
		ps.MaxMana++
	}
	ps.Mana = ps.MaxMana
	ps.Draw()

	for _, c := range ps.Field {
		c.CanAttack = true
		c.HasAttackedThisTurn = false
	}

	e.TurnStartTime = time.Now()
	e.addLog("%s's turn begins!", ps.Username)
}

// EndTurn 结束当前回合并为对方开始新回合
func (e *Engine) EndTurn(side Side) error {
	if e.Status != StatusActive {
		return ErrBattleNotActive
	}
	if e.Turn != side {
		return ErrNotYourTurn
	}

	e.Turn = Opponent(side)
	e.StartTurn(e.Turn)
	return nil
}

// PlayCard 出牌。随从上场带召唤失调，法术按效果结算后进墓地。
func (e *Engine) PlayCard(side Side, instanceID, targetID string) error {
	if e.Status != StatusActive {
		return ErrBattleNotActive
	}
	if e.Turn != side {
		return ErrNotYourTurn
	}

	ps := e.Side(side)
	i := ps.handIndex(instanceID)
	if i < 0 {
		return ErrCardNotInHand
	}
	card := ps.Hand[i]
	if card.ManaCost > ps.Mana {
		return ErrInsufficientMana
	}

	// 法术需要目标时先校验，校验失败不能扣费
	var target *BattleCard
	var targetOwner *PlayerState
	if card.Type == CardTypeSpell && (card.Effect == EffectDamage || card.Effect == EffectHeal) {
		if targetID == "" {
			return ErrTargetRequired
		}
		target, targetOwner = e.findOnField(targetID)
		if target == nil {
			return ErrTargetRequired
		}
	}

	ps.Hand = append(ps.Hand[:i], ps.Hand[i+1:]...)
	ps.Mana -= card.ManaCost

	switch card.Type {
	case CardTypeCreature:
		card.CanAttack = false // 召唤失调，入场回合不能攻击
		ps.Field = append(ps.Field, card)
	case CardTypeSpell:
		switch card.Effect {
		case EffectDamage:
			target.CurrentHealth -= card.Attack
			e.checkCreatureDeath(targetOwner, target)
		case EffectHeal:
			target.CurrentHealth += card.Attack
			if target.CurrentHealth > target.Health {
				target.CurrentHealth = target.Health
			}
		}
		ps.Graveyard = append(ps.Graveyard, card)
	default:
		// support 类暂不结算，直接进墓地
		ps.Graveyard = append(ps.Graveyard, card)
	}

	e.addLog("%s plays %s", ps.Username, card.Name)
	return nil
}

// Attack 随从攻击。targetID 为空打脸，否则互拍对方随从。
func (e *Engine) Attack(side Side, attackerID, targetID string) error {
	if e.Status != StatusActive {
		return ErrBattleNotActive
	}
	if e.Turn != side {
		return ErrNotYourTurn
	}

	ps := e.Side(side)
	ai := ps.fieldIndex(attackerID)
	if ai < 0 {
		return ErrCannotAttack
	}
	attacker := ps.Field[ai]
	if !attacker.CanAttack || attacker.HasAttackedThisTurn {
		return ErrCannotAttack
	}

	enemy := e.Side(Opponent(side))
	if targetID != "" {
		ti := enemy.fieldIndex(targetID)
		if ti < 0 {
			return ErrTargetRequired
		}
		target := enemy.Field[ti]

		// 双方同时结算伤害，再各自判死
		target.CurrentHealth -= attacker.CurrentAttack
		attacker.CurrentHealth -= target.CurrentAttack

		e.addLog("%s attacks %s", attacker.Name, target.Name)

		e.checkCreatureDeath(enemy, target)
		e.checkCreatureDeath(ps, attacker)
	} else {
		e.addLog("%s attacks %s for %d damage", attacker.Name, enemy.Username, attacker.CurrentAttack)
		e.DamagePlayer(Opponent(side), attacker.CurrentAttack)
		if e.Status != StatusActive {
			return nil
		}
	}

	attacker.HasAttackedThisTurn = true
	attacker.CanAttack = false
	return nil
}

// findOnField 在双方场上找实例，返回实例和所属玩家
func (e *Engine) findOnField(instanceID string) (*BattleCard, *PlayerState) {
	for _, ps := range []*PlayerState{e.Player1, e.Player2} {
		if i := ps.fieldIndex(instanceID); i >= 0 {
			return ps.Field[i], ps
		}
	}
	return nil, nil
}

// checkCreatureDeath 血量归零的随从离场进墓地
func (e *Engine) checkCreatureDeath(owner *PlayerState, card *BattleCard) {
	if card.CurrentHealth > 0 {
		return
	}
	if dead := owner.removeFromField(card.InstanceID); dead != nil {
		owner.Graveyard = append(owner.Graveyard, dead)
	}
}

// DamagePlayer 直接对玩家造成伤害，每次血量变动后立即判胜负
func (e *Engine) DamagePlayer(side Side, damage int) {
	if e.Status != StatusActive {
		return
	}
	ps := e.Side(side)
	ps.Health -= damage
	if ps.Health <= 0 {
		e.endBattle(Opponent(side))
	}
}

func (e *Engine) endBattle(winner Side) {
	e.Status = StatusEnded
	e.Winner = winner
	e.addLog("%s wins!", e.Side(winner).Username)
}

// Surrender 主动认输，对方获胜
func (e *Engine) Surrender(side Side) error {
	if e.Status != StatusActive {
		return ErrBattleNotActive
	}
	e.endBattle(Opponent(side))
	return nil
}
