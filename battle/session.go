package battle

import (
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// 脚本 AI 的行为参数，刻意保持弱智：随机阈值，没有任何算路
const (
	aiPlayChance           = 0.7 // 尝试出一张牌的概率
	aiAttackChance         = 0.5 // 尝试用随从攻击的概率
	aiCreatureTargetChance = 0.4 // 玩家场上有随从时改打随从的概率
)

// Session 单机对战会话，和联机房间共用同一个 Engine，
// 对手由内置脚本驱动。所有操作经 mu 串行。
type Session struct {
	mu          sync.Mutex
	engine      *Engine
	stopped     bool
	turnSeq     int
	turnTimeout time.Duration
	turnTimer   *time.Timer
	timers      []*time.Timer
	updates     chan string
}

// NewSession 创建单机对战，玩家先手
func NewSession(playerID, username string, deck []string) *Session {
	if len(deck) == 0 {
		deck = DefaultDeck()
	}
	player := NewPlayerState(playerID, username, deck)
	opponent := NewPlayerState("opponent", "Opponent", generateAIDeck())

	s := &Session{
		engine:      NewEngine(player, opponent),
		turnTimeout: TurnSeconds * time.Second,
		updates:     make(chan string, 16),
	}
	s.armTurnTimer()
	return s
}

// generateAIDeck 从图鉴随机抓一套 AI 卡组
func generateAIDeck() []string {
	all := AllCards()
	deck := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		deck = append(deck, all[rand.Intn(len(all))].ID)
	}
	return deck
}

// Updates 事件通知通道（state/turn/ended），满了会丢弃
func (s *Session) Updates() <-chan string {
	return s.updates
}

func (s *Session) notify(event string) {
	select {
	case s.updates <- event:
	default:
	}
}

// Snapshot 返回当前状态的深拷贝，调用方可以随意读
func (s *Session) Snapshot() *Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(s.engine)
	if err != nil {
		return nil
	}
	var out Engine
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return &out
}

// PlayCard 玩家出牌
func (s *Session) PlayCard(instanceID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.PlayCard(SideA, instanceID, targetID); err != nil {
		return err
	}
	s.afterAction()
	return nil
}

// Attack 玩家攻击，targetID 为空直接打对手英雄
func (s *Session) Attack(attackerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Attack(SideA, attackerID, targetID); err != nil {
		return err
	}
	s.afterAction()
	return nil
}

// EndTurn 玩家结束回合，之后轮到脚本对手行动
func (s *Session) EndTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.EndTurn(SideA); err != nil {
		return err
	}
	s.notify("turn")
	s.armTurnTimer()
	s.scheduleAITurn()
	return nil
}

// Stop 终止会话，取消所有挂起的定时器
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

// afterAction 每次成功操作后的统一收尾（调用方持锁）
func (s *Session) afterAction() {
	s.notify("state")
	if s.engine.Status == StatusEnded {
		s.notify("ended")
		if s.turnTimer != nil {
			s.turnTimer.Stop()
		}
		for _, t := range s.timers {
			t.Stop()
		}
		s.timers = nil
	}
}

// armTurnTimer 75 秒无操作自动结束当前回合（调用方持锁）。
// 每次回合切换都重新武装：先 Stop 旧定时器，再用自增序号
// 防止已经在路上的旧回调误杀下一个回合。
func (s *Session) armTurnTimer() {
	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}
	s.turnSeq++
	seq := s.turnSeq
	s.turnTimer = time.AfterFunc(s.turnTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.stopped || s.engine.Status != StatusActive || s.turnSeq != seq {
			return
		}
		turn := s.engine.Turn
		s.engine.EndTurn(turn)
		s.notify("turn")
		s.armTurnTimer()
		if turn == SideA {
			s.scheduleAITurn()
		}
	})
}

// after 注册一个会话定时器，回调自动持锁并尊重 stopped
func (s *Session) after(d time.Duration, f func()) {
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.stopped {
			return
		}
		f()
	})
	s.timers = append(s.timers, t)
}

// scheduleAITurn 1~3 秒思考延迟后执行 AI 回合（调用方持锁）
func (s *Session) scheduleAITurn() {
	seq := s.turnSeq
	delay := time.Duration(1000+rand.Intn(2000)) * time.Millisecond
	s.after(delay, func() { s.runAITurn(seq) })
}

// runAITurn 脚本对手回合：有概率出一张付得起的牌，
// 有概率用一个能动的随从攻击，然后 2~4 秒后结束回合
func (s *Session) runAITurn(seq int) {
	if s.engine.Status != StatusActive || s.engine.Turn != SideB || s.turnSeq != seq {
		return
	}
	ai := s.engine.Player2

	if len(ai.Hand) > 0 && rand.Float64() < aiPlayChance {
		s.aiPlayRandomCard(ai)
	}

	if s.engine.Status == StatusActive {
		s.aiMaybeAttack(ai)
	}

	s.notify("state")
	if s.engine.Status != StatusActive {
		s.notify("ended")
		return
	}

	delay := time.Duration(2000+rand.Intn(2000)) * time.Millisecond
	s.after(delay, func() {
		if s.engine.Status != StatusActive || s.engine.Turn != SideB || s.turnSeq != seq {
			return
		}
		s.engine.EndTurn(SideB)
		s.notify("turn")
		s.armTurnTimer()
	})
}

// aiPlayRandomCard 从付得起的手牌里随机出一张。
// 法术没有合法目标时跳过（脚本不强求）。
func (s *Session) aiPlayRandomCard(ai *PlayerState) {
	playable := []*BattleCard{}
	for _, c := range ai.Hand {
		if c.ManaCost > ai.Mana {
			continue
		}
		if c.Type == CardTypeSpell && s.aiSpellTarget(ai, c) == "" {
			continue
		}
		playable = append(playable, c)
	}
	if len(playable) == 0 {
		return
	}

	card := playable[rand.Intn(len(playable))]
	s.engine.PlayCard(SideB, card.InstanceID, s.aiSpellTarget(ai, card))
}

// aiSpellTarget 伤害法术指向玩家随机随从，治疗指向自己的残血随从
func (s *Session) aiSpellTarget(ai *PlayerState, card *BattleCard) string {
	switch card.Effect {
	case EffectDamage:
		enemyField := s.engine.Player1.Field
		if len(enemyField) == 0 {
			return ""
		}
		return enemyField[rand.Intn(len(enemyField))].InstanceID
	case EffectHeal:
		for _, c := range ai.Field {
			if c.CurrentHealth < c.Health {
				return c.InstanceID
			}
		}
		return ""
	}
	return ""
}

// aiMaybeAttack 用第一个能攻击的随从打一下：
// 偏好直接打脸，偶尔改打玩家场上的随机随从
func (s *Session) aiMaybeAttack(ai *PlayerState) {
	if rand.Float64() >= aiAttackChance {
		return
	}

	var attacker *BattleCard
	for _, c := range ai.Field {
		if c.CanAttack && !c.HasAttackedThisTurn {
			attacker = c
			break
		}
	}
	if attacker == nil {
		return
	}

	playerField := s.engine.Player1.Field
	targetID := ""
	if len(playerField) > 0 && rand.Float64() < aiCreatureTargetChance {
		targetID = playerField[rand.Intn(len(playerField))].InstanceID
	}
	s.engine.Attack(SideB, attacker.InstanceID, targetID)
}
