package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-battle/battle"
	"go-battle/dto"
)

// BattleRoom 一场对战的权威状态。所有动作（出牌、攻击、切回合、
// 断线、超时）都经 mu 串行，应用加广播对房间内其他动作是原子的。
type BattleRoom struct {
	ID string

	mu        sync.Mutex
	server    *GameServer
	p1, p2    *PlayerConn // p1 = 先弹出的一方 = player1 先手
	engine    *battle.Engine
	turnTimer *time.Timer
	done      bool
}

// createBattleRoom 配对成功后建房：查卡组、洗牌、发起手牌、
// 通知双方 battle_found
func (s *GameServer) createBattleRoom(p1, p2 *PlayerConn) {
	roomID := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	ctx := context.Background()

	state1 := battle.NewPlayerState(p1.PlayerID, p1.Username, s.lookupDeck(ctx, p1.PlayerID))
	state2 := battle.NewPlayerState(p2.PlayerID, p2.Username, s.lookupDeck(ctx, p2.PlayerID))

	room := &BattleRoom{
		ID:     roomID,
		server: s,
		p1:     p1,
		p2:     p2,
		engine: battle.NewEngine(state1, state2),
	}

	p1.SetRoom(roomID)
	p2.SetRoom(roomID)

	s.roomMu.Lock()
	s.rooms[roomID] = room
	s.roomMu.Unlock()

	if s.rdb != nil {
		s.rdb.HSet(ctx, fmt.Sprintf("room:%s:info", roomID), map[string]interface{}{
			"player1": p1.PlayerID,
			"player2": p2.PlayerID,
			"status":  string(battle.StatusActive),
		})
	}

	state := room.gameStateData()
	p1.Send("battle_found", map[string]interface{}{
		"roomId":    roomID,
		"opponent":  map[string]interface{}{"username": p2.Username},
		"yourTurn":  true,
		"gameState": state,
	})
	p2.Send("battle_found", map[string]interface{}{
		"roomId":    roomID,
		"opponent":  map[string]interface{}{"username": p1.Username},
		"yourTurn":  false,
		"gameState": state,
	})

	room.mu.Lock()
	room.armTurnTimer()
	room.mu.Unlock()

	s.log.Infow("✅ 对战房间创建", "roomId", roomID, "player1", p1.Username, "player2", p2.Username)
}

// lookupDeck 取玩家启用的卡组，查不到就给默认卡组
func (s *GameServer) lookupDeck(ctx context.Context, playerID string) []string {
	if s.decks == nil {
		return battle.DefaultDeck()
	}
	cards, err := s.decks.ActiveDeckCards(ctx, playerID)
	if err != nil || len(cards) == 0 {
		return battle.DefaultDeck()
	}
	return cards
}

// sideOf 连接在本房间的阵营
func (r *BattleRoom) sideOf(pc *PlayerConn) (battle.Side, bool) {
	switch pc {
	case r.p1:
		return battle.SideA, true
	case r.p2:
		return battle.SideB, true
	}
	return "", false
}

func (r *BattleRoom) connOf(side battle.Side) *PlayerConn {
	if side == battle.SideA {
		return r.p1
	}
	return r.p2
}

// gameStateData 完整状态快照，双方收到的内容一字不差
func (r *BattleRoom) gameStateData() map[string]interface{} {
	raw, err := json.Marshal(r.engine)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// broadcast 按固定顺序发给双方，保证两边观察到同一消息序列
func (r *BattleRoom) broadcast(msgType string, data map[string]interface{}) {
	r.p1.Send(msgType, data)
	r.p2.Send(msgType, data)
}

// handleBattleAction 出牌 / 攻击 / 认输
func (s *GameServer) handleBattleAction(conn WriteOnlyConn, pc *PlayerConn, data map[string]interface{}) {
	if pc == nil {
		s.sendErrorRaw(conn, battle.ErrNotAuthenticated)
		return
	}
	room := s.roomByID(pc.Room())
	if room == nil {
		pc.SendError(battle.ErrBattleNotActive)
		return
	}

	var action dto.BattleActionData
	if err := decodePayload(data, &action); err != nil || action.Action == "" {
		pc.SendError(battle.ErrInvalidMessage)
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	side, ok := room.sideOf(pc)
	if !ok || room.done {
		pc.SendError(battle.ErrBattleNotActive)
		return
	}

	var err error
	switch action.Action {
	case dto.ActionPlayCard:
		err = room.engine.PlayCard(side, action.CardID, action.TargetID)
	case dto.ActionAttack:
		err = room.engine.Attack(side, action.CardID, action.TargetID)
	case dto.ActionSurrender:
		err = room.engine.Surrender(side)
	default:
		err = battle.ErrInvalidMessage
	}

	if err != nil {
		// 被拒绝的动作不广播、不改状态，只回执给发起方
		pc.SendError(err)
		return
	}

	room.broadcast("battle_action", map[string]interface{}{
		"playerId":  pc.PlayerID,
		"action":    action.Action,
		"cardId":    action.CardID,
		"targetId":  action.TargetID,
		"gameState": room.gameStateData(),
	})

	if room.engine.Status == battle.StatusEnded {
		room.finishLocked()
	}
}

// handleEndTurn 主动结束回合
func (s *GameServer) handleEndTurn(conn WriteOnlyConn, pc *PlayerConn) {
	if pc == nil {
		s.sendErrorRaw(conn, battle.ErrNotAuthenticated)
		return
	}
	room := s.roomByID(pc.Room())
	if room == nil {
		pc.SendError(battle.ErrBattleNotActive)
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	side, ok := room.sideOf(pc)
	if !ok || room.done {
		pc.SendError(battle.ErrBattleNotActive)
		return
	}
	if err := room.engine.EndTurn(side); err != nil {
		pc.SendError(err)
		return
	}
	room.afterTurnChangeLocked()
}

// afterTurnChangeLocked 广播 turn_changed 并重置 75 秒回合计时
func (r *BattleRoom) afterTurnChangeLocked() {
	r.broadcast("turn_changed", map[string]interface{}{
		"currentTurn":   r.engine.Turn,
		"turnStartTime": r.engine.TurnStartTime.UnixMilli(),
	})
	r.armTurnTimer()
}

// armTurnTimer 回合超时自动切回合，走和客户端 end_turn
// 完全相同的加锁路径，避免和正常操作竞态
func (r *BattleRoom) armTurnTimer() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
	}
	turn := r.engine.Turn
	r.turnTimer = time.AfterFunc(r.server.turnTimeout, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.done || r.engine.Status != battle.StatusActive || r.engine.Turn != turn {
			return
		}
		r.server.log.Infow("⚠️ 回合超时，自动切换", "roomId", r.ID, "turn", turn)
		if err := r.engine.EndTurn(turn); err != nil {
			return
		}
		r.afterTurnChangeLocked()
	})
}

// HandleDisconnect 对战中掉线：对手直接获胜
func (r *BattleRoom) HandleDisconnect(pc *PlayerConn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return
	}
	side, ok := r.sideOf(pc)
	if !ok {
		return
	}

	opponent := r.connOf(battle.Opponent(side))
	opponent.Send("opponent_disconnected", nil)

	if r.engine.Status == battle.StatusActive {
		r.engine.Surrender(side)
	}
	r.finishLocked()
}

// finishLocked 终局收尾：发奖励、清理注册信息、丢弃房间
func (r *BattleRoom) finishLocked() {
	if r.done {
		return
	}
	r.done = true
	if r.turnTimer != nil {
		r.turnTimer.Stop()
	}

	winner := r.connOf(r.engine.Winner)
	loser := r.connOf(battle.Opponent(r.engine.Winner))

	s := r.server
	if s.rewards != nil && r.engine.Winner != battle.SideDraw {
		if err := s.rewards.ApplyOutcome(context.Background(), r.ID, winner.PlayerID, loser.PlayerID); err != nil {
			s.log.Errorw("❌ 对战奖励结算失败", "roomId", r.ID, "err", err)
		}
	}

	r.p1.SetRoom("")
	r.p2.SetRoom("")

	s.roomMu.Lock()
	delete(s.rooms, r.ID)
	s.roomMu.Unlock()

	if s.rdb != nil {
		ctx := context.Background()
		s.rdb.Del(ctx, fmt.Sprintf("room:%s:info", r.ID))
		s.rdb.Incr(ctx, "stats:battles")
	}

	s.log.Infow("对战结束", "roomId", r.ID, "winner", winner.Username)
}
