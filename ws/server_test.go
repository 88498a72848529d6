package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"go-battle/battle"
	"go-battle/dto"
	"go-battle/entities"
)

// fakeConn 测试用假连接，按 VirtualConn 的思路记录出站消息
type fakeConn struct {
	mu       sync.Mutex
	messages []dto.Message
	closed   bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var msg dto.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// lastByType 取最近一条指定类型的消息
func (f *fakeConn) lastByType(msgType string) *dto.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].Type == msgType {
			m := f.messages[i]
			return &m
		}
	}
	return nil
}

func (f *fakeConn) countByType(msgType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.messages {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

type fakeDirectory map[string]*entities.Player

func (d fakeDirectory) GetPlayer(ctx context.Context, playerID string) (*entities.Player, error) {
	p, ok := d[playerID]
	if !ok {
		return nil, battle.ErrPlayerNotFound
	}
	return p, nil
}

type fakeDecks map[string][]string

func (d fakeDecks) ActiveDeckCards(ctx context.Context, playerID string) ([]string, error) {
	return d[playerID], nil
}

type outcome struct {
	roomID, winnerID, loserID string
}

type fakeRewards struct {
	mu       sync.Mutex
	outcomes []outcome
}

func (r *fakeRewards) ApplyOutcome(ctx context.Context, roomID, winnerID, loserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome{roomID, winnerID, loserID})
	return nil
}

func newTestServer() (*GameServer, *fakeRewards) {
	dir := fakeDirectory{
		"u1": {UserID: "u1", Username: "Alice"},
		"u2": {UserID: "u2", Username: "Bob"},
		"u3": {UserID: "u3", Username: "Carol"},
	}
	rewards := &fakeRewards{}
	s := NewGameServer(zap.NewNop(), dir, fakeDecks{}, rewards, nil)
	return s, rewards
}

func sendMsg(t *testing.T, s *GameServer, conn WriteOnlyConn, msgType string, data map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(dto.Message{Type: msgType, Data: data})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s.HandleMessage(conn, raw)
}

func authPlayer(t *testing.T, s *GameServer, playerID string) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	sendMsg(t, s, conn, "authenticate", map[string]interface{}{"playerId": playerID})
	ack := conn.lastByType("authenticated")
	if ack == nil {
		t.Fatalf("玩家 %s 认证没有回执: %+v", playerID, conn.messages)
	}
	return conn
}

func TestAuthenticateSuccess(t *testing.T) {
	s, _ := newTestServer()
	conn := authPlayer(t, s, "u1")

	ack := conn.lastByType("authenticated")
	if ack.Data["playerId"] != "u1" || ack.Data["username"] != "Alice" {
		t.Errorf("authenticated data = %+v", ack.Data)
	}
}

func TestAuthenticateUnknownPlayer(t *testing.T) {
	s, _ := newTestServer()
	conn := &fakeConn{}
	sendMsg(t, s, conn, "authenticate", map[string]interface{}{"playerId": "ghost"})

	errMsg := conn.lastByType("error")
	if errMsg == nil || errMsg.Data["message"] != battle.ErrPlayerNotFound.Error() {
		t.Errorf("应返回 player not found, got %+v", conn.messages)
	}
	if conn.lastByType("authenticated") != nil {
		t.Errorf("不应发认证成功")
	}
}

func TestReauthenticateReplacesConnection(t *testing.T) {
	s, _ := newTestServer()
	first := authPlayer(t, s, "u1")
	second := authPlayer(t, s, "u1")

	if !first.isClosed() {
		t.Errorf("旧连接应被关闭")
	}
	pc := s.findByConn(second)
	if pc == nil || pc.PlayerID != "u1" {
		t.Fatalf("新连接应在注册表中")
	}
	if s.findByConn(first) != nil {
		t.Errorf("旧连接不应再被找到")
	}
}

func TestJoinQueueRequiresAuth(t *testing.T) {
	s, _ := newTestServer()
	conn := &fakeConn{}
	sendMsg(t, s, conn, "join_queue", nil)

	errMsg := conn.lastByType("error")
	if errMsg == nil || errMsg.Data["message"] != battle.ErrNotAuthenticated.Error() {
		t.Errorf("未认证加队列应报错, got %+v", conn.messages)
	}
}

func TestJoinQueuePositionAndDuplicate(t *testing.T) {
	s, _ := newTestServer()
	c1 := authPlayer(t, s, "u1")
	c2 := authPlayer(t, s, "u2")

	sendMsg(t, s, c1, "join_queue", nil)
	sendMsg(t, s, c2, "join_queue", nil)

	if pos := c1.lastByType("queue_joined").Data["queuePosition"]; pos != float64(1) {
		t.Errorf("c1 队列位置 = %v, want 1", pos)
	}
	if pos := c2.lastByType("queue_joined").Data["queuePosition"]; pos != float64(2) {
		t.Errorf("c2 队列位置 = %v, want 2", pos)
	}

	sendMsg(t, s, c1, "join_queue", nil)
	errMsg := c1.lastByType("error")
	if errMsg == nil || errMsg.Data["message"] != battle.ErrAlreadyQueued.Error() {
		t.Errorf("重复入队应报错, got %+v", errMsg)
	}
}

func TestLeaveQueueIdempotent(t *testing.T) {
	s, _ := newTestServer()
	c1 := authPlayer(t, s, "u1")

	sendMsg(t, s, c1, "join_queue", nil)
	sendMsg(t, s, c1, "leave_queue", nil)
	if c1.lastByType("queue_left") == nil {
		t.Errorf("退队应有回执")
	}

	// 不在队列里再退一次：无副作用也无报错
	before := c1.countByType("queue_left")
	sendMsg(t, s, c1, "leave_queue", nil)
	if c1.countByType("queue_left") != before {
		t.Errorf("幂等退队不应再发回执")
	}
	if c1.lastByType("error") != nil {
		t.Errorf("幂等退队不应报错")
	}
}

func TestMatchmakingPairsFIFO(t *testing.T) {
	s, _ := newTestServer()
	c1 := authPlayer(t, s, "u1")
	c2 := authPlayer(t, s, "u2")
	c3 := authPlayer(t, s, "u3")

	sendMsg(t, s, c1, "join_queue", nil)
	sendMsg(t, s, c2, "join_queue", nil)
	sendMsg(t, s, c3, "join_queue", nil)

	s.processMatchmaking()

	f1 := c1.lastByType("battle_found")
	f2 := c2.lastByType("battle_found")
	if f1 == nil || f2 == nil {
		t.Fatalf("前两名应被配对")
	}
	if c3.lastByType("battle_found") != nil {
		t.Errorf("第三名不该被配对")
	}

	// 先入队者先手，yourTurn 一真一假
	if f1.Data["yourTurn"] != true || f2.Data["yourTurn"] != false {
		t.Errorf("yourTurn = %v / %v, want true / false", f1.Data["yourTurn"], f2.Data["yourTurn"])
	}
	if f1.Data["opponent"].(map[string]interface{})["username"] != "Bob" {
		t.Errorf("c1 的对手应是 Bob")
	}

	// 双方初始快照必须一字不差
	g1, _ := json.Marshal(f1.Data["gameState"])
	g2, _ := json.Marshal(f2.Data["gameState"])
	if string(g1) != string(g2) {
		t.Errorf("双方 gameState 不一致")
	}

	stats := s.Stats()
	if stats.ActiveBattles != 1 || stats.PlayersInQueue != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMatchmakingSkipsDeadEntries(t *testing.T) {
	s, _ := newTestServer()
	c1 := authPlayer(t, s, "u1")
	c2 := authPlayer(t, s, "u2")
	c3 := authPlayer(t, s, "u3")

	sendMsg(t, s, c1, "join_queue", nil)
	sendMsg(t, s, c2, "join_queue", nil)
	sendMsg(t, s, c3, "join_queue", nil)

	// u1 在下一次扫描前掉线
	s.HandleDisconnect(c1)
	s.processMatchmaking()

	if c1.lastByType("battle_found") != nil {
		t.Errorf("掉线玩家不该被配对")
	}
	if c2.lastByType("battle_found") == nil || c3.lastByType("battle_found") == nil {
		t.Errorf("剩下两人应被配对")
	}
}

// 匹配建房和玩家消息并发进行时，房间归属的读写不能相互踩踏。
// 配合 -race 运行可以抓到无锁访问。
func TestRoomAssignmentConcurrentWithActions(t *testing.T) {
	s, _ := newTestServer()
	c1 := authPlayer(t, s, "u1")
	c2 := authPlayer(t, s, "u2")

	sendMsg(t, s, c1, "join_queue", nil)
	sendMsg(t, s, c2, "join_queue", nil)

	raw, err := json.Marshal(dto.Message{Type: "end_turn"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.processMatchmaking()
	}()
	for _, conn := range []*fakeConn{c1, c2} {
		conn := conn
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.HandleMessage(conn, raw)
			}
		}()
	}
	wg.Wait()

	s.roomMu.Lock()
	if len(s.rooms) != 1 {
		s.roomMu.Unlock()
		t.Fatalf("应恰好一个房间, got %d", len(s.rooms))
	}
	var room *BattleRoom
	for _, r := range s.rooms {
		room = r
	}
	s.roomMu.Unlock()

	if room.p1.Room() != room.ID || room.p2.Room() != room.ID {
		t.Errorf("房间归属不一致: %q / %q, room %s",
			room.p1.Room(), room.p2.Room(), room.ID)
	}
}

// pairUp 把两个玩家配成一局并返回房间
func pairUp(t *testing.T, s *GameServer, c1, c2 *fakeConn) *BattleRoom {
	t.Helper()
	sendMsg(t, s, c1, "join_queue", nil)
	sendMsg(t, s, c2, "join_queue", nil)
	s.processMatchmaking()

	s.roomMu.Lock()
	defer s.roomMu.Unlock()
	if len(s.rooms) != 1 {
		t.Fatalf("应恰好一个房间, got %d", len(s.rooms))
	}
	for _, r := range s.rooms {
		return r
	}
	return nil
}

func TestBattleActionBroadcastsToBoth(t *testing.T) {
	s, _ := newTestServer()
	c1 := authPlayer(t, s, "u1")
	c2 := authPlayer(t, s, "u2")
	room := pairUp(t, s, c1, c2)

	// 给先手方场上放一个能攻击的随从
	card, _ := battle.CardByID("dragon_knight")
	bc := battle.NewBattleCard(card)
	bc.CanAttack = true
	room.mu.Lock()
	room.engine.Player1.Field = append(room.engine.Player1.Field, bc)
	room.mu.Unlock()

	sendMsg(t, s, c1, "battle_action", map[string]interface{}{
		"action": dto.ActionAttack,
		"cardId": bc.InstanceID,
	})

	m1 := c1.lastByType("battle_action")
	m2 := c2.lastByType("battle_action")
	if m1 == nil || m2 == nil {
		t.Fatalf("动作应广播给双方")
	}
	g1, _ := json.Marshal(m1.Data)
	g2, _ := json.Marshal(m2.Data)
	if string(g1) != string(g2) {
		t.Errorf("双方收到的广播不一致")
	}

	state := m1.Data["gameState"].(map[string]interface{})
	p2state := state["player2"].(map[string]interface{})
	if p2state["health"] != float64(30-card.Attack) {
		t.Errorf("对方血量 = %v, want %d", p2state["health"], 30-card.Attack)
	}
}

func TestBattleActionRejectedNoBroadcast(t *testing.T) {
	s, _ := newTestServer()
	c1 := authPlayer(t, s, "u1")
	c2 := authPlayer(t, s, "u2")
	pairUp(t, s, c1, c2)

	// 后手方在对方回合行动：只给发起方回 error，不广播
	before1 := c1.countByType("battle_action")
	sendMsg(t, s, c2, "end_turn", nil)

	errMsg := c2.lastByType("error")
	if errMsg == nil || errMsg.Data["message"] != battle.ErrNotYourTurn.Error() {
		t.Errorf("应报 not your turn, got %+v", errMsg)
	}
	if c1.countByType("battle_action") != before1 || c1.lastByType("turn_changed") != nil {
		t.Errorf("被拒绝的动作不应广播")
	}
}

func TestEndTurnBroadcastsTurnChanged(t *testing.T) {
	s, _ := newTestServer()
	c1 := authPlayer(t, s, "u1")
	c2 := authPlayer(t, s, "u2")
	room := pairUp(t, s, c1, c2)

	sendMsg(t, s, c1, "end_turn", nil)

	for _, c := range []*fakeConn{c1, c2} {
		m := c.lastByType("turn_changed")
		if m == nil {
			t.Fatalf("turn_changed 应广播给双方")
		}
		if m.Data["currentTurn"] != string(battle.SideB) {
			t.Errorf("currentTurn = %v, want player2", m.Data["currentTurn"])
		}
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	// 新回合方的法力曲线走了一格
	if room.engine.Player2.MaxMana != 2 || room.engine.Player2.Mana != 2 {
		t.Errorf("后手法力 = %d/%d, want 2/2", room.engine.Player2.Mana, room.engine.Player2.MaxMana)
	}
}

func TestLethalAttackEndsRoomAndAppliesRewards(t *testing.T) {
	s, rewards := newTestServer()
	c1 := authPlayer(t, s, "u1")
	c2 := authPlayer(t, s, "u2")
	room := pairUp(t, s, c1, c2)

	card, _ := battle.CardByID("demon_lord") // 攻 7
	bc := battle.NewBattleCard(card)
	bc.CanAttack = true
	room.mu.Lock()
	room.engine.Player1.Field = append(room.engine.Player1.Field, bc)
	room.engine.Player2.Health = 5
	room.mu.Unlock()

	sendMsg(t, s, c1, "battle_action", map[string]interface{}{
		"action": dto.ActionAttack,
		"cardId": bc.InstanceID,
	})

	// 终局快照广播一次，房间销毁
	m := c2.lastByType("battle_action")
	state := m.Data["gameState"].(map[string]interface{})
	if state["status"] != string(battle.StatusEnded) || state["winner"] != string(battle.SideA) {
		t.Errorf("终局状态 = %v / %v", state["status"], state["winner"])
	}
	if s.roomByID(room.ID) != nil {
		t.Errorf("结束后房间应被丢弃")
	}

	rewards.mu.Lock()
	defer rewards.mu.Unlock()
	if len(rewards.outcomes) != 1 || rewards.outcomes[0].winnerID != "u1" || rewards.outcomes[0].loserID != "u2" {
		t.Errorf("奖励结算 = %+v", rewards.outcomes)
	}

	// 房间没了之后的动作必须拒绝
	sendMsg(t, s, c1, "battle_action", map[string]interface{}{
		"action": dto.ActionAttack,
		"cardId": bc.InstanceID,
	})
	errMsg := c1.lastByType("error")
	if errMsg == nil || errMsg.Data["message"] != battle.ErrBattleNotActive.Error() {
		t.Errorf("应报 battle not active, got %+v", errMsg)
	}
}

func TestDisconnectMidBattle(t *testing.T) {
	s, rewards := newTestServer()
	c1 := authPlayer(t, s, "u1")
	c2 := authPlayer(t, s, "u2")
	room := pairUp(t, s, c1, c2)

	s.HandleDisconnect(c1)

	if c2.lastByType("opponent_disconnected") == nil {
		t.Errorf("对手应收到掉线通知")
	}
	if s.roomByID(room.ID) != nil {
		t.Errorf("掉线后房间应被销毁")
	}
	rewards.mu.Lock()
	defer rewards.mu.Unlock()
	if len(rewards.outcomes) != 1 || rewards.outcomes[0].winnerID != "u2" {
		t.Errorf("掉线方的对手应获胜: %+v", rewards.outcomes)
	}

	stats := s.Stats()
	if stats.ConnectedPlayers != 1 || stats.ActiveBattles != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSurrenderEndsBattle(t *testing.T) {
	s, rewards := newTestServer()
	c1 := authPlayer(t, s, "u1")
	c2 := authPlayer(t, s, "u2")
	pairUp(t, s, c1, c2)

	sendMsg(t, s, c1, "battle_action", map[string]interface{}{"action": dto.ActionSurrender})

	rewards.mu.Lock()
	defer rewards.mu.Unlock()
	if len(rewards.outcomes) != 1 || rewards.outcomes[0].winnerID != "u2" {
		t.Errorf("认输后对手应获胜: %+v", rewards.outcomes)
	}
}

func TestInvalidMessage(t *testing.T) {
	s, _ := newTestServer()
	conn := &fakeConn{}
	s.HandleMessage(conn, []byte("not json at all"))

	errMsg := conn.lastByType("error")
	if errMsg == nil || errMsg.Data["message"] != battle.ErrInvalidMessage.Error() {
		t.Errorf("乱码消息应报 invalid message, got %+v", conn.messages)
	}
}

func TestCustomDeckUsedWhenConfigured(t *testing.T) {
	dir := fakeDirectory{
		"u1": {UserID: "u1", Username: "Alice"},
		"u2": {UserID: "u2", Username: "Bob"},
	}
	deck := []string{}
	for i := 0; i < 12; i++ {
		deck = append(deck, "basic_warrior")
	}
	s := NewGameServer(zap.NewNop(), dir, fakeDecks{"u1": deck}, &fakeRewards{}, nil)

	c1 := authPlayer(t, s, "u1")
	c2 := authPlayer(t, s, "u2")
	room := pairUp(t, s, c1, c2)

	room.mu.Lock()
	defer room.mu.Unlock()
	if got := len(room.engine.Player1.Deck) + len(room.engine.Player1.Hand); got != 12 {
		t.Errorf("配置的卡组应被使用, 共 %d 张", got)
	}
	for _, c := range room.engine.Player1.Hand {
		if c.ID != "basic_warrior" {
			t.Errorf("起手应全是 basic_warrior, got %s", c.ID)
		}
	}
	// u2 没配卡组，回落默认
	if got := len(room.engine.Player2.Deck) + len(room.engine.Player2.Hand); got != len(battle.DefaultDeck()) {
		t.Errorf("无卡组应回落默认卡组, 共 %d 张", got)
	}
}

// waitFor 轮询等待条件成立，超时直接失败
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("等待条件超时")
}

func TestTurnTimerAutoEndsTurn(t *testing.T) {
	s, _ := newTestServer()
	s.turnTimeout = 30 * time.Millisecond // 只为测试调短
	c1 := authPlayer(t, s, "u1")
	c2 := authPlayer(t, s, "u2")
	room := pairUp(t, s, c1, c2)

	waitFor(t, func() bool {
		room.mu.Lock()
		defer room.mu.Unlock()
		return room.engine.Turn == battle.SideB
	})

	if c1.lastByType("turn_changed") == nil || c2.lastByType("turn_changed") == nil {
		t.Errorf("超时切回合应广播 turn_changed")
	}
}
