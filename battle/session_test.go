package battle

import (
	"testing"
	"time"
)

func TestNewSessionSetup(t *testing.T) {
	s := NewSession("u1", "Alice", DefaultDeck())
	defer s.Stop()

	snap := s.Snapshot()
	if snap == nil {
		t.Fatal("Snapshot 为 nil")
	}
	if snap.Turn != SideA {
		t.Errorf("单机对战玩家应先手, got %s", snap.Turn)
	}
	if snap.Player1.Username != "Alice" || snap.Player2.Username != "Opponent" {
		t.Errorf("双方命名不对: %s vs %s", snap.Player1.Username, snap.Player2.Username)
	}
	if len(snap.Player1.Hand) != OpeningHand || len(snap.Player2.Hand) != OpeningHand {
		t.Errorf("起手手牌数不对")
	}
}

func TestSessionEmptyDeckFallsBack(t *testing.T) {
	s := NewSession("u1", "Alice", nil)
	defer s.Stop()

	snap := s.Snapshot()
	if len(snap.Player1.Deck)+len(snap.Player1.Hand) != len(DefaultDeck()) {
		t.Errorf("没有卡组时应使用默认卡组")
	}
}

func TestSessionEndTurnHandsOverToAI(t *testing.T) {
	s := NewSession("u1", "Alice", DefaultDeck())
	defer s.Stop()

	if err := s.EndTurn(); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if got := s.Snapshot().Turn; got != SideB {
		t.Errorf("turn = %s, want player2", got)
	}
	// 对方回合里玩家的操作都要被拒
	if err := s.EndTurn(); err != ErrNotYourTurn {
		t.Errorf("err = %v, want ErrNotYourTurn", err)
	}
	if err := s.Attack("x", ""); err != ErrNotYourTurn {
		t.Errorf("err = %v, want ErrNotYourTurn", err)
	}
}

// 提前结束回合后，开局武装的旧定时器不许在下一个己方回合里再开火
func TestSessionTurnTimerRearmsOnTurnChange(t *testing.T) {
	s := NewSession("u1", "Alice", DefaultDeck())
	defer s.Stop()

	s.mu.Lock()
	s.turnTimeout = 100 * time.Millisecond
	s.armTurnTimer()
	s.mu.Unlock()

	// 第一回合立刻结束，换边必须把旧定时器作废并重新武装
	if err := s.EndTurn(); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}

	// 对方回合到点自动结束，控制权回到玩家
	waitForTurn(t, s, SideA)

	// 玩家第二回合：半个回合窗口内不许被残留定时器掐掉
	time.Sleep(40 * time.Millisecond)
	if got := s.Snapshot().Turn; got != SideA {
		t.Fatalf("第二回合提前结束, turn = %s", got)
	}

	// 窗口走满后才自动换边
	waitForTurn(t, s, SideB)
}

func waitForTurn(t *testing.T, s *Session, want Side) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Snapshot().Turn == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("等不到 %s 的回合", want)
}

func TestSessionSnapshotIsCopy(t *testing.T) {
	s := NewSession("u1", "Alice", DefaultDeck())
	defer s.Stop()

	snap := s.Snapshot()
	snap.Player1.Health = 1

	if s.Snapshot().Player1.Health != StartingHealth {
		t.Errorf("Snapshot 应是深拷贝")
	}
}

// 事件通道是单机模式对外的推送口：回合切换和终局都要能收到
func TestSessionUpdatesChannel(t *testing.T) {
	s := NewSession("u1", "Alice", DefaultDeck())
	defer s.Stop()

	if err := s.EndTurn(); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if got := nextUpdate(t, s); got != "turn" {
		t.Fatalf("event = %q, want turn", got)
	}

	// 把对手压到斩杀线，攻击后先收 state 再收 ended
	s.mu.Lock()
	s.engine.Turn = SideA
	atk := NewBattleCard(catalog[0])
	atk.CanAttack = true
	s.engine.Player1.Field = append(s.engine.Player1.Field, atk)
	s.engine.Player2.Health = 1
	s.mu.Unlock()

	if err := s.Attack(atk.InstanceID, ""); err != nil {
		t.Fatalf("Attack: %v", err)
	}
	if got := nextUpdate(t, s); got != "state" {
		t.Fatalf("event = %q, want state", got)
	}
	if got := nextUpdate(t, s); got != "ended" {
		t.Fatalf("event = %q, want ended", got)
	}
}

func nextUpdate(t *testing.T, s *Session) string {
	t.Helper()
	select {
	case ev := <-s.Updates():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("等不到事件通知")
		return ""
	}
}

func TestGenerateAIDeck(t *testing.T) {
	deck := generateAIDeck()
	if len(deck) != 20 {
		t.Fatalf("AI 卡组 %d 张, want 20", len(deck))
	}
	for _, id := range deck {
		if _, ok := CardByID(id); !ok {
			t.Errorf("AI 卡组含未知卡牌 %s", id)
		}
	}
}

func TestAISpellTargeting(t *testing.T) {
	s := NewSession("u1", "Alice", DefaultDeck())
	defer s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	spell := NewBattleCard(catalog[3]) // basic_spell, damage
	// 玩家场上没随从时伤害法术没有目标
	if got := s.aiSpellTarget(s.engine.Player2, spell); got != "" {
		t.Errorf("无目标时应返回空串, got %s", got)
	}

	c := NewBattleCard(catalog[0])
	s.engine.Player1.Field = append(s.engine.Player1.Field, c)
	if got := s.aiSpellTarget(s.engine.Player2, spell); got != c.InstanceID {
		t.Errorf("伤害法术应指向玩家随从, got %s", got)
	}

	heal := NewBattleCard(catalog[4]) // basic_heal
	if got := s.aiSpellTarget(s.engine.Player2, heal); got != "" {
		t.Errorf("没有残血随从时治疗不应有目标")
	}
	own := NewBattleCard(catalog[5]) // knight_defender 3/6
	own.CurrentHealth = 2
	s.engine.Player2.Field = append(s.engine.Player2.Field, own)
	if got := s.aiSpellTarget(s.engine.Player2, heal); got != own.InstanceID {
		t.Errorf("治疗应指向自己的残血随从")
	}
}
