package ws

import "go-battle/battle"

// joinQueue 加入匹配队列，回执带 1 起始的队列位置
func (s *GameServer) joinQueue(conn WriteOnlyConn, pc *PlayerConn) {
	if pc == nil {
		s.sendErrorRaw(conn, battle.ErrNotAuthenticated)
		return
	}

	s.queueMu.Lock()
	if pc.InQueue {
		s.queueMu.Unlock()
		pc.SendError(battle.ErrAlreadyQueued)
		return
	}
	pc.InQueue = true
	s.queue = append(s.queue, pc)
	position := len(s.queue)
	s.queueMu.Unlock()

	pc.Send("queue_joined", map[string]interface{}{"queuePosition": position})
	s.log.Infow("玩家加入匹配队列", "username", pc.Username, "position", position)
}

// leaveQueue 退出队列，不在队列里时静默成功
func (s *GameServer) leaveQueue(pc *PlayerConn) {
	if pc == nil {
		return
	}

	s.queueMu.Lock()
	removed := s.removeFromQueueLocked(pc)
	s.queueMu.Unlock()

	if removed {
		pc.Send("queue_left", nil)
		s.log.Infow("玩家退出匹配队列", "username", pc.Username)
	}
}

// removeFromQueueLocked 从队列里摘掉一个连接（调用方持 queueMu）
func (s *GameServer) removeFromQueueLocked(pc *PlayerConn) bool {
	for i, qc := range s.queue {
		if qc == pc {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			pc.InQueue = false
			return true
		}
	}
	pc.InQueue = false
	return false
}

// processMatchmaking 匹配扫描：严格 FIFO，一次配一对，
// 传输已断开的队列项直接跳过丢弃
func (s *GameServer) processMatchmaking() {
	for {
		p1, p2 := s.popPairLocked()
		if p1 == nil || p2 == nil {
			// 只剩一个活人就塞回队头，等下一轮
			if p1 != nil {
				s.queueMu.Lock()
				p1.InQueue = true
				s.queue = append([]*PlayerConn{p1}, s.queue...)
				s.queueMu.Unlock()
			}
			return
		}
		s.createBattleRoom(p1, p2)
	}
}

// popPairLocked 弹出两个等待最久的活跃连接
func (s *GameServer) popPairLocked() (*PlayerConn, *PlayerConn) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	var picked []*PlayerConn
	for len(s.queue) > 0 && len(picked) < 2 {
		pc := s.queue[0]
		s.queue = s.queue[1:]
		pc.InQueue = false
		if !pc.Alive() {
			continue
		}
		picked = append(picked, pc)
	}

	switch len(picked) {
	case 2:
		return picked[0], picked[1]
	case 1:
		return picked[0], nil
	default:
		return nil, nil
	}
}
