package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"go-battle/battle"
	"go-battle/dto"
	"go-battle/entities"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	matchmakingInterval = 2 * time.Second
	turnTimeout         = battle.TurnSeconds * time.Second
)

// PlayerDirectory 玩家档案查询（外部协作方）
type PlayerDirectory interface {
	GetPlayer(ctx context.Context, playerID string) (*entities.Player, error)
}

// DeckProvider 卡组查询，没有配置卡组时返回默认卡组
type DeckProvider interface {
	ActiveDeckCards(ctx context.Context, playerID string) ([]string, error)
}

// RewardApplier 对战结算后的奖励落库（外部协作方）
type RewardApplier interface {
	ApplyOutcome(ctx context.Context, roomID, winnerID, loserID string) error
}

// GameServer 实时对战服务：连接注册表、匹配队列、对战房间
// 全部状态由本对象独占，不依赖任何包级全局
type GameServer struct {
	log     *zap.SugaredLogger
	players PlayerDirectory
	decks   DeckProvider
	rewards RewardApplier
	rdb     *redis.Client // 可为 nil，在线状态与统计用

	connMu      sync.Mutex
	connections map[string]*PlayerConn

	queueMu sync.Mutex
	queue   []*PlayerConn

	roomMu sync.Mutex
	rooms  map[string]*BattleRoom

	sweepInterval time.Duration
	turnTimeout   time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
}

func NewGameServer(logger *zap.Logger, players PlayerDirectory, decks DeckProvider, rewards RewardApplier, rdb *redis.Client) *GameServer {
	return &GameServer{
		log:           logger.Sugar(),
		players:       players,
		decks:         decks,
		rewards:       rewards,
		rdb:           rdb,
		connections:   make(map[string]*PlayerConn),
		rooms:         make(map[string]*BattleRoom),
		sweepInterval: matchmakingInterval,
		turnTimeout:   turnTimeout,
		stopCh:        make(chan struct{}),
	}
}

// StartMatchmaking 启动匹配扫描协程，每 2 秒配对一次
func (s *GameServer) StartMatchmaking() {
	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.processMatchmaking()
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop 停止匹配协程
func (s *GameServer) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// HandleWebSocket WebSocket 主入口（处理每个连接）
func (s *GameServer) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warnw("WebSocket 升级失败", "err", err)
		return
	}
	defer conn.Close()

	s.log.Info("新 WebSocket 连接")
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.HandleMessage(conn, raw)
	}
	s.HandleDisconnect(conn)
}

// HandleMessage 解析并分发一条入站消息
func (s *GameServer) HandleMessage(conn WriteOnlyConn, raw []byte) {
	var msg dto.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendErrorRaw(conn, battle.ErrInvalidMessage)
		return
	}

	pc := s.findByConn(conn)

	switch msg.Type {
	case "authenticate":
		s.authenticate(conn, msg.Data)
	case "join_queue":
		s.joinQueue(conn, pc)
	case "leave_queue":
		s.leaveQueue(pc)
	case "battle_action":
		s.handleBattleAction(conn, pc, msg.Data)
	case "end_turn":
		s.handleEndTurn(conn, pc)
	default:
		s.log.Warnw("⚠️ 未知的消息类型", "type", msg.Type)
		s.sendErrorRaw(conn, battle.ErrInvalidMessage)
	}
}

// authenticate 认证：查档案、顶掉同账号旧连接、注册新连接
func (s *GameServer) authenticate(conn WriteOnlyConn, data map[string]interface{}) {
	var req dto.AuthenticateData
	if err := decodePayload(data, &req); err != nil || req.PlayerID == "" {
		s.sendErrorRaw(conn, battle.ErrInvalidMessage)
		return
	}

	player, err := s.players.GetPlayer(context.Background(), req.PlayerID)
	if err != nil {
		s.log.Warnw("❌ 认证失败", "playerId", req.PlayerID, "err", err)
		s.sendErrorRaw(conn, battle.ErrPlayerNotFound)
		return
	}

	// 同一玩家重复登录：关掉旧连接再注册新的
	s.connMu.Lock()
	old := s.connections[player.UserID]
	s.connMu.Unlock()
	if old != nil {
		s.dropConnection(old)
	}

	pc := &PlayerConn{
		PlayerID: player.UserID,
		Username: player.Username,
		Conn:     conn,
	}
	s.connMu.Lock()
	s.connections[player.UserID] = pc
	s.connMu.Unlock()

	if s.rdb != nil {
		s.rdb.SAdd(context.Background(), "players:online", player.UserID)
	}

	pc.Send("authenticated", map[string]interface{}{
		"playerId": player.UserID,
		"username": player.Username,
	})
	s.log.Infow("✅ 玩家认证成功", "playerId", player.UserID, "username", player.Username)
}

// HandleDisconnect 传输断开后的统一清理
func (s *GameServer) HandleDisconnect(conn WriteOnlyConn) {
	pc := s.findByConn(conn)
	if pc == nil {
		return
	}
	s.dropConnection(pc)
	s.log.Infow("玩家断开连接", "playerId", pc.PlayerID, "username", pc.Username)
}

// dropConnection 把连接踢出队列/房间/注册表并关闭传输
func (s *GameServer) dropConnection(pc *PlayerConn) {
	pc.MarkClosed()

	s.queueMu.Lock()
	s.removeFromQueueLocked(pc)
	s.queueMu.Unlock()

	if roomID := pc.Room(); roomID != "" {
		if room := s.roomByID(roomID); room != nil {
			room.HandleDisconnect(pc)
		}
	}

	s.connMu.Lock()
	if s.connections[pc.PlayerID] == pc {
		delete(s.connections, pc.PlayerID)
	}
	s.connMu.Unlock()

	if s.rdb != nil {
		s.rdb.SRem(context.Background(), "players:online", pc.PlayerID)
	}
}

// findByConn 按底层传输找已注册连接，量级很小，线性扫即可
func (s *GameServer) findByConn(conn WriteOnlyConn) *PlayerConn {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for _, pc := range s.connections {
		if pc.Conn == conn {
			return pc
		}
	}
	return nil
}

func (s *GameServer) roomByID(id string) *BattleRoom {
	s.roomMu.Lock()
	defer s.roomMu.Unlock()
	return s.rooms[id]
}

// sendErrorRaw 给还没有 PlayerConn 的裸连接回 error 消息
func (s *GameServer) sendErrorRaw(conn WriteOnlyConn, err error) {
	raw, merr := json.Marshal(dto.Message{
		Type: "error",
		Data: map[string]interface{}{"message": err.Error()},
	})
	if merr != nil {
		return
	}
	conn.WriteMessage(websocket.TextMessage, raw)
}

// Stats 当前服务状态（REST /api/stats 用）
func (s *GameServer) Stats() dto.ServerStats {
	s.connMu.Lock()
	connected := len(s.connections)
	s.connMu.Unlock()

	s.queueMu.Lock()
	queued := len(s.queue)
	s.queueMu.Unlock()

	s.roomMu.Lock()
	active := len(s.rooms)
	s.roomMu.Unlock()

	stats := dto.ServerStats{
		ConnectedPlayers: connected,
		PlayersInQueue:   queued,
		ActiveBattles:    active,
	}
	if s.rdb != nil {
		if n, err := s.rdb.Get(context.Background(), "stats:battles").Int64(); err == nil {
			stats.TotalBattles = n
		}
	}
	return stats
}

// decodePayload 把 data map 解码成具体结构
func decodePayload(data map[string]interface{}, out interface{}) error {
	if data == nil {
		return errors.New("empty payload")
	}
	decoderConfig := &mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return err
	}
	return decoder.Decode(data)
}
