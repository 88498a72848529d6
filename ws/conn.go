package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"go-battle/dto"
)

// WriteOnlyConn 出站写接口，测试里用假连接代替真 WebSocket
type WriteOnlyConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

var _ WriteOnlyConn = (*websocket.Conn)(nil) // 编译期断言实现

// PlayerConn 一个已认证玩家的连接，连接注册表独占所有权。
// InQueue 由 GameServer.queueMu 保护；房间归属有自己的锁，
// 匹配协程写、各连接的读协程读。
type PlayerConn struct {
	PlayerID string
	Username string
	Conn     WriteOnlyConn

	InQueue bool

	stateMu sync.Mutex
	roomID  string

	writeMu sync.Mutex // gorilla 不允许并发写同一连接
	closed  bool
}

// SetRoom 记录连接当前所在房间，空串表示不在任何房间
func (pc *PlayerConn) SetRoom(roomID string) {
	pc.stateMu.Lock()
	pc.roomID = roomID
	pc.stateMu.Unlock()
}

// Room 当前房间 ID
func (pc *PlayerConn) Room() string {
	pc.stateMu.Lock()
	defer pc.stateMu.Unlock()
	return pc.roomID
}

// Send 编码并发送一条消息
func (pc *PlayerConn) Send(msgType string, data map[string]interface{}) error {
	raw, err := json.Marshal(dto.Message{Type: msgType, Data: data})
	if err != nil {
		return err
	}
	pc.writeMu.Lock()
	defer pc.writeMu.Unlock()
	if pc.closed {
		return websocket.ErrCloseSent
	}
	return pc.Conn.WriteMessage(websocket.TextMessage, raw)
}

// SendError 给该连接单独回一条 error 消息
func (pc *PlayerConn) SendError(err error) {
	pc.Send("error", map[string]interface{}{"message": err.Error()})
}

// MarkClosed 标记连接已关闭并关掉底层传输
func (pc *PlayerConn) MarkClosed() {
	pc.writeMu.Lock()
	defer pc.writeMu.Unlock()
	if pc.closed {
		return
	}
	pc.closed = true
	pc.Conn.Close()
}

// Alive 连接是否还可用（匹配扫描时防御性检查）
func (pc *PlayerConn) Alive() bool {
	pc.writeMu.Lock()
	defer pc.writeMu.Unlock()
	return !pc.closed
}
