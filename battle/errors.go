package battle

import "errors"

// 对战错误码，统一发给客户端的 error 消息内容
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrAlreadyQueued    = errors.New("already in queue")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInsufficientMana = errors.New("insufficient mana")
	ErrCardNotInHand    = errors.New("card not in hand")
	ErrTargetRequired   = errors.New("target required")
	ErrCannotAttack     = errors.New("cannot attack")
	ErrBattleNotActive  = errors.New("battle not active")
	ErrInvalidMessage   = errors.New("invalid message format")
)
