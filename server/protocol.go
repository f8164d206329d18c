package server

// ConnID 连接唯一标识（uuid 字符串）
type ConnID string

// 入站事件
const (
	EventNewGame  = "newGame"
	EventJoinGame = "joinGame"
	EventKeydown  = "keydown"
)

// 出站事件
const (
	EventInit           = "init"
	EventGameCode       = "gameCode"
	EventUnknownCode    = "unknownCode"
	EventTooManyPlayers = "tooManyPlayers"
	EventAlreadyInGame  = "alreadyInGame"
	EventRoomExpired    = "roomExpired"
	EventGameState      = "gameState"
	EventGameOver       = "gameOver"
)

// GameOverPayload gameOver 事件负载
type GameOverPayload struct {
	Winner Slot `json:"winner" msgpack:"winner"`
}

// Transport 网络层能力：房间内广播、单连接投递、房间成员管理
// 实现必须是非阻塞的，发送慢不得拖慢 Tick
type Transport interface {
	Deliver(id ConnID, event string, payload any)
	Broadcast(code string, event string, payload any)
	// Subscribe 将连接加入房间广播组
	Subscribe(code string, id ConnID)
	// Release 解散房间广播组
	Release(code string)
}
