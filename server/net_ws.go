package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ID    ConnID
	ws    *websocket.Conn
	codec Codec

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClientConn(id ConnID, ws *websocket.Conn, codec Codec) *ClientConn {
	return &ClientConn{
		ID:    id,
		ws:    ws,
		codec: codec,
		send:  make(chan []byte, sendBuffer),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		// 为了实时性，丢弃新消息（防止阻塞 Tick）
		return false
	}
}

// Close 关闭发送队列，写协程随之退出并关闭底层连接
func (c *ClientConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(c.codec.MessageType(), msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息，交给会话目录处理
func (c *ClientConn) readPump(s *Server) {
	defer func() {
		s.hub.unregister(c.ID)
		s.dir.Disconnect(c.ID)
		c.Close()
		_ = c.ws.Close()
		Log.Infow("connection closed", "conn", string(c.ID))
	}()
	c.ws.SetReadLimit(4 << 10)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		mt, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugw("read error", "conn", string(c.ID), "err", err)
			}
			return
		}
		im, err := DecodeInput(mt, payload)
		if err != nil {
			continue
		}
		s.dir.HandleMessage(c.ID, im)
	}
}

// Hub 连接注册表与房间广播组，实现 Transport
type Hub struct {
	mu    sync.RWMutex
	conns map[ConnID]*ClientConn
	rooms map[string]map[ConnID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[ConnID]*ClientConn),
		rooms: make(map[string]map[ConnID]struct{}),
	}
}

func (h *Hub) register(c *ClientConn) {
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(id ConnID) {
	h.mu.Lock()
	delete(h.conns, id)
	for _, members := range h.rooms {
		delete(members, id)
	}
	h.mu.Unlock()
}

// Deliver 发送给单个连接
func (h *Hub) Deliver(id ConnID, event string, payload any) {
	h.mu.RLock()
	c := h.conns[id]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	b, err := c.codec.Encode(Envelope{Type: event, Data: payload})
	if err != nil {
		Log.Errorw("encode failed", "event", event, "codec", c.codec.Name(), "err", err)
		return
	}
	if !c.Enqueue(b) {
		Log.Debugw("send dropped", "conn", string(id), "event", event)
	}
}

// Broadcast 发送给房间内所有连接，每种编码只序列化一次
func (h *Hub) Broadcast(code string, event string, payload any) {
	h.mu.RLock()
	targets := make([]*ClientConn, 0, len(h.rooms[code]))
	for id := range h.rooms[code] {
		if c := h.conns[id]; c != nil {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	encoded := make(map[string][]byte, 2)
	for _, c := range targets {
		b, ok := encoded[c.codec.Name()]
		if !ok {
			var err error
			b, err = c.codec.Encode(Envelope{Type: event, Data: payload})
			if err != nil {
				Log.Errorw("encode failed", "event", event, "codec", c.codec.Name(), "err", err)
				continue
			}
			encoded[c.codec.Name()] = b
		}
		if !c.Enqueue(b) {
			Log.Debugw("send dropped", "conn", string(c.ID), "event", event)
		}
	}
}

// Subscribe 将连接加入房间广播组
func (h *Hub) Subscribe(code string, id ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[ConnID]struct{}, 2)
		h.rooms[code] = members
	}
	members[id] = struct{}{}
}

// Release 解散房间广播组
func (h *Hub) Release(code string) {
	h.mu.Lock()
	delete(h.rooms, code)
	h.mu.Unlock()
}

// Members 房间广播组内的连接数
func (h *Hub) Members(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

// Server 组合 WebSocket 接入、连接注册表与会话目录
type Server struct {
	hub      *Hub
	dir      *Directory
	upgrader websocket.Upgrader
}

// NewServer 按配置创建服务端
func NewServer(cfg Config) *Server {
	hub := NewHub()
	return &Server{
		hub: hub,
		dir: NewDirectory(cfg.Rooms, hub),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// 演示环境：允许所有来源（生产环境需严格限制）
				return true
			},
		},
	}
}

// Directory 会话目录
func (s *Server) Directory() *Directory { return s.dir }

// Close 停止所有房间
func (s *Server) Close() { s.dir.Close() }

// HandleWS WebSocket 接入：/ws?codec=json|msgpack
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	codec := CodecByName(r.URL.Query().Get("codec"))
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("upgrade error", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := NewClientConn(ConnID(uuid.NewString()), ws, codec)
	s.hub.register(client)
	Log.Infow("connection opened", "conn", string(client.ID), "remote", r.RemoteAddr, "codec", codec.Name())

	go client.writePump()
	go client.readPump(s)
}
