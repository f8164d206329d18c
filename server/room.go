package server

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// RoomStatus 房间状态机：waiting → running → finished
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusRunning  RoomStatus = "running"
	StatusFinished RoomStatus = "finished"
)

var (
	ErrUnknownRoom    = errors.New("unknown room")
	ErrRoomFull       = errors.New("room is full")
	ErrAlreadySeated  = errors.New("connection already seated in a room")
	ErrRoomNotWaiting = errors.New("room is not waiting for a second player")
)

// Room 一局双人对战：权威状态维护在内存，由单个 Tick 协程推进
type Room struct {
	Code string

	cfg       RoomConfig
	transport Transport
	onFinish  func(code string) // 由目录注入，结束时移除房间

	mu      sync.Mutex
	state   GameState
	status  RoomStatus
	conns   [2]ConnID
	rng     *rand.Rand
	tickSeq int64
	winner  Slot
	expiry  *time.Timer // 等待第二名玩家的超时回收

	inputChan chan Input
	leaveChan chan Slot
	stop      chan struct{}

	metrics   *RoomMetrics
	createdAt time.Time
}

// newRoom 创建等待中的房间，房主占据席位 1
func newRoom(code string, cfg RoomConfig, transport Transport, creator ConnID, seed uint64) *Room {
	rng := rand.New(rand.NewSource(seed))
	return &Room{
		Code:      code,
		cfg:       cfg,
		transport: transport,
		state:     NewGameState(cfg.GridSize, rng),
		status:    StatusWaiting,
		conns:     [2]ConnID{creator, ""},
		rng:       rng,
		inputChan: make(chan Input, 64), // 足够缓冲，避免网络读阻塞影响 Tick
		leaveChan: make(chan Slot, 2),
		stop:      make(chan struct{}),
		metrics:   &RoomMetrics{},
		createdAt: time.Now(),
	}
}

// seat 为加入者分配席位 2；不改变状态，随后由 start 启动 Tick
func (r *Room) seat(id ConnID) (Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.status == StatusFinished:
		return SlotNone, ErrUnknownRoom
	case r.status != StatusWaiting || r.conns[1] != "":
		return SlotNone, ErrRoomFull
	}
	r.conns[1] = id
	return SlotTwo, nil
}

// begin 状态迁移 waiting → running（双方均已入座）
func (r *Room) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusWaiting || r.conns[1] == "" {
		return ErrRoomNotWaiting
	}
	r.status = StatusRunning
	if r.expiry != nil {
		r.expiry.Stop()
		r.expiry = nil
	}
	return nil
}

// abandon 等待中的房间被放弃（房主离开或超时），返回是否完成迁移
func (r *Room) abandon() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusWaiting || r.conns[1] != "" {
		return false
	}
	r.status = StatusFinished
	if r.expiry != nil {
		r.expiry.Stop()
		r.expiry = nil
	}
	close(r.stop)
	return true
}

// Stop 强制结束房间（进程退出时使用），不广播 gameOver
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusFinished {
		return
	}
	r.status = StatusFinished
	if r.expiry != nil {
		r.expiry.Stop()
		r.expiry = nil
	}
	close(r.stop)
}

// OnInput 入站输入（不立即改变速度），仅记录意图，等下一次 Tick 处理
func (r *Room) OnInput(in Input) {
	// 不阻塞：输入拥塞时丢弃，保证 Tick 准时
	select {
	case r.inputChan <- in:
	default:
		r.metrics.IncChanFullDrops()
	}
}

// RequestLeave 请求在 Tick 协程中判该席位弃权
func (r *Room) RequestLeave(slot Slot) {
	select {
	case r.leaveChan <- slot:
	default:
	}
}

// processInputsLocked 应用当前帧的所有输入（非阻塞 drain），同帧内后到者覆盖先到者
func (r *Room) processInputsLocked() {
	for {
		select {
		case in := <-r.inputChan:
			p := r.state.Player(in.Slot)
			if p == nil {
				continue
			}
			vel, ok := UpdatedVelocity(in.KeyCode, p.Heading())
			if !ok {
				r.metrics.IncIgnored()
				continue
			}
			p.Vel = vel
			r.metrics.IncAccepted()
		default:
			return
		}
	}
}

// forfeitWinnerLocked 有玩家离开时返回对手席位；双方都离开时按席位 1 判负
func (r *Room) forfeitWinnerLocked() Slot {
	var left [2]bool
	for {
		select {
		case slot := <-r.leaveChan:
			if slot.Valid() {
				left[slot.index()] = true
			}
		default:
			return winnerOf(left)
		}
	}
}

// Status 当前状态
func (r *Room) Status() RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// State 当前游戏状态的深拷贝
func (r *Room) State() GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// Winner 已结束房间的胜者
func (r *Room) Winner() Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winner
}

// RoomInfo 房间概要（用于管理接口）
type RoomInfo struct {
	Code      string         `json:"code"`
	Status    RoomStatus     `json:"status"`
	Players   int            `json:"players"`
	Tick      int64          `json:"tick"`
	GridSize  int            `json:"gridSize"`
	TickRate  int            `json:"tickRate"`
	CreatedAt time.Time      `json:"createdAt"`
	Metrics   map[string]any `json:"metrics"`
}

// Info 返回房间概要
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	players := 0
	for _, id := range r.conns {
		if id != "" {
			players++
		}
	}
	return RoomInfo{
		Code:      r.Code,
		Status:    r.status,
		Players:   players,
		Tick:      r.tickSeq,
		GridSize:  r.cfg.GridSize,
		TickRate:  r.cfg.TickRate,
		CreatedAt: r.createdAt,
		Metrics:   r.metrics.Snapshot(),
	}
}

// setExpiry 设置等待超时计时器（仅 waiting 状态有效）
func (r *Room) setExpiry(t *time.Timer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusWaiting {
		t.Stop()
		return
	}
	r.expiry = t
}
