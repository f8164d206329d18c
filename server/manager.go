package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// codeAlphabet 房间码字符集（去掉易混淆的 0/O、1/I）
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// seat 连接所在房间与席位（弱引用，仅用于路由输入）
type seat struct {
	code string
	slot Slot
}

// Directory 会话目录：房间码 → 房间，连接 → 房间码；负责创建、加入准入与结束回收
// 由 main 创建并传给各处理器，不使用全局单例
type Directory struct {
	mu        sync.RWMutex
	rooms     map[string]*Room
	conns     map[ConnID]seat
	cfg       RoomConfig
	rng       *rand.Rand
	transport Transport
	metrics   *DirectoryMetrics

	newCode  func(length int) string
	autoTick bool // 测试中关闭，由用例手动驱动 tick
}

// NewDirectory 创建会话目录
func NewDirectory(cfg RoomConfig, transport Transport) *Directory {
	d := &Directory{
		rooms:     make(map[string]*Room),
		conns:     make(map[ConnID]seat),
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		transport: transport,
		metrics:   &DirectoryMetrics{},
		autoTick:  true,
	}
	d.newCode = d.randomCode
	return d
}

// randomCode 生成随机房间码；调用方需持有 d.mu
func (d *Directory) randomCode(length int) string {
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		sb.WriteByte(codeAlphabet[d.rng.Intn(len(codeAlphabet))])
	}
	return sb.String()
}

// NormalizeCode 房间码不区分大小写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateRoom 为连接创建新房间（席位 1），返回房间码
func (d *Directory) CreateRoom(id ConnID) (string, error) {
	d.mu.Lock()
	if s, ok := d.conns[id]; ok {
		d.mu.Unlock()
		return "", fmt.Errorf("create room: %w (room %s)", ErrAlreadySeated, s.code)
	}
	cfg := d.cfg
	code := d.newCode(cfg.CodeLength)
	for {
		if _, used := d.rooms[code]; !used {
			break
		}
		code = d.newCode(cfg.CodeLength)
	}
	room := newRoom(code, cfg, d.transport, id, d.rng.Uint64())
	room.onFinish = d.removeRoom
	d.rooms[code] = room
	d.conns[id] = seat{code: code, slot: SlotOne}
	d.mu.Unlock()

	if cfg.WaitingTTL > 0 {
		room.setExpiry(time.AfterFunc(cfg.WaitingTTL, func() { d.expire(code) }))
	}
	d.transport.Subscribe(code, id)
	d.metrics.IncCreated()
	Log.Infow("room created", "room", code, "conn", string(id), "gridSize", cfg.GridSize, "tickRate", cfg.TickRate)
	return code, nil
}

// JoinRoom 准入检查：房间不存在返回 ErrUnknownRoom，已满返回 ErrRoomFull；成功后房间开始 Tick
func (d *Directory) JoinRoom(code string, id ConnID) (Slot, error) {
	code = NormalizeCode(code)

	d.mu.Lock()
	if s, ok := d.conns[id]; ok {
		d.mu.Unlock()
		return SlotNone, fmt.Errorf("join %s: %w (room %s)", code, ErrAlreadySeated, s.code)
	}
	room, ok := d.rooms[code]
	if !ok {
		d.mu.Unlock()
		d.metrics.IncRejected()
		return SlotNone, fmt.Errorf("join %s: %w", code, ErrUnknownRoom)
	}
	slot, err := room.seat(id)
	if err != nil {
		d.mu.Unlock()
		d.metrics.IncRejected()
		return SlotNone, fmt.Errorf("join %s: %w", code, err)
	}
	d.conns[id] = seat{code: code, slot: slot}
	d.mu.Unlock()

	d.transport.Subscribe(code, id)
	if d.autoTick {
		err = room.start()
	} else {
		err = room.begin()
	}
	if err != nil {
		// 只有房间在入座后被并发结束时才会发生
		return SlotNone, fmt.Errorf("join %s: %w", code, ErrUnknownRoom)
	}
	Log.Infow("room joined", "room", code, "conn", string(id), "slot", int(slot))
	return slot, nil
}

// RouteInput 将按键转交给连接所在房间；连接未入座时忽略
func (d *Directory) RouteInput(id ConnID, keyCode int) {
	d.mu.RLock()
	s, ok := d.conns[id]
	var room *Room
	if ok {
		room = d.rooms[s.code]
	}
	d.mu.RUnlock()
	if room == nil {
		d.metrics.IncOrphan()
		return
	}
	room.OnInput(Input{Slot: s.slot, KeyCode: keyCode})
}

// Disconnect 连接断开：等待中的房间直接回收，进行中的房间判该席位弃权
func (d *Directory) Disconnect(id ConnID) {
	d.mu.Lock()
	s, ok := d.conns[id]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.conns, id)
	room := d.rooms[s.code]
	if room == nil {
		d.mu.Unlock()
		return
	}
	if room.abandon() {
		d.dropRoomLocked(s.code)
		d.mu.Unlock()
		d.transport.Release(s.code)
		Log.Infow("room abandoned", "room", s.code, "conn", string(id))
		return
	}
	d.mu.Unlock()
	room.RequestLeave(s.slot)
	Log.Infow("player left running room", "room", s.code, "slot", int(s.slot))
}

// expire 等待超时：房间仍无人加入则回收并通知房主
func (d *Directory) expire(code string) {
	d.mu.Lock()
	room, ok := d.rooms[code]
	if !ok || !room.abandon() {
		d.mu.Unlock()
		return
	}
	creator := room.conns[0]
	d.dropRoomLocked(code)
	d.mu.Unlock()

	d.transport.Deliver(creator, EventRoomExpired, code)
	d.transport.Release(code)
	d.metrics.IncEvicted()
	Log.Infow("room expired", "room", code)
}

// removeRoom 房间结束后由房间自身调用
func (d *Directory) removeRoom(code string) {
	d.mu.Lock()
	d.dropRoomLocked(code)
	d.mu.Unlock()
	d.transport.Release(code)
	d.metrics.IncFinished()
}

// dropRoomLocked 删除房间及指向它的连接映射；调用方需持有 d.mu
func (d *Directory) dropRoomLocked(code string) {
	room, ok := d.rooms[code]
	if !ok {
		return
	}
	delete(d.rooms, code)
	for _, id := range room.conns {
		if s, ok := d.conns[id]; ok && s.code == code {
			delete(d.conns, id)
		}
	}
}

// Lookup 按房间码查找房间
func (d *Directory) Lookup(code string) (*Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[NormalizeCode(code)]
	return r, ok
}

// RoomOf 连接当前所在房间码
func (d *Directory) RoomOf(id ConnID) (string, Slot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.conns[id]
	return s.code, s.slot, ok
}

// Rooms 所有房间概要
func (d *Directory) Rooms() []RoomInfo {
	d.mu.RLock()
	rooms := make([]*Room, 0, len(d.rooms))
	for _, r := range d.rooms {
		rooms = append(rooms, r)
	}
	d.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Info())
	}
	return out
}

// RoomConfig 当前新建房间使用的规则
func (d *Directory) RoomConfig() RoomConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// SetRoomConfig 热更新房间规则，仅影响之后创建的房间
func (d *Directory) SetRoomConfig(cfg RoomConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	return nil
}

// Metrics 目录级指标
func (d *Directory) Metrics() *DirectoryMetrics { return d.metrics }

// Close 停止所有房间（进程退出时调用）
func (d *Directory) Close() {
	d.mu.Lock()
	rooms := make([]*Room, 0, len(d.rooms))
	for code, r := range d.rooms {
		rooms = append(rooms, r)
		delete(d.rooms, code)
	}
	d.conns = make(map[ConnID]seat)
	d.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
		d.transport.Release(r.Code)
	}
}

// HandleMessage 处理一条入站消息并回复发起连接
func (d *Directory) HandleMessage(id ConnID, msg InputMessage) {
	switch msg.Type {
	case EventNewGame:
		code, err := d.CreateRoom(id)
		if err != nil {
			d.reject(id, err)
			return
		}
		d.transport.Deliver(id, EventGameCode, code)
		d.transport.Deliver(id, EventInit, SlotOne)
	case EventJoinGame:
		slot, err := d.JoinRoom(msg.Code, id)
		if err != nil {
			d.reject(id, err)
			return
		}
		d.transport.Deliver(id, EventInit, slot)
	case EventKeydown:
		keyCode, ok := ParseKeyCode(msg.KeyCode)
		if !ok {
			d.metrics.IncMalformed()
			return
		}
		d.RouteInput(id, keyCode)
	default:
		Log.Debugw("unknown message type", "conn", string(id), "type", msg.Type)
	}
}

// reject 准入失败只通知发起连接
func (d *Directory) reject(id ConnID, err error) {
	Log.Debugw("request rejected", "conn", string(id), "err", err)
	switch {
	case errors.Is(err, ErrUnknownRoom):
		d.transport.Deliver(id, EventUnknownCode, nil)
	case errors.Is(err, ErrRoomFull):
		d.transport.Deliver(id, EventTooManyPlayers, nil)
	case errors.Is(err, ErrAlreadySeated):
		d.transport.Deliver(id, EventAlreadyInGame, nil)
	}
}
