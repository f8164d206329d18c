package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount      int64 // Tick 次数
	InputsAccepted int64 // 被接受并写入速度的输入数
	InputsIgnored  int64 // 无效按键或掉头被忽略的输入数
	ChanFullDrops  int64 // 因通道满被丢弃的输入数
	TotalTickNs    int64 // Tick 累计耗时（纳秒）
}

func (m *RoomMetrics) IncAccepted()      { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *RoomMetrics) IncIgnored()       { atomic.AddInt64(&m.InputsIgnored, 1) }
func (m *RoomMetrics) IncChanFullDrops() { atomic.AddInt64(&m.ChanFullDrops, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":      tick,
		"inputs_accepted": atomic.LoadInt64(&m.InputsAccepted),
		"inputs_ignored":  atomic.LoadInt64(&m.InputsIgnored),
		"chan_full_drops": atomic.LoadInt64(&m.ChanFullDrops),
		"avg_tick_ms":     avgMs,
	}
}

// DirectoryMetrics 进程级房间统计
type DirectoryMetrics struct {
	RoomsCreated   int64
	RoomsFinished  int64
	RoomsEvicted   int64
	JoinsRejected  int64
	OrphanInputs   int64 // 来自未入座连接的输入
	MalformedInput int64 // 无法解析的按键码
}

func (m *DirectoryMetrics) IncCreated()   { atomic.AddInt64(&m.RoomsCreated, 1) }
func (m *DirectoryMetrics) IncFinished()  { atomic.AddInt64(&m.RoomsFinished, 1) }
func (m *DirectoryMetrics) IncEvicted()   { atomic.AddInt64(&m.RoomsEvicted, 1) }
func (m *DirectoryMetrics) IncRejected()  { atomic.AddInt64(&m.JoinsRejected, 1) }
func (m *DirectoryMetrics) IncOrphan()    { atomic.AddInt64(&m.OrphanInputs, 1) }
func (m *DirectoryMetrics) IncMalformed() { atomic.AddInt64(&m.MalformedInput, 1) }

func (m *DirectoryMetrics) Snapshot() map[string]any {
	return map[string]any{
		"rooms_created":   atomic.LoadInt64(&m.RoomsCreated),
		"rooms_finished":  atomic.LoadInt64(&m.RoomsFinished),
		"rooms_evicted":   atomic.LoadInt64(&m.RoomsEvicted),
		"joins_rejected":  atomic.LoadInt64(&m.JoinsRejected),
		"orphan_inputs":   atomic.LoadInt64(&m.OrphanInputs),
		"malformed_input": atomic.LoadInt64(&m.MalformedInput),
	}
}
