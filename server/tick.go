package server

import "time"

// start 迁移到 running 并启动房间的 Tick 循环（单协程推进世界）
func (r *Room) start() error {
	if err := r.begin(); err != nil {
		return err
	}
	go r.run(r.cfg.TickInterval())
	return nil
}

// run Tick 循环；分出胜负或被 Stop 后退出，计时器只停止一次
func (r *Room) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if r.tick() {
				return
			}
		}
	}
}

// tick 核心循环：处理输入 → 更新世界 → 广播结果；返回房间是否已结束
func (r *Room) tick() bool {
	start := time.Now()
	defer func() { r.metrics.AddTick(time.Since(start).Nanoseconds()) }()

	r.mu.Lock()
	if r.status != StatusRunning {
		r.mu.Unlock()
		return true
	}
	r.processInputsLocked()
	winner := r.forfeitWinnerLocked()
	if winner == SlotNone {
		r.state, winner = AdvanceTick(r.state, r.rng)
	}
	r.tickSeq++
	if winner != SlotNone {
		r.status = StatusFinished
		r.winner = winner
	}
	view := r.state.View()
	seq := r.tickSeq
	r.mu.Unlock()

	// 广播在锁外进行，网络层慢不影响下一次 Tick
	if winner == SlotNone {
		r.transport.Broadcast(r.Code, EventGameState, view)
		return false
	}
	r.transport.Broadcast(r.Code, EventGameOver, GameOverPayload{Winner: winner})
	Log.Infow("game over", "room", r.Code, "winner", int(winner), "tick", seq)
	if r.onFinish != nil {
		r.onFinish(r.Code)
	}
	return true
}
