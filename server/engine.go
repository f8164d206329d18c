package server

// AdvanceTick 将房间状态推进一个 Tick（纯函数，不修改 prev）
//
// 两名玩家依据 Tick 开始时的状态同时结算：
//   - 速度为零的玩家本 Tick 不移动，也不会输；
//   - 新蛇头越界、落在任一蛇身（含尾巴）上、或两蛇头撞进同一格，该玩家输；
//   - 双方同时输时席位 1 判负，席位 2 获胜；
//   - 存活的玩家前进一格，吃到食物则不去尾并在空闲格重新投放食物。
//
// 返回新状态与获胜席位（无胜者时为 SlotNone）。
func AdvanceTick(prev GameState, rng Intner) (GameState, Slot) {
	// 浅拷贝即可：蛇身切片只会被整体替换，从不原地修改
	next := prev

	var (
		moving [2]bool
		lost   [2]bool
		heads  [2]Point
	)
	for i, p := range prev.Players {
		if p.Vel.IsZero() {
			continue
		}
		moving[i] = true
		heads[i] = p.Pos.Add(p.Vel)
		if !heads[i].inGrid(prev.GridSize) || prev.occupied(heads[i]) {
			lost[i] = true
		}
	}
	if !moving[0] && !moving[1] {
		return next, SlotNone
	}
	if moving[0] && moving[1] && heads[0] == heads[1] {
		lost[0], lost[1] = true, true
	}

	food, hasFood := prev.Food.Cell()
	for i := range next.Players {
		if !moving[i] || lost[i] {
			continue
		}
		p := &next.Players[i]
		body := make([]Point, 0, len(p.Snake)+1)
		body = append(body, heads[i])
		body = append(body, p.Snake...)
		if hasFood && heads[i] == food {
			next.Food = Food{}
		} else {
			body = body[:len(body)-1]
		}
		p.Pos = heads[i]
		p.Snake = body
	}
	if next.Food.Pending() {
		next.placeFood(rng)
	}
	return next, winnerOf(lost)
}

// winnerOf 根据判负情况给出胜者；双方同时判负时席位 1 输
func winnerOf(lost [2]bool) Slot {
	switch {
	case lost[0]:
		return SlotTwo
	case lost[1]:
		return SlotOne
	default:
		return SlotNone
	}
}
