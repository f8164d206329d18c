package server

// Intner 随机数来源（每个房间独享一个，避免房间间共享可变状态）
type Intner interface {
	Intn(n int) int
}

// Food 食物槽位：要么落在某格（present），要么等待重新投放（Pending）
// 零值即 Pending
type Food struct {
	cell    Point
	present bool
}

// FoodAt 构造已投放在 p 的食物
func FoodAt(p Point) Food { return Food{cell: p, present: true} }

// Cell 返回食物所在格；Pending 时 ok=false
func (f Food) Cell() (p Point, ok bool) { return f.cell, f.present }

// Pending 食物已被吃掉且尚未重新投放
func (f Food) Pending() bool { return !f.present }

// GameState 单个房间的权威游戏状态
// Players[0] 为房主（席位 1），Players[1] 为加入者（席位 2）
type GameState struct {
	Players  [2]Player
	GridSize int
	Food     Food
}

// NewGameState 初始化对称的开局：两条长度为 3 的蛇分居左右，速度为零，并投放一个食物
func NewGameState(gridSize int, rng Intner) GameState {
	mid := gridSize / 2
	left := 3
	right := gridSize - 1 - left
	s := GameState{
		GridSize: gridSize,
		Players: [2]Player{
			{
				Pos:   Point{X: left, Y: mid},
				Snake: []Point{{X: left, Y: mid}, {X: left - 1, Y: mid}, {X: left - 2, Y: mid}},
			},
			{
				Pos:   Point{X: right, Y: mid},
				Snake: []Point{{X: right, Y: mid}, {X: right + 1, Y: mid}, {X: right + 2, Y: mid}},
			},
		},
	}
	s.placeFood(rng)
	return s
}

// Player 按席位取玩家
func (s *GameState) Player(slot Slot) *Player {
	if !slot.Valid() {
		return nil
	}
	return &s.Players[slot.index()]
}

// occupied 任一蛇身是否占据 c
func (s GameState) occupied(c Point) bool {
	return s.Players[0].occupies(c) || s.Players[1].occupies(c)
}

// freeCells 所有未被蛇身占据的格子（行优先）
func (s GameState) freeCells() []Point {
	free := make([]Point, 0, s.GridSize*s.GridSize)
	for y := 0; y < s.GridSize; y++ {
		for x := 0; x < s.GridSize; x++ {
			c := Point{X: x, Y: y}
			if !s.occupied(c) {
				free = append(free, c)
			}
		}
	}
	return free
}

// placeFood 在空闲格中均匀随机投放食物；棋盘已满时保持 Pending
func (s *GameState) placeFood(rng Intner) {
	free := s.freeCells()
	if len(free) == 0 {
		s.Food = Food{}
		return
	}
	s.Food = FoodAt(free[rng.Intn(len(free))])
}

// Clone 深拷贝（蛇身切片独立）
func (s GameState) Clone() GameState {
	out := s
	out.Players[0] = s.Players[0].clone()
	out.Players[1] = s.Players[1].clone()
	return out
}

// StateView 广播给客户端的状态（字段名与旧版客户端保持一致）
type StateView struct {
	Players  []Player `json:"players" msgpack:"players"`
	GridSize int      `json:"gridSize" msgpack:"gridSize"`
	Food     *Point   `json:"food,omitempty" msgpack:"food,omitempty"`
}

// View 生成只读视图，可安全交给其他协程编码
func (s GameState) View() StateView {
	c := s.Clone()
	v := StateView{
		Players:  []Player{c.Players[0], c.Players[1]},
		GridSize: c.GridSize,
	}
	if p, ok := c.Food.Cell(); ok {
		v.Food = &p
	}
	return v
}
