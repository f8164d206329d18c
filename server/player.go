package server

// Point 网格坐标（整数格），同时用作方向向量
type Point struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// Add 返回 p + d
func (p Point) Add(d Point) Point { return Point{X: p.X + d.X, Y: p.Y + d.Y} }

// Neg 反向
func (p Point) Neg() Point { return Point{X: -p.X, Y: -p.Y} }

// IsZero 是否为零向量（尚未移动）
func (p Point) IsZero() bool { return p.X == 0 && p.Y == 0 }

// inGrid 是否落在 [0, size) 范围内
func (p Point) inGrid(size int) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < size && p.Y < size
}

// Slot 玩家在房间中的席位：1 为房主，2 为加入者；0 表示无
type Slot int

const (
	SlotNone Slot = iota
	SlotOne
	SlotTwo
)

// index 席位对应 players 数组下标
func (s Slot) index() int { return int(s) - 1 }

// Opponent 对手席位
func (s Slot) Opponent() Slot {
	switch s {
	case SlotOne:
		return SlotTwo
	case SlotTwo:
		return SlotOne
	default:
		return SlotNone
	}
}

// Valid 是否为合法席位
func (s Slot) Valid() bool { return s == SlotOne || s == SlotTwo }

// Player 房间内的蛇（服务端权威状态）
// Snake 头在前：Snake[0] 为蛇头，移动后与 Pos 相同
type Player struct {
	Pos   Point   `json:"pos" msgpack:"pos"`
	Snake []Point `json:"snake" msgpack:"snake"`
	Vel   Point   `json:"vel" msgpack:"vel"`
}

// Heading 蛇当前朝向：身体至少两格时取头与颈的差，否则取速度
func (p Player) Heading() Point {
	if len(p.Snake) >= 2 {
		return Point{X: p.Snake[0].X - p.Snake[1].X, Y: p.Snake[0].Y - p.Snake[1].Y}
	}
	return p.Vel
}

// occupies 蛇身是否占据 c
func (p Player) occupies(c Point) bool {
	for _, cell := range p.Snake {
		if cell == c {
			return true
		}
	}
	return false
}

func (p Player) clone() Player {
	body := make([]Point, len(p.Snake))
	copy(body, p.Snake)
	return Player{Pos: p.Pos, Snake: body, Vel: p.Vel}
}
