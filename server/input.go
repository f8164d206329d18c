package server

import (
	"encoding/json"
	"strconv"
	"strings"
)

// 支持的按键码：方向键与 WASD
const (
	KeyLeft  = 37
	KeyUp    = 38
	KeyRight = 39
	KeyDown  = 40
	KeyA     = 65
	KeyD     = 68
	KeyS     = 83
	KeyW     = 87
)

var (
	DirUp    = Point{X: 0, Y: -1}
	DirDown  = Point{X: 0, Y: 1}
	DirLeft  = Point{X: -1, Y: 0}
	DirRight = Point{X: 1, Y: 0}
)

// Input 客户端输入（意图），由房间在下一次 Tick 开始时应用
type Input struct {
	Slot    Slot
	KeyCode int
}

// InputMessage 入站 JSON 结构（WebSocket 文本消息）
// 示例：{"type":"newGame"} {"type":"joinGame","code":"AB12C"} {"type":"keydown","keyCode":37}
type InputMessage struct {
	Type    string          `json:"type"`
	Code    string          `json:"code,omitempty"`
	KeyCode json.RawMessage `json:"keyCode,omitempty"`
}

// ParseKeyCode 解析按键码，接受整数或数字字符串；其他一律视为无效
func ParseKeyCode(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
	} else {
		text = string(raw)
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return n, true
}

// directionOf 按键码到单位方向；未知按键返回 false
func directionOf(keyCode int) (Point, bool) {
	switch keyCode {
	case KeyLeft, KeyA:
		return DirLeft, true
	case KeyUp, KeyW:
		return DirUp, true
	case KeyRight, KeyD:
		return DirRight, true
	case KeyDown, KeyS:
		return DirDown, true
	default:
		return Point{}, false
	}
}

// UpdatedVelocity 将按键码翻译为新速度
// heading 为蛇当前朝向；与其相反的方向会被拒绝，防止原地掉头撞到自己
func UpdatedVelocity(keyCode int, heading Point) (Point, bool) {
	dir, ok := directionOf(keyCode)
	if !ok {
		return Point{}, false
	}
	if !heading.IsZero() && dir == heading.Neg() {
		return Point{}, false
	}
	return dir, true
}
