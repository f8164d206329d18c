package server

import (
	"fmt"
	"time"
)

// Config 服务端配置，由 main 中的命令行参数填充
type Config struct {
	Addr      string
	LogFile   string
	LogLevel  string
	StaticDir string

	// 房间默认值，可通过 /admin/config 热更新，仅对之后创建的房间生效
	Rooms RoomConfig
}

// RoomConfig 新建房间使用的规则
type RoomConfig struct {
	GridSize   int           `json:"gridSize"`
	TickRate   int           `json:"tickRate"`   // 每秒 Tick 次数
	CodeLength int           `json:"codeLength"` // 房间码长度
	WaitingTTL time.Duration `json:"waitingTTL"` // 等待第二名玩家的最长时间，0 为不限
}

const (
	// DefaultTickRate 世界推进频率（10 TPS）
	DefaultTickRate = 10
	MinGridSize     = 8
	MaxGridSize     = 200
	MaxTickRate     = 120
)

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Addr:      ":8080",
		LogFile:   "app.log",
		LogLevel:  "debug",
		StaticDir: "web",
		Rooms:     DefaultRoomConfig(),
	}
}

// DefaultRoomConfig 默认房间规则：20x20 网格，10 TPS，5 位房间码，10 分钟无人加入即回收
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		GridSize:   20,
		TickRate:   DefaultTickRate,
		CodeLength: 5,
		WaitingTTL: 10 * time.Minute,
	}
}

// TickInterval 单次 Tick 间隔
func (c RoomConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Validate 校验房间规则
func (c RoomConfig) Validate() error {
	if c.GridSize < MinGridSize || c.GridSize > MaxGridSize {
		return fmt.Errorf("gridSize must be in [%d, %d], got %d", MinGridSize, MaxGridSize, c.GridSize)
	}
	if c.TickRate < 1 || c.TickRate > MaxTickRate {
		return fmt.Errorf("tickRate must be in [1, %d], got %d", MaxTickRate, c.TickRate)
	}
	if c.CodeLength < 3 || c.CodeLength > 12 {
		return fmt.Errorf("codeLength must be in [3, 12], got %d", c.CodeLength)
	}
	if c.WaitingTTL < 0 {
		return fmt.Errorf("waitingTTL must not be negative, got %s", c.WaitingTTL)
	}
	return nil
}

// Validate 校验整体配置
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	return c.Rooms.Validate()
}
