package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// roomConfigPatch 部分更新载荷，缺省字段保持不变
type roomConfigPatch struct {
	GridSize          *int     `json:"gridSize,omitempty"`
	TickRate          *int     `json:"tickRate,omitempty"`
	CodeLength        *int     `json:"codeLength,omitempty"`
	WaitingTTLSeconds *float64 `json:"waitingTTLSeconds,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleAdminConfig 读取与热更新新建房间的规则
// GET /admin/config  返回当前配置
// POST /admin/config 以 JSON 载荷更新部分字段，只影响之后创建的房间
func (s *Server) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	cur := s.dir.RoomConfig()
	view := func(c RoomConfig) map[string]any {
		return map[string]any{
			"gridSize":          c.GridSize,
			"tickRate":          c.TickRate,
			"codeLength":        c.CodeLength,
			"waitingTTLSeconds": c.WaitingTTL.Seconds(),
		}
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, view(cur))
	case http.MethodPost:
		var body roomConfigPatch
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		next := cur
		if body.GridSize != nil {
			next.GridSize = *body.GridSize
		}
		if body.TickRate != nil {
			next.TickRate = *body.TickRate
		}
		if body.CodeLength != nil {
			next.CodeLength = *body.CodeLength
		}
		if body.WaitingTTLSeconds != nil {
			next.WaitingTTL = time.Duration(*body.WaitingTTLSeconds * float64(time.Second))
		}
		if err := s.dir.SetRoomConfig(next); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		Log.Infow("room config updated", "gridSize", next.GridSize, "tickRate", next.TickRate,
			"codeLength", next.CodeLength, "waitingTTL", next.WaitingTTL)
		writeJSON(w, http.StatusOK, view(next))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleAdminRooms 列出所有房间，或 ?code=XXXXX 查看单个房间
func (s *Server) HandleAdminRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if code := r.URL.Query().Get("code"); code != "" {
		room, ok := s.dir.Lookup(code)
		if !ok {
			http.Error(w, "unknown room", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, room.Info())
		return
	}
	rooms := s.dir.Rooms()
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	writeJSON(w, http.StatusOK, rooms)
}

// HandleMetrics 输出目录级指标与各房间运行指标
// GET /metrics
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	rooms := s.dir.Rooms()
	perRoom := make(map[string]any, len(rooms))
	for _, info := range rooms {
		perRoom[info.Code] = map[string]any{
			"status":  info.Status,
			"tick":    info.Tick,
			"metrics": info.Metrics,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"directory": s.dir.Metrics().Snapshot(),
		"rooms":     perRoom,
	})
}

// WithCORS 为 HTTP 接口添加跨域头
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Routes 注册全部 HTTP 路由
func (s *Server) Routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	if staticDir != "" {
		// 前后端分离：将 / 映射到静态资源目录
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	// 管理与监控接口
	mux.Handle("/admin/config", WithCORS(http.HandlerFunc(s.HandleAdminConfig)))
	mux.Handle("/admin/rooms", WithCORS(http.HandlerFunc(s.HandleAdminRooms)))
	mux.Handle("/metrics", WithCORS(http.HandlerFunc(s.HandleMetrics)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
