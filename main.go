package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snakeduel/server"
)

// SnakeDuel 入口：启动 HTTP + WebSocket 服务，并初始化会话目录
func main() {
	cfg := server.DefaultConfig()
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :8080")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file path")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flag.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "static client directory, empty to disable")
	flag.IntVar(&cfg.Rooms.GridSize, "grid", cfg.Rooms.GridSize, "grid side length")
	flag.IntVar(&cfg.Rooms.TickRate, "tps", cfg.Rooms.TickRate, "simulation ticks per second")
	flag.IntVar(&cfg.Rooms.CodeLength, "code-length", cfg.Rooms.CodeLength, "room code length")
	flag.DurationVar(&cfg.Rooms.WaitingTTL, "waiting-ttl", cfg.Rooms.WaitingTTL, "evict rooms nobody joined after this long, 0 disables")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}
	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	srv := server.NewServer(cfg)
	httpSrv := &http.Server{Addr: cfg.Addr, Handler: srv.Routes(cfg.StaticDir)}

	go func() {
		server.Log.Infof("SnakeDuel listening on %s; open http://localhost%v/", cfg.Addr, cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		server.Log.Warnf("shutdown: %v", err)
	}
}
