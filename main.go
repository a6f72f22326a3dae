package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gridsync/server"
)

// gridsync 入口：收满固定数量的玩家后开局，所有玩家断开即结束进程
func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		panic(err)
	}
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :9495")
	flag.IntVar(&cfg.Peers, "peers", cfg.Peers, "number of players; the session starts when all have joined")
	flag.IntVar(&cfg.NetHz, "hz", cfg.NetHz, "tick rate of the authority and connection loops")
	flag.IntVar(&cfg.BusCapacity, "bus", cfg.BusCapacity, "broadcast bus capacity")
	flag.BoolVar(&cfg.BlankGrid, "blank", cfg.BlankGrid, "use a blank map instead of seeded terrain")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file path, empty for stderr")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.LogFile); err != nil {
		panic(err)
	}

	code := run(cfg)
	server.SyncLogger()
	os.Exit(code)
}

func run(cfg server.Config) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lobby := server.NewLobby(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", lobby.HandleWS)
	mux.HandleFunc("/admin/state", lobby.HandleAdminState)
	mux.HandleFunc("/metrics", lobby.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		server.Log.Infof("gridsync listening on %s, waiting for %d players", cfg.Addr, cfg.Peers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Errorf("listen: %v", err)
			cancel()
		}
	}()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	session, err := lobby.Wait(ctx)
	if err != nil {
		lobby.Close()
		if errors.Is(err, context.Canceled) {
			server.Log.Info("Shutting down before session start")
			return 0
		}
		server.Log.Errorf("start session: %v", err)
		return 1
	}

	// 会话结束 = 所有连接都已断开；第一个 worker 错误即进程错误
	if err := session.Run(ctx); err != nil {
		server.Log.Errorf("session %s: %v", session.ID, err)
		return 1
	}
	server.Log.Info("Session finished")
	return 0
}
