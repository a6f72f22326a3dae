package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Session 一局游戏：固定的连接集合 + 一个权威循环
type Session struct {
	ID uuid.UUID

	conns     []PeerConn
	bus       *Bus
	inbox     *Aggregator
	live      *Liveness
	authority *Authority
	workers   []*Worker
	metrics   *SessionMetrics
	log       *zap.SugaredLogger

	closeOnce sync.Once
}

// NewSession 初始化状态并为每个连接创建 worker
// 所有订阅都在 Snapshot 发布之前完成，保证每个 worker 的第一条消息就是它
func NewSession(cfg Config, conns []PeerConn) (*Session, error) {
	if len(conns) == 0 {
		return nil, errors.New("session needs at least one connection")
	}
	cfg.Peers = len(conns)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	id := uuid.New()
	s := &Session{
		ID:      id,
		conns:   conns,
		bus:     NewBus(cfg.BusCapacity),
		inbox:   NewAggregator(),
		live:    NewLiveness(len(conns)),
		metrics: &SessionMetrics{},
		log:     Log.With("session", id.String()),
	}

	a, err := NewAuthority(cfg, len(conns), s.bus, s.inbox, s.live, s.metrics, s.log)
	if err != nil {
		return nil, err
	}
	s.authority = a

	for i, c := range conns {
		s.workers = append(s.workers, NewWorker(i, c, s.inbox, s.bus.Subscribe(), s.live, cfg, s.metrics, s.log))
	}
	return s, nil
}

func (s *Session) Metrics() *SessionMetrics { return s.metrics }
func (s *Session) State() *GameState { return s.authority.State() }
func (s *Session) Live() *Liveness { return s.live }

// Run 启动所有 worker 与权威循环，存活计数归零后等待所有 worker 结束
// 返回第一个 worker 错误；ctx 取消时关闭全部连接，由 worker 走正常的断线流程退出
func (s *Session) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, s.closeConns)
	defer stop()

	for _, w := range s.workers {
		g.Go(w.Run)
	}
	s.log.Infow("session started", "peers", len(s.workers))

	s.authority.Run()

	err := g.Wait()
	if err != nil {
		s.log.Errorw("session ended with error", "err", err)
	} else {
		s.log.Infow("session ended", "metrics", s.metrics.Snapshot())
	}
	return err
}

func (s *Session) closeConns() {
	s.closeOnce.Do(func() {
		s.log.Infow("closing all connections")
		for _, c := range s.conns {
			_ = c.Close()
		}
	})
}
