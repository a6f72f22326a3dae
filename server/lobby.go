package server

import (
	"context"
	"errors"
	"sync"
)

// ErrLobbyFull 玩家已满或会话已开始
var ErrLobbyFull = errors.New("lobby full")

// Lobby 收集固定数量的连接，满员后创建唯一的会话
type Lobby struct {
	cfg   Config
	codec Codec

	mu      sync.Mutex
	conns   []PeerConn
	session *Session
	err     error
	ready   chan struct{} // 会话创建（或创建失败）后关闭
}

func NewLobby(cfg Config) *Lobby {
	return &Lobby{
		cfg:   cfg,
		codec: Codec{CompressThreshold: cfg.CompressThreshold},
		ready: make(chan struct{}),
	}
}

// Full 是否已不再接受连接
func (l *Lobby) Full() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns) >= l.cfg.Peers
}

// Join 加入一个连接，返回其下标；最后一个连接加入时创建会话
func (l *Lobby) Join(c PeerConn) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.conns) >= l.cfg.Peers {
		return -1, ErrLobbyFull
	}
	index := len(l.conns)
	l.conns = append(l.conns, c)
	if len(l.conns) == l.cfg.Peers {
		l.session, l.err = NewSession(l.cfg, l.conns)
		close(l.ready)
	}
	return index, nil
}

// Wait 阻塞直到满员并创建会话
func (l *Lobby) Wait(ctx context.Context) (*Session, error) {
	select {
	case <-l.ready:
		return l.session, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Session 会话未开始时返回 nil
func (l *Lobby) Session() *Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

// Peers 开局所需的连接数；Close 之后为 0
func (l *Lobby) Peers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.Peers
}

// Joined 已加入的连接数
func (l *Lobby) Joined() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

// Close 会话开始前退出时，关闭已收集的连接
func (l *Lobby) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session != nil {
		return
	}
	for _, c := range l.conns {
		_ = c.Close()
	}
	l.conns = nil
	l.cfg.Peers = 0
}
