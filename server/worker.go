package server

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrHandshake 握手违反协议（首条总线消息不是 Snapshot 或迟迟没有），不可恢复
var ErrHandshake = errors.New("handshake failed")

// errPeerGone worker 因自身致命 I/O 错误提前结束，不算会话错误
var errPeerGone = errors.New("peer gone")

// PeerConn 与一个客户端之间的双工连接（已包含编解码）
// Recv 不阻塞：没有数据时返回 ErrTransient；连接不可用时返回 ErrFatal
type PeerConn interface {
	Send(Payload) error
	Recv() (Payload, error)
	Close() error
	RemoteAddr() string
}

// Worker 每个连接一个协程：把入站负载转交聚合通道，把总线消息写给客户端
// 只会修改存活计数与两个通道，从不直接修改 GameState
type Worker struct {
	index            int
	conn             PeerConn
	inbox            *Aggregator
	reader           *Reader
	live             *Liveness
	tick             time.Duration
	handshakeTimeout time.Duration
	metrics          *SessionMetrics
	log              *zap.SugaredLogger

	dropped bool
}

// NewWorker reader 必须在 Snapshot 发布之前订阅
func NewWorker(index int, conn PeerConn, inbox *Aggregator, reader *Reader, live *Liveness, cfg Config, metrics *SessionMetrics, log *zap.SugaredLogger) *Worker {
	if metrics == nil {
		metrics = &SessionMetrics{}
	}
	if log == nil {
		log = Log
	}
	return &Worker{
		index:            index,
		conn:             conn,
		inbox:            inbox,
		reader:           reader,
		live:             live,
		tick:             cfg.TickInterval(),
		handshakeTimeout: cfg.HandshakeTimeout,
		metrics:          metrics,
		log:              log.With("peer", index, "addr", conn.RemoteAddr()),
	}
}

// Run 握手后进入 Tick 循环，直到本连接出错或全局存活计数归零
// 只有协议错误（ErrHandshake）会作为返回值
func (w *Worker) Run() error {
	defer w.conn.Close()
	defer w.reader.Close()

	if err := w.handshake(); err != nil {
		if errors.Is(err, errPeerGone) {
			return nil
		}
		w.log.Errorw("handshake failed", "err", err)
		w.drop("handshake", err)
		return err
	}

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()
	for {
		terminating := w.recvPhase()
		if !terminating {
			terminating = w.sendPhase()
		}
		if terminating || w.live.Zero() {
			w.log.Debugw("worker exit", "local", terminating, "live", w.live.Load())
			return nil
		}
		<-ticker.C
	}
}

// handshake 等待总线上的第一条消息（必须是 Snapshot），标注本连接下标后发给客户端
func (w *Worker) handshake() error {
	timeout := w.handshakeTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().HandshakeTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var first Payload
	select {
	case p, ok := <-w.reader.C():
		if !ok {
			return fmt.Errorf("%w: bus reader closed before snapshot", ErrHandshake)
		}
		first = p
	case <-timer.C:
		return fmt.Errorf("%w: no snapshot within %s", ErrHandshake, timeout)
	}

	snap, ok := first.(*Snapshot)
	if !ok {
		return fmt.Errorf("%w: first message is %s, want snapshot", ErrHandshake, first.Kind())
	}
	if err := w.conn.Send(snap.WithAssignedID(w.index)); err != nil {
		// 客户端拿不到初始状态就无法继续，按致命处理
		w.drop("handshake send", err)
		return errPeerGone
	}
	w.log.Infow("handshake sent", "roster", len(snap.Roster))
	return nil
}

// recvPhase 读到没有数据为止，返回是否需要退出
func (w *Worker) recvPhase() bool {
	for {
		p, err := w.conn.Recv()
		if err == nil {
			if p != nil {
				w.inbox.Submit(p)
			}
			continue
		}
		switch {
		case errors.Is(err, ErrFatal):
			w.drop("recv", err)
			return true
		case errors.Is(err, ErrMalformed):
			w.metrics.IncMalformedFrame()
			w.log.Debugw("drop malformed frame", "err", err)
		}
		return false
	}
}

// sendPhase 非阻塞地取完总线上的消息并逐条发送，返回是否需要退出
func (w *Worker) sendPhase() bool {
	for {
		p, ok := w.reader.TryRecv()
		if !ok {
			return false
		}
		if err := w.conn.Send(p); err != nil {
			if errors.Is(err, ErrFatal) {
				w.drop("send", err)
				return true
			}
			w.log.Debugw("send failed, message skipped", "kind", p.Kind(), "err", err)
		}
	}
}

// drop 每个 worker 最多递减一次存活计数
func (w *Worker) drop(phase string, err error) {
	if w.dropped {
		return
	}
	w.dropped = true
	w.live.Drop()
	w.metrics.IncFatalDisconnect()
	w.log.Infow("peer disconnected", "phase", phase, "err", err, "live", w.live.Load())
}
