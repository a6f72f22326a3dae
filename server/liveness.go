package server

import "sync/atomic"

// Liveness 尚未断开的连接数，是唯一的退出信号
// 只减不增，不会小于 0；归零后权威循环和所有 worker 在一个 tick 内退出
type Liveness struct {
	n atomic.Int64
}

func NewLiveness(peers int) *Liveness {
	l := &Liveness{}
	if peers > 0 {
		l.n.Store(int64(peers))
	}
	return l
}

// Drop 递减一次；已为 0 时什么也不做并返回 false
func (l *Liveness) Drop() bool {
	for {
		cur := l.n.Load()
		if cur <= 0 {
			return false
		}
		if l.n.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

func (l *Liveness) Load() int { return int(l.n.Load()) }

func (l *Liveness) Zero() bool { return l.n.Load() <= 0 }
