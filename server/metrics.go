package server

import (
	"sync/atomic"
)

// SessionMetrics 记录会话运行期的关键指标（用于监控与调试）
type SessionMetrics struct {
	TickCount        int64 // 权威循环 Tick 次数
	PayloadsConsumed int64 // 从聚合通道取出的负载数
	EntriesApplied   int64 // 已应用的位移条目数
	EntriesSkipped   int64 // 指向未知玩家而跳过的条目数
	Published        int64 // 成功发布到总线的消息数
	BusFullDeferred  int64 // 因总线满而推迟到下一 Tick 的次数
	FatalDisconnects int64 // 因致命 I/O 错误退出的 worker 数
	MalformedFrames  int64 // 无法解码而丢弃的入站帧
	TotalTickNs      int64 // Tick 累计耗时（纳秒）
}

func (m *SessionMetrics) IncConsumed() { atomic.AddInt64(&m.PayloadsConsumed, 1) }
func (m *SessionMetrics) IncApplied() { atomic.AddInt64(&m.EntriesApplied, 1) }
func (m *SessionMetrics) IncSkipped() { atomic.AddInt64(&m.EntriesSkipped, 1) }
func (m *SessionMetrics) IncPublished() { atomic.AddInt64(&m.Published, 1) }
func (m *SessionMetrics) IncBusFullDeferred() { atomic.AddInt64(&m.BusFullDeferred, 1) }
func (m *SessionMetrics) IncFatalDisconnect() { atomic.AddInt64(&m.FatalDisconnects, 1) }
func (m *SessionMetrics) IncMalformedFrame() { atomic.AddInt64(&m.MalformedFrames, 1) }
func (m *SessionMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *SessionMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":        tick,
		"payloads_consumed": atomic.LoadInt64(&m.PayloadsConsumed),
		"entries_applied":   atomic.LoadInt64(&m.EntriesApplied),
		"entries_skipped":   atomic.LoadInt64(&m.EntriesSkipped),
		"published":         atomic.LoadInt64(&m.Published),
		"bus_full_deferred": atomic.LoadInt64(&m.BusFullDeferred),
		"fatal_disconnects": atomic.LoadInt64(&m.FatalDisconnects),
		"malformed_frames":  atomic.LoadInt64(&m.MalformedFrames),
		"avg_tick_ms":       avgMs,
	}
}
