package server

import (
	"crypto/rand"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Authority 权威循环：唯一修改玩家位置的协程
// 处理聚合通道里的负载 → 更新状态 → 原样转发到总线
type Authority struct {
	state *GameState
	seed  [SeedSize]byte
	bus   *Bus
	inbox *Aggregator
	live  *Liveness
	tick  time.Duration

	// 待广播队列：总线满时留在队首，下个 Tick 继续，保证顺序且不丢
	pending []Payload

	metrics      *SessionMetrics
	log          *zap.SugaredLogger
	backpressure rate.Sometimes
}

// NewAuthority 会话初始化：随机种子 → 生成地形 → 每个连接一个玩家 → Snapshot 排在待广播队首
func NewAuthority(cfg Config, peers int, bus *Bus, inbox *Aggregator, live *Liveness, metrics *SessionMetrics, log *zap.SugaredLogger) (*Authority, error) {
	if metrics == nil {
		metrics = &SessionMetrics{}
	}
	if log == nil {
		log = Log
	}
	a := &Authority{
		bus:          bus,
		inbox:        inbox,
		live:         live,
		tick:         cfg.TickInterval(),
		metrics:      metrics,
		log:          log,
		backpressure: rate.Sometimes{Interval: time.Second},
	}
	if _, err := rand.Read(a.seed[:]); err != nil {
		return nil, fmt.Errorf("draw map seed: %w", err)
	}

	var grid *Grid
	if cfg.BlankGrid {
		grid = GenerateGrid(cfg.GridWidth, cfg.GridHeight, nil)
	} else {
		grid = GenerateGrid(cfg.GridWidth, cfg.GridHeight, &a.seed)
	}
	a.state = NewGameState(peers, grid)

	a.pending = append(a.pending, &Snapshot{Roster: a.state.Roster(), MapSeed: a.seed})
	a.log.Infow("session bootstrapped", "peers", peers, "grid", fmt.Sprintf("%dx%d", grid.Width(), grid.Height()), "blank", cfg.BlankGrid)
	return a, nil
}

func (a *Authority) State() *GameState { return a.state }

func (a *Authority) Seed() [SeedSize]byte { return a.seed }

// Pending 尚未发布到总线的消息数
func (a *Authority) Pending() int { return len(a.pending) }

// Tick 执行一次：处理输入 → 广播 → 检查是否结束
func (a *Authority) Tick() bool {
	a.processInbox()
	a.flush()
	return a.live.Zero()
}

// processInbox 非阻塞地取完聚合通道；每条负载无论类型都原样加入待广播队列（包括发送者自己）
func (a *Authority) processInbox() {
	for _, p := range a.inbox.Drain() {
		a.metrics.IncConsumed()
		if d, ok := p.(*Delta); ok {
			a.applyDelta(d)
		}
		a.pending = append(a.pending, p)
	}
}

// applyDelta 按列表顺序逐条应用；同一玩家出现多次时累加
// 位置不做合法性校验
func (a *Authority) applyDelta(d *Delta) {
	for _, e := range d.Entries {
		if _, err := a.state.Apply(e.PlayerID, e.Change); err != nil {
			a.metrics.IncSkipped()
			a.log.Warnw("delta entry skipped", "err", err)
			continue
		}
		a.metrics.IncApplied()
	}
}

// flush 按顺序发布；总线满时该消息留在队首，本 Tick 停止发布
func (a *Authority) flush() {
	for len(a.pending) > 0 {
		if err := a.bus.TryPublish(a.pending[0]); err != nil {
			a.metrics.IncBusFullDeferred()
			a.backpressure.Do(func() {
				a.log.Warnw("broadcast bus full, deferring", "pending", len(a.pending))
			})
			return
		}
		a.metrics.IncPublished()
		a.pending[0] = nil
		a.pending = a.pending[1:]
	}
	a.pending = nil
}
