package server

import "time"

// Run 按固定间隔 Tick，存活计数归零时返回
func (a *Authority) Run() {
	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()
	for {
		// 核心循环：处理输入 → 更新状态 → 广播
		start := time.Now()
		done := a.Tick()
		a.metrics.AddTick(time.Since(start).Nanoseconds())
		if done {
			a.log.Infow("authority loop exit", "unsent", len(a.pending))
			return
		}
		<-ticker.C
	}
}
