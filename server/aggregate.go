package server

import "sync"

// Aggregator 无界的多生产者单消费者通道：所有 worker 提交，只有权威循环消费
// 同一生产者的消息保持 FIFO
type Aggregator struct {
	mu    sync.Mutex
	queue []Payload
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Submit 提交一条负载，永不阻塞、永不丢弃
func (a *Aggregator) Submit(p Payload) {
	a.mu.Lock()
	a.queue = append(a.queue, p)
	a.mu.Unlock()
}

// Drain 非阻塞地取走当前全部消息（按到达顺序）
func (a *Aggregator) Drain() []Payload {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) == 0 {
		return nil
	}
	out := a.queue
	a.queue = nil
	return out
}

// Len 当前积压数量
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}
